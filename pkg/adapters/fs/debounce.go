package fs

import (
	"sync"
	"time"

	"github.com/aretw0/quadrant/pkg/core"
)

// debouncer coalesces bursts of events per path into one event fired
// after the path has been quiet for delay.
type debouncer struct {
	delay   time.Duration
	mu      sync.Mutex
	wg      sync.WaitGroup
	timers  map[string]*time.Timer
	pending map[string]core.Event
	stopped bool
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:   delay,
		timers:  make(map[string]*time.Timer),
		pending: make(map[string]core.Event),
	}
}

// add schedules e, merging it with an event still pending for the same path.
func (d *debouncer) add(e core.Event, fire func(core.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if prev, ok := d.pending[e.Path]; ok {
		e.Type = mergeEventTypes(prev.Type, e.Type)
		d.pending[e.Path] = e
		// A timer that already fired is waiting on mu and will pick up
		// the merged event.
		if d.timers[e.Path].Stop() {
			d.timers[e.Path] = d.schedule(e.Path, fire)
		}
		return
	}

	d.pending[e.Path] = e
	d.wg.Add(1)
	d.timers[e.Path] = d.schedule(e.Path, fire)
}

func (d *debouncer) schedule(path string, fire func(core.Event)) *time.Timer {
	return time.AfterFunc(d.delay, func() {
		defer d.wg.Done()

		d.mu.Lock()
		e, ok := d.pending[path]
		delete(d.pending, path)
		delete(d.timers, path)
		stopped := d.stopped
		d.mu.Unlock()

		if ok && !stopped {
			fire(e)
		}
	})
}

// stop drops pending events and waits for callbacks already running.
// No callback runs once stop returns.
func (d *debouncer) stop() {
	d.mu.Lock()
	d.stopped = true
	for path, t := range d.timers {
		if t.Stop() {
			d.wg.Done()
		}
		delete(d.timers, path)
	}
	clear(d.pending)
	d.mu.Unlock()

	d.wg.Wait()
}

// mergeEventTypes folds two consecutive events on one path.
func mergeEventTypes(prev, next core.EventType) core.EventType {
	switch {
	case prev == core.EventCreate && next == core.EventModify:
		return core.EventCreate
	case prev == core.EventDelete && next == core.EventCreate:
		return core.EventModify
	}
	return next
}
