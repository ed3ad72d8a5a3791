package fs

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/quadrant/pkg/core"
)

func TestDebouncer(t *testing.T) {
	var (
		mu    sync.Mutex
		fired []core.Event
	)
	record := func(e core.Event) {
		mu.Lock()
		fired = append(fired, e)
		mu.Unlock()
	}
	snapshot := func() []core.Event {
		mu.Lock()
		defer mu.Unlock()
		return append([]core.Event(nil), fired...)
	}

	d := newDebouncer(20 * time.Millisecond)
	d.add(core.Event{Type: core.EventCreate, Path: "a.md"}, record)
	d.add(core.Event{Type: core.EventModify, Path: "a.md"}, record)
	d.add(core.Event{Type: core.EventModify, Path: "a.md"}, record)
	d.add(core.Event{Type: core.EventModify, Path: "b.md"}, record)

	assert.Eventually(t, func() bool { return len(snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	got := map[string]core.EventType{}
	for _, e := range snapshot() {
		got[e.Path] = e.Type
	}
	assert.Equal(t, map[string]core.EventType{"a.md": core.EventCreate, "b.md": core.EventModify}, got)

	t.Run("Stop Drops Pending", func(t *testing.T) {
		d.add(core.Event{Type: core.EventDelete, Path: "c.md"}, record)
		d.stop()
		d.add(core.Event{Type: core.EventDelete, Path: "d.md"}, record)
		time.Sleep(50 * time.Millisecond)
		assert.Len(t, snapshot(), 2)
	})
}

func TestDebouncer_StopWaitsForCallbacks(t *testing.T) {
	d := newDebouncer(time.Millisecond)
	entered := make(chan struct{})
	release := make(chan struct{})
	d.add(core.Event{Type: core.EventModify, Path: "a.md"}, func(core.Event) {
		close(entered)
		<-release
	})
	<-entered

	stopped := make(chan struct{})
	go func() {
		d.stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("stop returned while a callback was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("stop did not return after the callback finished")
	}
}

func TestMergeEventTypes(t *testing.T) {
	assert.Equal(t, core.EventCreate, mergeEventTypes(core.EventCreate, core.EventModify))
	assert.Equal(t, core.EventDelete, mergeEventTypes(core.EventCreate, core.EventDelete))
	assert.Equal(t, core.EventModify, mergeEventTypes(core.EventDelete, core.EventCreate))
	assert.Equal(t, core.EventDelete, mergeEventTypes(core.EventModify, core.EventDelete))
}
