// Package keylock provides per-key mutual exclusion with FIFO hand-off.
//
// Each key gets its own queue, created on first use and dropped once it is
// idle. Holders that keep a key longer than StaleAfter are force-released
// so a crashed or stuck mutation cannot starve the queue; their late unlock
// becomes a no-op.
package keylock

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// DefaultStaleAfter is the age after which a held key is considered abandoned.
const DefaultStaleAfter = 5 * time.Minute

// Config configures a Locker.
type Config struct {
	// StaleAfter bounds how long a holder may keep a key before it is
	// force-released. Zero means DefaultStaleAfter.
	StaleAfter time.Duration
	// HandoffDelay is waited before the next queued waiter is granted a key.
	HandoffDelay time.Duration
	Logger       *slog.Logger
	// OnStale, if set, is called (outside the lock) for every forced release.
	OnStale func(key string)
	// OnWait, if set, is called with the time a granted waiter spent queued.
	OnWait func(key string, waited time.Duration)
}

// Locker hands out per-key exclusive locks. The zero value is not usable;
// use New.
type Locker struct {
	cfg     Config
	logger  *slog.Logger
	mu      sync.Mutex
	gen     uint64 // grant counter, unique across entries
	entries map[string]*entry
}

type entry struct {
	held    bool
	gen     uint64
	since   time.Time
	waiters []*waiter
}

type waiter struct {
	ready  chan uint64
	queued time.Time
}

// New creates a Locker.
func New(cfg Config) *Locker {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Locker{
		cfg:     cfg,
		logger:  logger,
		entries: make(map[string]*entry),
	}
}

// Lock blocks until key is granted to the caller or ctx is done.
// Waiters on the same key are served in arrival order. The returned unlock
// function is idempotent.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{}
		l.entries[key] = e
	}
	stale := l.expireLocked(key, e)
	if !e.held && len(e.waiters) == 0 {
		l.entries[key] = e // expireLocked may have reaped it
		gen := l.grantLocked(e)
		l.mu.Unlock()
		l.notifyStale(key, stale)
		return l.unlocker(key, gen), nil
	}
	w := &waiter{ready: make(chan uint64, 1), queued: time.Now()}
	e.waiters = append(e.waiters, w)
	l.mu.Unlock()
	l.notifyStale(key, stale)

	for {
		l.mu.Lock()
		wait := time.Until(e.since.Add(l.cfg.StaleAfter))
		l.mu.Unlock()
		timer := time.NewTimer(max(wait, time.Millisecond))

		select {
		case gen := <-w.ready:
			timer.Stop()
			if l.cfg.OnWait != nil {
				l.cfg.OnWait(key, time.Since(w.queued))
			}
			return l.unlocker(key, gen), nil

		case <-ctx.Done():
			timer.Stop()
			l.mu.Lock()
			if i := slices.Index(e.waiters, w); i >= 0 {
				e.waiters = slices.Delete(e.waiters, i, i+1)
				l.reapLocked(key, e)
				l.mu.Unlock()
				return nil, ctx.Err()
			}
			l.mu.Unlock()
			// Already promoted: take the grant and hand it on.
			l.release(key, <-w.ready)
			return nil, ctx.Err()

		case <-timer.C:
			l.mu.Lock()
			stale := l.expireLocked(key, e)
			l.mu.Unlock()
			l.notifyStale(key, stale)
		}
	}
}

// Len returns the number of keys currently held or waited on.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Waiting returns the number of callers queued on key.
func (l *Locker) Waiting(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[key]; ok {
		return len(e.waiters)
	}
	return 0
}

// State implements introspection.Introspectable.
func (l *Locker) State() any {
	l.mu.Lock()
	defer l.mu.Unlock()
	held, waiting := 0, 0
	for _, e := range l.entries {
		if e.held {
			held++
		}
		waiting += len(e.waiters)
	}
	return map[string]any{
		"keys":          len(l.entries),
		"held":          held,
		"waiting":       waiting,
		"stale_after":   l.cfg.StaleAfter.String(),
		"handoff_delay": l.cfg.HandoffDelay.String(),
	}
}

// ComponentType implements introspection.Component.
func (l *Locker) ComponentType() string {
	return "keylock"
}

func (l *Locker) unlocker(key string, gen uint64) func() {
	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, gen) })
	}
}

func (l *Locker) release(key string, gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok || !e.held || e.gen != gen {
		// Force-released earlier; the key belongs to someone else now.
		return
	}
	l.handOffLocked(key, e)
}

// expireLocked force-releases a stale holder and reports whether it did.
func (l *Locker) expireLocked(key string, e *entry) bool {
	if !e.held || time.Since(e.since) < l.cfg.StaleAfter {
		return false
	}
	l.logger.Warn("force-releasing stale lock", "key", key, "held_for", time.Since(e.since).String())
	l.handOffLocked(key, e)
	return true
}

func (l *Locker) handOffLocked(key string, e *entry) {
	if len(e.waiters) == 0 {
		e.held = false
		l.reapLocked(key, e)
		return
	}
	next := e.waiters[0]
	e.waiters = e.waiters[1:]
	gen := l.grantLocked(e)
	if l.cfg.HandoffDelay <= 0 {
		next.ready <- gen
		return
	}
	time.AfterFunc(l.cfg.HandoffDelay, func() { next.ready <- gen })
}

func (l *Locker) grantLocked(e *entry) uint64 {
	l.gen++
	e.held = true
	e.gen = l.gen
	e.since = time.Now()
	return e.gen
}

func (l *Locker) reapLocked(key string, e *entry) {
	if !e.held && len(e.waiters) == 0 {
		delete(l.entries, key)
	}
}

func (l *Locker) notifyStale(key string, stale bool) {
	if stale && l.cfg.OnStale != nil {
		l.cfg.OnStale(key)
	}
}
