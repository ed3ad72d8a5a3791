package fs

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/quadrant/pkg/core"
)

// DebounceDelay is how long a path must stay quiet before its change is
// emitted.
const DebounceDelay = 50 * time.Millisecond

// Watch emits a core.Event for every created, modified or deleted Markdown
// file until ctx is done. The returned channel is closed when watching stops.
func (v *Vault) Watch(ctx context.Context) (<-chan core.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := v.recursiveAdd(watcher, v.Path); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	events := make(chan core.Event, 64)
	deb := newDebouncer(DebounceDelay)
	v.setWatcherActive(true)

	lifecycle.Go(ctx, func(ctx context.Context) (err error) {
		// Deferred in reverse: the debouncer drains before events closes.
		defer close(events)
		defer v.setWatcherActive(false)
		defer watcher.Close()

		done := make(chan struct{})
		defer deb.stop()
		defer close(done)

		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("watcher panic: %v", r)
				if v.logger.Enabled(ctx, slog.LevelDebug) {
					v.logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
				} else {
					v.logger.Error("watcher panic", "error", err)
				}
			}
		}()

		send := func(e core.Event) {
			select {
			case events <- e:
			case <-done:
			}
		}
		return v.watchLoop(ctx, watcher, deb, send)
	}, lifecycle.WithErrorHandler(v.handleError))

	v.logger.Debug("watching vault", "path", v.Path)
	return events, nil
}

func (v *Vault) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, deb *debouncer, send func(core.Event)) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			if e, ok := v.translate(watcher, event); ok {
				deb.add(e, send)
			}

		case wErr, ok := <-watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			v.logger.Error("fsnotify error", "error", wErr)
			v.handleError(wErr)
		}
	}
}

// translate maps an fsnotify event to a vault event. New directories are
// added to the watch list and produce no event of their own.
func (v *Vault) translate(watcher *fsnotify.Watcher, event fsnotify.Event) (core.Event, bool) {
	rel, err := filepath.Rel(v.Path, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return core.Event{}, false
	}
	rel = filepath.ToSlash(rel)
	if v.ignored(rel) {
		return core.Event{}, false
	}

	if event.Has(fsnotify.Create) && isDir(event.Name) {
		if err := v.recursiveAdd(watcher, event.Name); err != nil {
			v.logger.Warn("failed to watch new folder", "path", rel, "error", err)
		}
		return core.Event{}, false
	}
	if !isMarkdown(rel) || isTempFile(rel) {
		return core.Event{}, false
	}

	var t core.EventType
	switch {
	case event.Has(fsnotify.Create):
		t = core.EventCreate
	case event.Has(fsnotify.Write):
		t = core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		t = core.EventDelete
	default:
		return core.Event{}, false
	}

	v.logger.Debug("event received", "type", t, "path", rel)
	return core.Event{Type: t, Path: rel, Timestamp: time.Now().Unix()}, true
}

// ignored reports whether rel lives under the system directory or .git.
func (v *Vault) ignored(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if v.skipDir(part) {
			return true
		}
	}
	return false
}

func (v *Vault) recursiveAdd(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != v.Path && v.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (v *Vault) handleError(err error) {
	if v.config.ErrorHandler != nil {
		v.config.ErrorHandler(err)
	}
}

func (v *Vault) setWatcherActive(active bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.watcherActive = active
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
