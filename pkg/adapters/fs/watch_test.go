package fs_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quadrant/pkg/adapters/fs"
	"github.com/aretw0/quadrant/pkg/core"
)

func waitForEvent(t *testing.T, events <-chan core.Event, path string) core.Event {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case e, ok := <-events:
			require.True(t, ok, "events channel closed early")
			if e.Path == path {
				return e
			}
		case <-timeout:
			t.Fatalf("timed out waiting for event on %s", path)
		}
	}
}

func TestVault_Watch(t *testing.T) {
	vault, path := setupVault(t, map[string]string{"existing.md": "- [ ] one\n"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := vault.Watch(ctx)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return vault.State().(fs.VaultState).WatcherActive
	}, time.Second, 10*time.Millisecond)

	t.Run("Create", func(t *testing.T) {
		writeFile(t, path, "new.md", "- [ ] fresh\n")
		e := waitForEvent(t, events, "new.md")
		assert.Equal(t, core.EventCreate, e.Type, "create and the following write coalesce")
	})

	t.Run("Modify", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(path, "existing.md"), []byte("- [x] one\n"), 0644))
		e := waitForEvent(t, events, "existing.md")
		assert.Equal(t, core.EventModify, e.Type)
	})

	t.Run("New Folder Is Watched", func(t *testing.T) {
		require.NoError(t, os.MkdirAll(filepath.Join(path, "inbox"), 0755))
		// Give the watcher a moment to register the new folder.
		time.Sleep(100 * time.Millisecond)
		writeFile(t, path, "inbox/later.md", "- [ ] later\n")
		waitForEvent(t, events, "inbox/later.md")
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, os.Remove(filepath.Join(path, "new.md")))
		e := waitForEvent(t, events, "new.md")
		assert.Equal(t, core.EventDelete, e.Type)
	})

	t.Run("Closes On Cancel", func(t *testing.T) {
		cancel()
		require.Eventually(t, func() bool {
			select {
			case _, ok := <-events:
				return !ok
			default:
				return false
			}
		}, 3*time.Second, 10*time.Millisecond)
		assert.False(t, vault.State().(fs.VaultState).WatcherActive)
	})
}

// A burst larger than the channel buffer leaves callbacks blocked on send;
// cancelling must still close the channel once they are released.
func TestVault_WatchShutdownWithBlockedSends(t *testing.T) {
	vault, path := setupVault(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := vault.Watch(ctx)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return vault.State().(fs.VaultState).WatcherActive
	}, time.Second, 10*time.Millisecond)

	for i := range 100 {
		writeFile(t, path, fmt.Sprintf("burst-%03d.md", i), "- [ ] item\n")
	}
	time.Sleep(300 * time.Millisecond)
	cancel()

	closed := make(chan struct{})
	go func() {
		for range events {
		}
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(3 * time.Second):
		t.Fatal("events channel not closed after cancel")
	}
	assert.False(t, vault.State().(fs.VaultState).WatcherActive)
}

func TestVault_WatchIgnoresSystemFiles(t *testing.T) {
	vault, path := setupVault(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := vault.Watch(ctx)
	require.NoError(t, err)

	writeFile(t, path, "readme.txt", "plain")
	// The index lives in the system dir; listing writes it.
	_, err = vault.ListNotes(ctx, nil)
	require.NoError(t, err)
	writeFile(t, path, "marker.md", "- [ ] marker\n")

	e := waitForEvent(t, events, "marker.md")
	assert.Equal(t, "marker.md", e.Path)

	select {
	case extra := <-events:
		t.Fatalf("unexpected event %s", extra)
	case <-time.After(150 * time.Millisecond):
	}
}
