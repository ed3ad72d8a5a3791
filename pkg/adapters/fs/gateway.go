package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/quadrant/pkg/core"
	"github.com/aretw0/quadrant/pkg/keylock"
)

// DefaultHandoffDelay is the pause between two queued mutations of the same
// file, giving file watchers and editors time to observe each write.
const DefaultHandoffDelay = 50 * time.Millisecond

// GatewayConfig configures a Gateway.
type GatewayConfig struct {
	// StaleAfter force-releases a file lock held longer than this.
	// Zero means keylock.DefaultStaleAfter.
	StaleAfter time.Duration
	// HandoffDelay between queued mutations of one file. Zero means
	// DefaultHandoffDelay; negative disables it.
	HandoffDelay time.Duration
	// Clock stamps completion dates. Defaults to time.Now.
	Clock func() time.Time
}

// Gateway applies category changes to vault files. It implements
// core.Gateway: every mutation of a file runs under that file's FIFO lock
// as one read-modify-write, and lands through an atomic rename.
type Gateway struct {
	vault  *Vault
	locks  *keylock.Locker
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	applied   int64
	failed    int64
	lastError string
	lastWrite *time.Time
}

var _ core.Gateway = (*Gateway)(nil)

// NewGateway creates a gateway writing into vault.
func NewGateway(vault *Vault, config GatewayConfig) *Gateway {
	switch {
	case config.HandoffDelay == 0:
		config.HandoffDelay = DefaultHandoffDelay
	case config.HandoffDelay < 0:
		config.HandoffDelay = 0
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	logger := vault.logger.With("component", "gateway")

	return &Gateway{
		vault:  vault,
		logger: logger,
		now:    config.Clock,
		locks: keylock.New(keylock.Config{
			StaleAfter:   config.StaleAfter,
			HandoffDelay: config.HandoffDelay,
			Logger:       logger,
			OnStale:      func(string) { staleLockTotal.Inc() },
			OnWait: func(_ string, waited time.Duration) {
				lockWaitDuration.Observe(waited.Seconds())
			},
		}),
	}
}

// SetNoteProperty sets a frontmatter property, creating the frontmatter
// block when the note has none.
func (g *Gateway) SetNoteProperty(ctx context.Context, notePath, name, value string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("property name is empty")
	}
	return g.mutate(ctx, "set_property", notePath, func(data []byte) ([]byte, error) {
		doc, err := parseDocument(data)
		if err != nil {
			return nil, err
		}
		doc.Set(name, value)
		return doc.Bytes()
	})
}

// ClearNoteProperties removes the named frontmatter properties. A note
// left without properties loses its frontmatter block.
func (g *Gateway) ClearNoteProperties(ctx context.Context, notePath string, names []string) error {
	return g.mutate(ctx, "clear_properties", notePath, func(data []byte) ([]byte, error) {
		doc, err := parseDocument(data)
		if err != nil {
			return nil, err
		}
		if !doc.Delete(names...) {
			return data, nil
		}
		return doc.Bytes()
	})
}

// SetTaskTag strips every known category tag from the task line and
// appends newTag.
func (g *Gateway) SetTaskTag(ctx context.Context, loc core.TaskLocation, newTag string, knownTags []string) error {
	if strings.TrimPrefix(strings.TrimSpace(newTag), "#") == "" {
		return errors.New("tag name is empty")
	}
	return g.mutate(ctx, "set_tag", loc.File, func(data []byte) ([]byte, error) {
		return g.editTask(data, loc, func(t parsedTask) (string, string) {
			return t.Status, retag(t.Text, knownTags, strings.TrimSpace(newTag))
		})
	})
}

// ToggleTaskCompletion sets the checkbox of the task line. Completing a
// task stamps "✅ YYYY-MM-DD"; reopening it removes the stamp.
func (g *Gateway) ToggleTaskCompletion(ctx context.Context, loc core.TaskLocation, completed bool) error {
	return g.mutate(ctx, "toggle_task", loc.File, func(data []byte) ([]byte, error) {
		return g.editTask(data, loc, func(t parsedTask) (string, string) {
			status := " "
			if completed {
				status = "x"
			}
			return status, setDoneStamp(t.Text, completed, g.now().In(g.vault.config.Location))
		})
	})
}

// editTask rewrites the checklist line addressed by loc.
func (g *Gateway) editTask(data []byte, loc core.TaskLocation, edit func(parsedTask) (status, text string)) ([]byte, error) {
	t, ok := locateTask(parseTasks(data, g.vault.config.Location), loc)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrTaskNotFound, loc)
	}
	lines := strings.Split(string(data), "\n")
	status, text := edit(t)
	lines[t.Line] = rewriteTaskLine(lines[t.Line], status, text)
	return []byte(strings.Join(lines, "\n")), nil
}

// locateTask finds the task at loc.Line if its text still contains
// loc.Text, otherwise the first task whose text contains loc.Text.
func locateTask(tasks []parsedTask, loc core.TaskLocation) (parsedTask, bool) {
	for _, t := range tasks {
		if t.Line == loc.Line && strings.Contains(t.Text, loc.Text) {
			return t, true
		}
	}
	if loc.Text == "" {
		return parsedTask{}, false
	}
	for _, t := range tasks {
		if strings.Contains(t.Text, loc.Text) {
			return t, true
		}
	}
	return parsedTask{}, false
}

// mutate runs edit as one locked read-modify-write of notePath.
func (g *Gateway) mutate(ctx context.Context, op, notePath string, edit func([]byte) ([]byte, error)) (err error) {
	logger := g.logger.With("op", op, "path", notePath, "request_id", uuid.NewString())
	defer func() {
		mutationTotal.WithLabelValues(op, resultLabel(err)).Inc()
		g.record(err)
		if err != nil {
			logger.Error("mutation failed", "error", err)
		}
	}()

	if g.vault.config.ReadOnly {
		return core.ErrReadOnly
	}
	abs, rel, err := g.vault.resolve(notePath)
	if err != nil {
		return err
	}

	unlock, err := g.locks.Lock(ctx, rel)
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", rel, err)
	}
	defer unlock()

	start := time.Now()
	defer func() { mutationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds()) }()

	data, err := os.ReadFile(abs)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", core.ErrNoteNotFound, rel)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", rel, err)
	}

	out, err := edit(data)
	if err != nil {
		return fmt.Errorf("failed to edit %s: %w", rel, err)
	}
	if bytes.Equal(out, data) {
		logger.Debug("mutation left file unchanged")
		return nil
	}

	if err := writeFileAtomic(abs, out, fileMode(abs)); err != nil {
		return err
	}
	g.vault.invalidate(rel)
	logger.Debug("mutation applied")

	if g.vault.git != nil {
		msg := fmt.Sprintf("quadrant: %s %s", op, rel)
		if reason, ok := ctx.Value(core.ChangeReasonKey).(string); ok && reason != "" {
			msg = reason
		}
		// The edit is on disk either way; a failed commit is reported but
		// does not fail the mutation.
		if cErr := g.vault.git.CommitFiles(ctx, msg, rel); cErr != nil {
			logger.Warn("failed to commit mutation", "error", cErr)
		}
	}
	return nil
}

func (g *Gateway) record(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.failed++
		g.lastError = err.Error()
		return
	}
	g.applied++
	now := time.Now()
	g.lastWrite = &now
}
