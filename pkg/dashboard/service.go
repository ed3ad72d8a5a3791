// Package dashboard wires the item source, the engines, the configuration
// store and the mutation gateway into the operations a presentation layer
// needs: pure queries (Board, Stats, Unassigned) and mutation commands.
//
// Queries always re-list items; mutations never patch an in-memory view.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/quadrant/pkg/classify"
	"github.com/aretw0/quadrant/pkg/core"
	"github.com/aretw0/quadrant/pkg/stats"
)

// DefaultBulkConcurrency bounds the parallel mutations of a bulk move.
const DefaultBulkConcurrency = 4

// Config holds the collaborators of a Service.
type Config struct {
	Source  core.ItemSource
	Store   core.ConfigStore
	Gateway core.Gateway

	// Classifier and Stats default to engines sharing one date parser.
	Classifier *classify.Engine
	Stats      *stats.Engine

	Logger *slog.Logger
	Clock  func() time.Time

	BulkConcurrency int
}

// Service is the dashboard facade. It is safe for concurrent use.
type Service struct {
	source     core.ItemSource
	store      core.ConfigStore
	gateway    core.Gateway
	classifier *classify.Engine
	stats      *stats.Engine
	logger     *slog.Logger
	now        func() time.Time
	bulk       int

	// update serializes read-modify-save cycles of the configuration.
	update sync.Mutex

	mu          sync.RWMutex
	config      core.Config
	search      string
	taskPrint   uint64
	lastRefresh *time.Time
	lastItems   int
}

// New creates a Service starting from core.DefaultConfig; call Load to read
// the stored configuration.
func New(config Config) *Service {
	s := &Service{
		source:     config.Source,
		store:      config.Store,
		gateway:    config.Gateway,
		classifier: config.Classifier,
		stats:      config.Stats,
		logger:     config.Logger,
		now:        config.Clock,
		bulk:       config.BulkConcurrency,
		config:     core.DefaultConfig(),
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.bulk <= 0 {
		s.bulk = DefaultBulkConcurrency
	}
	if s.classifier == nil {
		s.classifier = classify.New(classify.Config{Logger: s.logger})
	}
	if s.stats == nil {
		s.stats = stats.New(stats.Config{
			Dates:     s.classifier.Dates(),
			TaskDates: s.classifier.TaskDates(),
		})
	}
	return s
}

// Load reads the stored configuration. On failure the current
// configuration is kept and the error is returned for the caller to report.
func (s *Service) Load(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	cfg, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to load configuration, keeping current", "error", err)
		return err
	}
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
	return nil
}

// Config returns a copy of the current configuration.
func (s *Service) Config() core.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := s.config.Clone()
	cfg.UI.SearchQuery = s.search
	return cfg
}

// SetSearch sets the transient board search query. It is never persisted.
func (s *Service) SetSearch(query string) {
	s.mu.Lock()
	s.search = query
	s.mu.Unlock()
}

// Board is a classified view of the vault.
type Board struct {
	Config   core.Config
	Sections classify.Result
}

// Keys returns the category keys in grid order.
func (b Board) Keys() []string {
	return b.Sections.Keys()
}

// Board lists every item and classifies it under the current configuration.
func (s *Service) Board(ctx context.Context) (Board, error) {
	cfg := s.Config()
	notes, tasks, err := s.list(ctx, cfg)
	if err != nil {
		return Board{}, err
	}
	return Board{Config: cfg, Sections: s.classifier.Classify(notes, tasks, cfg)}, nil
}

// Stats classifies the vault and computes its statistics.
func (s *Service) Stats(ctx context.Context) (stats.Snapshot, error) {
	_, snap, err := s.Snapshot(ctx)
	return snap, err
}

// Snapshot returns the board and its statistics from a single listing.
func (s *Service) Snapshot(ctx context.Context) (Board, stats.Snapshot, error) {
	board, err := s.Board(ctx)
	if err != nil {
		return Board{}, stats.Snapshot{}, err
	}
	return board, s.stats.Compute(board.Sections, board.Config), nil
}

// Unassigned lists the items no enabled rule claims.
func (s *Service) Unassigned(ctx context.Context, f classify.InboxFilter) (classify.Inbox, error) {
	cfg := s.Config()
	notes, tasks, err := s.list(ctx, cfg)
	if err != nil {
		return classify.Inbox{}, err
	}
	return s.classifier.Unassigned(notes, tasks, cfg, f), nil
}

// list re-reads the items, resetting the task date cache when the task
// collection changed since the previous listing.
func (s *Service) list(ctx context.Context, cfg core.Config) ([]core.Note, []core.Task, error) {
	if s.source == nil {
		return nil, nil, errors.New("no item source configured")
	}
	notes, err := s.source.ListNotes(ctx, cfg.ExcludedFolders)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list notes: %w", err)
	}
	tasks, err := s.source.ListTasks(ctx, cfg.ExcludedFolders)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	fp := fingerprint(tasks)
	now := s.now()
	s.mu.Lock()
	changed := fp != s.taskPrint
	s.taskPrint = fp
	s.lastRefresh = &now
	s.lastItems = len(notes) + len(tasks)
	s.mu.Unlock()

	if changed {
		s.classifier.TaskDates().Reset()
	}
	s.logger.Debug("items listed", "notes", len(notes), "tasks", len(tasks), "task_dates_reset", changed)
	return notes, tasks, nil
}

func fingerprint(tasks []core.Task) uint64 {
	h := fnv.New64a()
	for _, t := range tasks {
		fmt.Fprintf(h, "%s\x00%d\x00%s\x00", t.File, t.Line, t.Text)
	}
	return h.Sum64()
}

// MoveNote assigns the note to a category by setting the category's
// frontmatter property.
func (s *Service) MoveNote(ctx context.Context, notePath, key string) error {
	cat, err := s.category(key)
	if err != nil {
		return err
	}
	return s.moveNote(ctx, notePath, cat)
}

func (s *Service) moveNote(ctx context.Context, notePath string, cat core.Category) error {
	rule := cat.PropertyRule
	if rule.PropertyName == "" {
		return fmt.Errorf("%w: %s has no property name", core.ErrMalformedRule, cat.Key)
	}
	if err := s.gateway.SetNoteProperty(ctx, notePath, rule.PropertyName, rule.PropertyValue); err != nil {
		return err
	}
	s.logger.Info("note moved", "path", notePath, "category", cat.Key)
	return nil
}

// MoveTask assigns the task to a category by replacing its category tag.
func (s *Service) MoveTask(ctx context.Context, loc core.TaskLocation, key string) error {
	cat, err := s.category(key)
	if err != nil {
		return err
	}
	return s.moveTask(ctx, loc, cat, s.Config().KnownTags())
}

func (s *Service) moveTask(ctx context.Context, loc core.TaskLocation, cat core.Category, known []string) error {
	tag := cat.TaskRule.TagName
	if tag == "" {
		return fmt.Errorf("%w: %s has no tag name", core.ErrMalformedRule, cat.Key)
	}
	if err := s.gateway.SetTaskTag(ctx, loc, tag, known); err != nil {
		return err
	}
	s.logger.Info("task moved", "task", loc.String(), "category", cat.Key)
	return nil
}

// Selection names the items of a bulk operation.
type Selection struct {
	Notes []string
	Tasks []core.TaskLocation
}

// Len returns the number of selected items.
func (sel Selection) Len() int {
	return len(sel.Notes) + len(sel.Tasks)
}

// BulkMove moves every selected item to the category. Items are moved in
// parallel; the gateway keeps edits of one file in order. It returns the
// number of items moved and every failure joined.
func (s *Service) BulkMove(ctx context.Context, sel Selection, key string) (int, error) {
	cat, err := s.category(key)
	if err != nil {
		return 0, err
	}
	known := s.Config().KnownTags()

	var (
		mu    sync.Mutex
		moved int
		errs  []error
	)
	done := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = append(errs, err)
			return
		}
		moved++
	}

	var g errgroup.Group
	g.SetLimit(s.bulk)
	for _, path := range sel.Notes {
		g.Go(func() error {
			done(s.moveNote(ctx, path, cat))
			return nil
		})
	}
	for _, loc := range sel.Tasks {
		g.Go(func() error {
			done(s.moveTask(ctx, loc, cat, known))
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("bulk move finished", "category", key, "moved", moved, "failed", len(errs))
	return moved, errors.Join(errs...)
}

// ToggleTask sets the completion state of a task.
func (s *Service) ToggleTask(ctx context.Context, loc core.TaskLocation, completed bool) error {
	return s.gateway.ToggleTaskCompletion(ctx, loc, completed)
}

// Unassign removes the scheduling properties and every category property
// from a note.
func (s *Service) Unassign(ctx context.Context, notePath string) error {
	return s.gateway.ClearNoteProperties(ctx, notePath, s.Config().AssignmentProperties())
}

// AddCategory creates a category named name and returns its key.
func (s *Service) AddCategory(ctx context.Context, name string) (string, error) {
	var key string
	err := s.UpdateConfig(ctx, func(cfg *core.Config) error {
		var err error
		key, err = cfg.AddCategory(name, s.now())
		return err
	})
	return key, err
}

// RemoveCategory deletes a category; the last one cannot be removed.
func (s *Service) RemoveCategory(ctx context.Context, key string) error {
	return s.UpdateConfig(ctx, func(cfg *core.Config) error {
		return cfg.RemoveCategory(key)
	})
}

// SetCategoryPosition moves a category on the grid.
func (s *Service) SetCategoryPosition(ctx context.Context, key string, row, col int) error {
	return s.UpdateConfig(ctx, func(cfg *core.Config) error {
		return cfg.SetCategoryPosition(key, row, col)
	})
}

// UpdateConfig applies fn to a copy of the configuration, validates and
// saves it, then makes it current. Nothing changes when any step fails.
func (s *Service) UpdateConfig(ctx context.Context, fn func(*core.Config) error) error {
	s.update.Lock()
	defer s.update.Unlock()

	s.mu.RLock()
	cfg := s.config.Clone()
	s.mu.RUnlock()

	if err := fn(&cfg); err != nil {
		return err
	}
	cfg.UI.SearchQuery = ""
	if err := cfg.Validate(); err != nil {
		return err
	}
	if s.store != nil {
		if err := s.store.Save(ctx, cfg); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}
	}

	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
	return nil
}

// Watch relays change events of a watchable source. Every event resets
// the task date cache so the next Board re-derives task dates.
func (s *Service) Watch(ctx context.Context) (<-chan core.Event, error) {
	w, ok := s.source.(core.Watchable)
	if !ok {
		return nil, core.ErrNotWatchable
	}
	in, err := w.Watch(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan core.Event)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-in:
				if !ok {
					return nil
				}
				s.classifier.TaskDates().Reset()
				s.logger.Debug("vault changed", "event", e.String())
				select {
				case out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("watch relay failed", "error", err)
	}))
	return out, nil
}

func (s *Service) category(key string) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cat, ok := s.config.Section(strings.TrimSpace(key))
	if !ok {
		return core.Category{}, fmt.Errorf("%w: %s", core.ErrUnknownCategory, key)
	}
	return cat, nil
}
