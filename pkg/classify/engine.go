// Package classify sorts notes and tasks into the configured categories.
//
// Classify is a pure function of its inputs: the same items and config
// always produce the same Result. Each category is matched independently,
// so overlapping rules let one item appear in several categories.
package classify

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/aretw0/quadrant/pkg/core"
	"github.com/aretw0/quadrant/pkg/dates"
	"github.com/aretw0/quadrant/pkg/fields"
)

// Section is the classified content of one category.
type Section struct {
	Category core.Category
	Notes    []core.Note
	Tasks    []core.Task
}

// Len returns the number of notes and tasks in the section.
func (s Section) Len() int {
	return len(s.Notes) + len(s.Tasks)
}

// Result maps category keys to their classified sections.
type Result map[string]Section

// Keys returns the category keys in grid order (row, col, key).
func (r Result) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := r[keys[i]].Category.Position, r[keys[j]].Category.Position
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		if a.Col != b.Col {
			return a.Col < b.Col
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Config holds the collaborators of an Engine.
type Config struct {
	Dates     *dates.Parser
	TaskDates *dates.TaskDates
	Logger    *slog.Logger
}

// Engine classifies items. It is safe for concurrent use.
type Engine struct {
	dates     *dates.Parser
	taskDates *dates.TaskDates
	logger    *slog.Logger
}

// New creates an Engine. Missing collaborators get fresh defaults.
func New(config Config) *Engine {
	e := &Engine{
		dates:     config.Dates,
		taskDates: config.TaskDates,
		logger:    config.Logger,
	}
	if e.dates == nil {
		e.dates = dates.NewParser()
	}
	if e.taskDates == nil {
		e.taskDates = dates.NewTaskDates(dates.TaskDateCacheSize)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e
}

// Dates returns the parser the engine resolves dates with.
func (e *Engine) Dates() *dates.Parser { return e.dates }

// TaskDates returns the task date extractor the engine uses.
func (e *Engine) TaskDates() *dates.TaskDates { return e.taskDates }

// query captures the per-pass settings derived from the config.
type query struct {
	search   string
	filterBy string
	sortBy   string
	maxItems int
	dateProp string
	display  core.Display
}

func newQuery(cfg core.Config) query {
	filterBy := cfg.Display.FilterBy
	if filterBy == "" {
		filterBy = core.FilterAll
	}
	return query{
		search:   strings.ToLower(cfg.UI.SearchQuery),
		filterBy: filterBy,
		sortBy:   cfg.Display.SortBy,
		maxItems: cfg.Display.MaxItemsPerSection,
		dateProp: cfg.Scheduling.DatePropertyName,
		display:  cfg.Display,
	}
}

// Classify matches notes and tasks against every category of cfg, then
// filters, sorts and caps each category's lists.
//
// A failure while processing one kind of one category is logged and leaves
// that list empty; other lists are unaffected.
func (e *Engine) Classify(notes []core.Note, tasks []core.Task, cfg core.Config) Result {
	q := newQuery(cfg)
	keys := make([]string, 0, len(cfg.Sections))
	for k := range cfg.Sections {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	result := make(Result, len(keys))
	for _, key := range keys {
		cat := cfg.Sections[key]
		cat.Key = key

		var matchedNotes []core.Note
		if q.display.ShowNotes && cat.PropertyRule.Enabled {
			e.guard(key, "notes", func() error {
				var err error
				matchedNotes, err = e.matchNotes(notes, cat.PropertyRule, q)
				return err
			})
		}

		var matchedTasks []core.Task
		if q.display.ShowTasks && cat.TaskRule.Enabled {
			e.guard(key, "tasks", func() error {
				var err error
				matchedTasks, err = e.matchTasks(tasks, cat.TaskRule, q)
				return err
			})
		}

		matchedNotes, matchedTasks = Cap(matchedNotes, matchedTasks, q.maxItems)
		result[key] = Section{
			Category: cat,
			Notes:    orEmpty(matchedNotes),
			Tasks:    orEmpty(matchedTasks),
		}
	}
	return result
}

// guard runs fn, turning both returned errors and panics into a log entry.
func (e *Engine) guard(section, kind string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("classification failed", "section", section, "kind", kind, "panic", r)
		}
	}()
	if err := fn(); err != nil {
		e.logger.Warn("classification failed", "section", section, "kind", kind, "error", err)
	}
}

func (e *Engine) matchNotes(notes []core.Note, rule core.PropertyRule, q query) ([]core.Note, error) {
	if rule.PropertyName == "" {
		return nil, fmt.Errorf("%w: property rule without property name", core.ErrMalformedRule)
	}

	var out []core.Note
	for _, n := range notes {
		if n.Properties == nil {
			continue
		}
		v, ok := fields.ExtractPropertyValue(n.Properties[rule.PropertyName]).(string)
		if !ok || v != rule.PropertyValue {
			continue
		}
		if q.search != "" && !strings.Contains(strings.ToLower(n.Name), q.search) {
			continue
		}
		if !e.keepByDate(e.noteDate(n, q.dateProp), q.filterBy) {
			continue
		}
		out = append(out, n)
	}

	e.sortNotes(out, q)
	return out, nil
}

func (e *Engine) matchTasks(tasks []core.Task, rule core.TaskRule, q query) ([]core.Task, error) {
	if rule.TagName == "" {
		return nil, fmt.Errorf("%w: task rule without tag name", core.ErrMalformedRule)
	}

	var out []core.Task
	for _, t := range tasks {
		if t.Tags == nil {
			continue
		}
		if !q.display.ShowCompleted && t.Completed {
			continue
		}
		if !HasTag(t, rule.TagName) {
			continue
		}
		if q.search != "" && !strings.Contains(strings.ToLower(t.Text), q.search) {
			continue
		}
		switch q.filterBy {
		case core.FilterCompleted:
			if !t.Completed {
				continue
			}
		case core.FilterPending:
			if t.Completed {
				continue
			}
		default:
			if !e.keepByDate(e.TaskDate(t), q.filterBy) {
				continue
			}
		}
		out = append(out, t)
	}

	e.sortTasks(out, q)
	return out, nil
}

// keepByDate applies the date-based advanced filters. Other modes pass.
func (e *Engine) keepByDate(raw, filterBy string) bool {
	switch filterBy {
	case core.FilterOverdue:
		return e.dates.IsOverdue(raw)
	case core.FilterToday:
		return e.dates.IsToday(raw)
	case core.FilterWeek:
		return e.dates.IsThisWeek(raw)
	}
	return true
}

// NoteDate returns the raw due date of a note under the given property name.
func (e *Engine) NoteDate(n core.Note, dateProp string) string {
	return e.noteDate(n, dateProp)
}

func (e *Engine) noteDate(n core.Note, dateProp string) string {
	if n.Properties == nil || dateProp == "" {
		return ""
	}
	return dates.RawString(fields.ExtractPropertyValue(n.Properties[dateProp]))
}

// TaskDate returns the raw due date found in a task's text.
func (e *Engine) TaskDate(t core.Task) string {
	return e.taskDates.Extract(t.Text)
}

// HasTag reports whether the task carries tag (without '#'), comparing
// unwrapped labels exactly.
func HasTag(t core.Task, tag string) bool {
	for _, raw := range t.Tags {
		if fields.ExtractTagLabel(raw) == tag {
			return true
		}
	}
	return false
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
