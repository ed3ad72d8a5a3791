package classify_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quadrant/pkg/classify"
	"github.com/aretw0/quadrant/pkg/core"
	"github.com/aretw0/quadrant/pkg/dates"
)

// Wednesday.
var now = time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)

func newEngine() *classify.Engine {
	return classify.New(classify.Config{
		Dates: dates.NewParser(
			dates.WithLocation(time.UTC),
			dates.WithClock(func() time.Time { return now }),
		),
		TaskDates: dates.NewTaskDates(dates.TaskDateCacheSize),
	})
}

func note(path, status, due string) core.Note {
	props := core.Properties{}
	if status != "" {
		props["eisenhower_status"] = status
	}
	if due != "" {
		props["due_date"] = due
	}
	return core.Note{Path: path, Name: path, Properties: props}
}

func task(file string, line int, text string, tags ...string) core.Task {
	if tags == nil {
		tags = []string{}
	}
	return core.Task{File: file, Line: line, Text: text, Tags: tags}
}

func paths(notes []core.Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.Path
	}
	return out
}

func texts(tasks []core.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Text
	}
	return out
}

func TestClassify_Scenarios(t *testing.T) {
	e := newEngine()
	cfg := core.DefaultConfig()

	t.Run("Note Property Rule", func(t *testing.T) {
		notes := []core.Note{
			note("a", "urgent_important", ""),
			note("b", "not_urgent_important", ""),
		}
		res := e.Classify(notes, nil, cfg)

		assert.Equal(t, []string{"a"}, paths(res["doFirst"].Notes))
		assert.Equal(t, []string{"b"}, paths(res["schedule"].Notes))
		assert.Empty(t, res["delegate"].Notes)
	})

	t.Run("Wrapped Property Values", func(t *testing.T) {
		n := core.Note{Path: "w", Name: "w", Properties: core.Properties{
			"eisenhower_status": map[string]any{"value": "urgent_important", "raw": "urgent_important"},
		}}
		res := e.Classify([]core.Note{n}, nil, cfg)
		assert.Len(t, res["doFirst"].Notes, 1)
	})

	t.Run("Task Tag Rule", func(t *testing.T) {
		tk := task("todo.md", 0, "Finish report #urgent-important 2024-12-25", "#urgent-important")
		res := e.Classify(nil, []core.Task{tk}, cfg)

		require.Len(t, res["doFirst"].Tasks, 1)
		got := res["doFirst"].Tasks[0]
		assert.Equal(t, "2024-12-25", e.TaskDate(got))
		assert.Equal(t, "Finish report", dates.CleanTaskText(got.Text))
		assert.Empty(t, res["schedule"].Tasks)
	})

	t.Run("Tag Match Is Case Sensitive", func(t *testing.T) {
		tk := task("todo.md", 1, "Shout #URGENT-IMPORTANT", "#URGENT-IMPORTANT")
		res := e.Classify(nil, []core.Task{tk}, cfg)
		assert.Empty(t, res["doFirst"].Tasks)
	})

	t.Run("Every Section Present", func(t *testing.T) {
		res := e.Classify(nil, nil, cfg)
		assert.Equal(t, []string{"doFirst", "schedule", "delegate", "eliminate"}, res.Keys())
		for _, k := range res.Keys() {
			assert.NotNil(t, res[k].Notes)
			assert.NotNil(t, res[k].Tasks)
			assert.Equal(t, k, res[k].Category.Key)
		}
	})
}

func TestClassify_Cap(t *testing.T) {
	e := newEngine()
	cfg := core.DefaultConfig()
	cfg.Display.MaxItemsPerSection = 10

	var notes []core.Note
	for i := range 15 {
		notes = append(notes, note(fmt.Sprintf("n%02d", i), "urgent_important", ""))
	}
	var tasks []core.Task
	for i := range 5 {
		tasks = append(tasks, task("t.md", i, fmt.Sprintf("t%d", i), "#urgent-important"))
	}

	res := e.Classify(notes, tasks, cfg)
	s := res["doFirst"]
	assert.Len(t, s.Notes, 8)
	assert.Len(t, s.Tasks, 2)
	assert.Equal(t, "n00", s.Notes[0].Path, "stable order is kept before truncation")

	t.Run("Zero Disables", func(t *testing.T) {
		cfg := cfg.Clone()
		cfg.Display.MaxItemsPerSection = 0
		res := e.Classify(notes, tasks, cfg)
		assert.Equal(t, 20, res["doFirst"].Len())
	})
}

func TestClassify_Idempotent(t *testing.T) {
	e := newEngine()
	cfg := core.DefaultConfig()
	cfg.Display.SortBy = core.SortDate

	notes := []core.Note{
		note("late", "urgent_important", "2024-06-01"),
		note("none", "urgent_important", ""),
		note("soon", "urgent_important", "2024-06-20"),
	}
	tasks := []core.Task{
		task("t.md", 0, "b 2024-06-30 #schedule", "#schedule"),
		task("t.md", 1, "a 2024-06-01 #schedule", "#schedule"),
	}

	first := e.Classify(notes, tasks, cfg)
	second := e.Classify(notes, tasks, cfg)
	assert.Equal(t, first, second)
}

func TestClassify_OverlappingRules(t *testing.T) {
	e := newEngine()
	cfg := core.DefaultConfig()
	s := cfg.Sections["schedule"]
	s.PropertyRule.PropertyValue = "urgent_important"
	s.TaskRule.TagName = "urgent-important"
	cfg.Sections["schedule"] = s

	res := e.Classify(
		[]core.Note{note("a", "urgent_important", "")},
		[]core.Task{task("t.md", 0, "x", "#urgent-important")},
		cfg,
	)

	// Both categories claim the same items.
	assert.Len(t, res["doFirst"].Notes, 1)
	assert.Len(t, res["schedule"].Notes, 1)
	assert.Len(t, res["doFirst"].Tasks, 1)
	assert.Len(t, res["schedule"].Tasks, 1)
}

func TestClassify_MalformedRule(t *testing.T) {
	e := newEngine()
	cfg := core.DefaultConfig()
	s := cfg.Sections["doFirst"]
	s.PropertyRule.PropertyName = ""
	cfg.Sections["doFirst"] = s

	res := e.Classify(
		[]core.Note{note("a", "urgent_important", ""), note("b", "not_urgent_important", "")},
		[]core.Task{task("t.md", 0, "x", "#urgent-important")},
		cfg,
	)

	assert.Empty(t, res["doFirst"].Notes)
	assert.Len(t, res["doFirst"].Tasks, 1, "the other kind of the same section is unaffected")
	assert.Len(t, res["schedule"].Notes, 1, "other sections are unaffected")
}

func TestClassify_Filters(t *testing.T) {
	e := newEngine()

	notes := []core.Note{
		note("overdue", "urgent_important", "2024-06-01"),
		note("today", "urgent_important", "2024-06-12"),
		note("week", "urgent_important", "2024-06-15"),
		note("later", "urgent_important", "2024-07-15"),
		note("undated", "urgent_important", ""),
	}
	done := task("t.md", 0, "done 2024-06-01", "#urgent-important")
	done.Completed = true
	tasks := []core.Task{
		done,
		task("t.md", 1, "open today 2024-06-12", "#urgent-important"),
		task("t.md", 2, "open someday", "#urgent-important"),
	}

	cases := []struct {
		filter    string
		wantNotes []string
		wantTasks []string
	}{
		{core.FilterAll, []string{"overdue", "today", "week", "later", "undated"}, []string{"done 2024-06-01", "open today 2024-06-12", "open someday"}},
		{core.FilterOverdue, []string{"overdue"}, []string{"done 2024-06-01"}},
		{core.FilterToday, []string{"today"}, []string{"open today 2024-06-12"}},
		{core.FilterWeek, []string{"today", "week"}, []string{"open today 2024-06-12"}},
		{core.FilterCompleted, []string{"overdue", "today", "week", "later", "undated"}, []string{"done 2024-06-01"}},
		{core.FilterPending, []string{"overdue", "today", "week", "later", "undated"}, []string{"open today 2024-06-12", "open someday"}},
	}

	for _, tc := range cases {
		t.Run(tc.filter, func(t *testing.T) {
			cfg := core.DefaultConfig()
			cfg.Display.FilterBy = tc.filter
			cfg.Display.SortBy = "modified" // falls back to priority
			res := e.Classify(notes, tasks, cfg)

			assert.Equal(t, tc.wantNotes, paths(res["doFirst"].Notes))
			assert.Equal(t, tc.wantTasks, texts(res["doFirst"].Tasks))
		})
	}

	t.Run("Hide Completed", func(t *testing.T) {
		cfg := core.DefaultConfig()
		cfg.Display.ShowCompleted = false
		res := e.Classify(nil, tasks, cfg)
		assert.Equal(t, []string{"open today 2024-06-12", "open someday"}, texts(res["doFirst"].Tasks))
	})

	t.Run("Search", func(t *testing.T) {
		cfg := core.DefaultConfig()
		cfg.UI.SearchQuery = "TOD"
		res := e.Classify(notes, tasks, cfg)
		assert.Equal(t, []string{"today"}, paths(res["doFirst"].Notes))
		assert.Equal(t, []string{"open today 2024-06-12"}, texts(res["doFirst"].Tasks))
	})

	t.Run("Display Flags", func(t *testing.T) {
		cfg := core.DefaultConfig()
		cfg.Display.ShowNotes = false
		cfg.Display.ShowTasks = false
		res := e.Classify(notes, tasks, cfg)
		assert.Zero(t, res["doFirst"].Len())
	})
}

func TestClassify_Sort(t *testing.T) {
	e := newEngine()
	notes := []core.Note{
		note("b-later", "urgent_important", "2024-07-01"),
		note("a-undated", "urgent_important", ""),
		note("c-overdue", "urgent_important", "2024-06-01"),
		note("d-bogus", "urgent_important", "someday"),
		note("e-early", "urgent_important", "2024-06-13"),
	}

	t.Run("Priority", func(t *testing.T) {
		cfg := core.DefaultConfig()
		res := e.Classify(notes, nil, cfg)
		assert.Equal(t, []string{"c-overdue", "b-later", "a-undated", "d-bogus", "e-early"}, paths(res["doFirst"].Notes))
	})

	t.Run("Date", func(t *testing.T) {
		cfg := core.DefaultConfig()
		cfg.Display.SortBy = core.SortDate
		res := e.Classify(notes, nil, cfg)
		assert.Equal(t, []string{"c-overdue", "e-early", "b-later", "a-undated", "d-bogus"}, paths(res["doFirst"].Notes))
	})

	t.Run("Name", func(t *testing.T) {
		cfg := core.DefaultConfig()
		cfg.Display.SortBy = core.SortName
		tasks := []core.Task{
			task("t.md", 0, "Zebra", "#schedule"),
			task("t.md", 1, "apple", "#schedule"),
			task("t.md", 2, "Émile", "#schedule"),
		}
		res := e.Classify(notes, tasks, cfg)
		assert.Equal(t, []string{"a-undated", "b-later", "c-overdue", "d-bogus", "e-early"}, paths(res["doFirst"].Notes))
		assert.Equal(t, []string{"apple", "Émile", "Zebra"}, texts(res["schedule"].Tasks))
	})
}
