package classify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/quadrant/pkg/classify"
	"github.com/aretw0/quadrant/pkg/core"
)

func TestUnassigned(t *testing.T) {
	e := newEngine()
	cfg := core.DefaultConfig()

	done := task("work/todo.md", 3, "Archived item", "#misc")
	done.Completed = true

	notes := []core.Note{
		note("work/assigned", "urgent_important", ""),
		note("work/loose", "", ""),
		note("home/other", "unknown_status", ""),
		{Path: "no-frontmatter", Name: "no-frontmatter"},
	}
	tasks := []core.Task{
		task("work/todo.md", 0, "Tagged #schedule", "#schedule"),
		task("work/todo.md", 1, "Untagged chore"),
		task("home/todo.md", 0, "Other tag #errand", "#errand"),
		done,
	}

	t.Run("Unclaimed Items", func(t *testing.T) {
		in := e.Unassigned(notes, tasks, cfg, classify.InboxFilter{})
		assert.Equal(t, []string{"work/loose", "home/other"}, paths(in.Notes))
		assert.Equal(t, []string{"Untagged chore", "Other tag #errand", "Archived item"}, texts(in.Tasks))
		assert.Equal(t, 5, in.Len())
	})

	t.Run("Path Filter", func(t *testing.T) {
		in := e.Unassigned(notes, tasks, cfg, classify.InboxFilter{Path: " WORK/ "})
		assert.Equal(t, []string{"work/loose"}, paths(in.Notes))
		assert.Equal(t, []string{"Untagged chore", "Archived item"}, texts(in.Tasks))
	})

	t.Run("Search Ignores Board Query", func(t *testing.T) {
		cfg := cfg.Clone()
		cfg.UI.SearchQuery = "nothing matches this"
		in := e.Unassigned(notes, tasks, cfg, classify.InboxFilter{Search: "CHORE"})
		assert.Empty(t, in.Notes)
		assert.Equal(t, []string{"Untagged chore"}, texts(in.Tasks))
	})

	t.Run("Kind And Completed", func(t *testing.T) {
		cfg := cfg.Clone()
		cfg.Display.ShowCompleted = false
		in := e.Unassigned(notes, tasks, cfg, classify.InboxFilter{Kind: classify.KindTasks})
		assert.Empty(t, in.Notes)
		assert.Equal(t, []string{"Untagged chore", "Other tag #errand"}, texts(in.Tasks))
	})

	t.Run("Disabled Rules Claim Nothing", func(t *testing.T) {
		cfg := cfg.Clone()
		s := cfg.Sections["doFirst"]
		s.PropertyRule.Enabled = false
		cfg.Sections["doFirst"] = s
		in := e.Unassigned(notes, tasks, cfg, classify.InboxFilter{Kind: classify.KindNotes})
		assert.Equal(t, []string{"work/assigned", "work/loose", "home/other"}, paths(in.Notes))
		assert.Empty(t, in.Tasks)
	})
}
