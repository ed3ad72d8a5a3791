package fs_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quadrant/pkg/adapters/fs"
	"github.com/aretw0/quadrant/pkg/classify"
	"github.com/aretw0/quadrant/pkg/core"
)

var knownTags = []string{"urgent-important", "schedule", "delegate", "eliminate"}

func setupGateway(t *testing.T, files map[string]string, opts ...func(*fs.Config)) (*fs.Gateway, *fs.Vault, string) {
	t.Helper()
	vault, path := setupVault(t, files, opts...)
	gw := fs.NewGateway(vault, fs.GatewayConfig{
		HandoffDelay: -1,
		Clock:        func() time.Time { return time.Date(2024, 6, 12, 9, 30, 0, 0, time.UTC) },
	})
	return gw, vault, path
}

func TestGateway_SetNoteProperty(t *testing.T) {
	ctx := context.Background()

	t.Run("Replaces Existing", func(t *testing.T) {
		gw, vault, path := setupGateway(t, map[string]string{
			"plan.md": "---\ntitle: Plan\neisenhower_status: urgent_important\n---\nbody\n",
		})
		notes, err := vault.ListNotes(ctx, nil)
		require.NoError(t, err)
		require.Len(t, notes, 1)

		require.NoError(t, gw.SetNoteProperty(ctx, "plan.md", "eisenhower_status", "not_urgent_important"))
		assert.Equal(t, "---\ntitle: Plan\neisenhower_status: not_urgent_important\n---\nbody\n", readFile(t, path, "plan.md"))

		notes, err = vault.ListNotes(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, "not_urgent_important", notes[0].Properties["eisenhower_status"], "listing sees the write")
	})

	t.Run("Creates Frontmatter", func(t *testing.T) {
		gw, _, path := setupGateway(t, map[string]string{"plain.md": "# Plain\n"})
		require.NoError(t, gw.SetNoteProperty(ctx, "plain.md", "eisenhower_status", "urgent_not_important"))
		assert.Equal(t, "---\neisenhower_status: urgent_not_important\n---\n# Plain\n", readFile(t, path, "plain.md"))
	})

	t.Run("Keeps String Type", func(t *testing.T) {
		for _, value := range []string{"1", "true", "2024"} {
			t.Run(value, func(t *testing.T) {
				gw, vault, path := setupGateway(t, map[string]string{"plan.md": "# Plan\n"})
				require.NoError(t, gw.SetNoteProperty(ctx, "plan.md", "prio", value))
				assert.Equal(t, "---\nprio: \""+value+"\"\n---\n# Plan\n", readFile(t, path, "plan.md"))

				notes, err := vault.ListNotes(ctx, nil)
				require.NoError(t, err)
				require.Len(t, notes, 1)
				assert.Equal(t, value, notes[0].Properties["prio"])

				cfg := core.DefaultConfig()
				cfg.Sections = map[string]core.Category{
					"prio": {Title: "Prio", PropertyRule: core.PropertyRule{Enabled: true, PropertyName: "prio", PropertyValue: value}},
				}
				result := classify.New(classify.Config{}).Classify(notes, nil, cfg)
				assert.Len(t, result["prio"].Notes, 1, "note classifies into its category again")
			})
		}
	})

	t.Run("Missing Note", func(t *testing.T) {
		gw, _, _ := setupGateway(t, nil)
		err := gw.SetNoteProperty(ctx, "nope.md", "a", "b")
		assert.ErrorIs(t, err, core.ErrNoteNotFound)
	})

	t.Run("Rejects Empty Name", func(t *testing.T) {
		gw, _, _ := setupGateway(t, map[string]string{"plain.md": "x"})
		assert.Error(t, gw.SetNoteProperty(ctx, "plain.md", " ", "b"))
	})

	t.Run("Rejects Paths Outside Vault", func(t *testing.T) {
		gw, _, _ := setupGateway(t, nil)
		assert.Error(t, gw.SetNoteProperty(ctx, "../escape.md", "a", "b"))
	})
}

func TestGateway_ClearNoteProperties(t *testing.T) {
	ctx := context.Background()
	gw, _, path := setupGateway(t, map[string]string{
		"a.md": "---\ntitle: A\neisenhower_status: urgent_important\ndue_date: 2024-06-10\n---\nbody\n",
		"b.md": "---\neisenhower_status: urgent_important\n---\nbody\n",
		"c.md": "no frontmatter\n",
	})
	names := []string{"due_date", "recurring", "eisenhower_status"}

	require.NoError(t, gw.ClearNoteProperties(ctx, "a.md", names))
	assert.Equal(t, "---\ntitle: A\n---\nbody\n", readFile(t, path, "a.md"))

	require.NoError(t, gw.ClearNoteProperties(ctx, "b.md", names))
	assert.Equal(t, "body\n", readFile(t, path, "b.md"), "empty frontmatter is dropped")

	require.NoError(t, gw.ClearNoteProperties(ctx, "c.md", names))
	assert.Equal(t, "no frontmatter\n", readFile(t, path, "c.md"))
}

func TestGateway_SetTaskTag(t *testing.T) {
	ctx := context.Background()
	src := "# Today\n- [ ] Call Ana #delegate\n- [ ] Write spec 2024-12-25\n"

	t.Run("By Line", func(t *testing.T) {
		gw, _, path := setupGateway(t, map[string]string{"today.md": src})
		loc := core.TaskLocation{File: "today.md", Line: 1, Text: "Call Ana #delegate"}
		require.NoError(t, gw.SetTaskTag(ctx, loc, "urgent-important", knownTags))
		assert.Equal(t, "# Today\n- [ ] Call Ana #urgent-important\n- [ ] Write spec 2024-12-25\n", readFile(t, path, "today.md"))
	})

	t.Run("Follows Shifted Line", func(t *testing.T) {
		gw, _, path := setupGateway(t, map[string]string{"today.md": "intro\n" + src})
		loc := core.TaskLocation{File: "today.md", Line: 2, Text: "Write spec"}
		require.NoError(t, gw.SetTaskTag(ctx, loc, "#schedule", knownTags))
		assert.Contains(t, readFile(t, path, "today.md"), "- [ ] Write spec 2024-12-25 #schedule\n")
		assert.Contains(t, readFile(t, path, "today.md"), "- [ ] Call Ana #delegate\n")
	})

	t.Run("Unicode Tag Round Trip", func(t *testing.T) {
		gw, vault, path := setupGateway(t, map[string]string{"today.md": src})
		loc := core.TaskLocation{File: "today.md", Line: 1, Text: "Call Ana #delegate"}
		require.NoError(t, gw.SetTaskTag(ctx, loc, "urgência", knownTags))
		assert.Contains(t, readFile(t, path, "today.md"), "- [ ] Call Ana #urgência\n")

		tasks, err := vault.ListTasks(ctx, nil)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, []string{"#urgência"}, tasks[0].Tags)
	})

	t.Run("Not Found", func(t *testing.T) {
		gw, _, _ := setupGateway(t, map[string]string{"today.md": src})
		loc := core.TaskLocation{File: "today.md", Line: 0, Text: "Vanished"}
		err := gw.SetTaskTag(ctx, loc, "schedule", knownTags)
		assert.ErrorIs(t, err, core.ErrTaskNotFound)
	})
}

func TestGateway_ToggleTaskCompletion(t *testing.T) {
	ctx := context.Background()
	gw, vault, path := setupGateway(t, map[string]string{
		"today.md": "- [ ] Ship release #urgent-important\r\n- [ ] Other\r\n",
	})
	loc := core.TaskLocation{File: "today.md", Line: 0, Text: "Ship release"}

	require.NoError(t, gw.ToggleTaskCompletion(ctx, loc, true))
	assert.Equal(t, "- [x] Ship release #urgent-important ✅ 2024-06-12\r\n- [ ] Other\r\n", readFile(t, path, "today.md"))

	tasks, err := vault.ListTasks(ctx, nil)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.True(t, tasks[0].Completed)
	require.NotNil(t, tasks[0].CompletedAt)

	require.NoError(t, gw.ToggleTaskCompletion(ctx, loc, false))
	assert.Equal(t, "- [ ] Ship release #urgent-important\r\n- [ ] Other\r\n", readFile(t, path, "today.md"))
}

func TestGateway_ReadOnly(t *testing.T) {
	gw, _, path := setupGateway(t, map[string]string{"a.md": "- [ ] task\n"}, func(c *fs.Config) {
		c.ReadOnly = true
	})
	ctx := context.Background()

	assert.ErrorIs(t, gw.SetNoteProperty(ctx, "a.md", "x", "y"), core.ErrReadOnly)
	assert.ErrorIs(t, gw.ToggleTaskCompletion(ctx, core.TaskLocation{File: "a.md", Text: "task"}, true), core.ErrReadOnly)
	assert.Equal(t, "- [ ] task\n", readFile(t, path, "a.md"))

	state := gw.State().(fs.GatewayState)
	assert.EqualValues(t, 2, state.Failed)
	assert.Contains(t, state.LastError, "read-only")
}

// Concurrent edits of one file must not lose updates: each mutation reads
// the previous one's output.
func TestGateway_SerializesPerFile(t *testing.T) {
	const n = 20
	var b strings.Builder
	for i := range n {
		fmt.Fprintf(&b, "- [ ] item %02d\n", i)
	}
	gw, _, path := setupGateway(t, map[string]string{"list.md": b.String()})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loc := core.TaskLocation{File: "list.md", Line: i, Text: fmt.Sprintf("item %02d", i)}
			assert.NoError(t, gw.SetTaskTag(ctx, loc, knownTags[i%len(knownTags)], knownTags))
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(readFile(t, path, "list.md"), "\n"), "\n")
	require.Len(t, lines, n)
	for i, line := range lines {
		assert.Equal(t, fmt.Sprintf("- [ ] item %02d #%s", i, knownTags[i%len(knownTags)]), line)
	}

	state := gw.State().(fs.GatewayState)
	assert.EqualValues(t, n, state.Applied)
	assert.Zero(t, state.Failed)
}
