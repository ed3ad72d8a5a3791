package classify

import (
	"strings"

	"github.com/aretw0/quadrant/pkg/core"
	"github.com/aretw0/quadrant/pkg/fields"
)

// Item kinds accepted by InboxFilter.Kind.
const (
	KindAll   = "all"
	KindNotes = "notes"
	KindTasks = "tasks"
)

// InboxFilter narrows the unassigned listing. It is independent of the
// board's search query.
type InboxFilter struct {
	Search string // case-insensitive substring of the note name or task text
	Path   string // case-insensitive substring of the file path
	Kind   string // KindAll (default), KindNotes or KindTasks
}

// Inbox holds the items no enabled rule claims.
type Inbox struct {
	Notes []core.Note
	Tasks []core.Task
}

// Len returns the number of unassigned items.
func (i Inbox) Len() int {
	return len(i.Notes) + len(i.Tasks)
}

// Unassigned returns the notes matching no enabled property rule and the
// tasks matching no enabled task rule, honoring the display flags.
func (e *Engine) Unassigned(notes []core.Note, tasks []core.Task, cfg core.Config, f InboxFilter) Inbox {
	path := strings.ToLower(strings.TrimSpace(f.Path))
	search := strings.ToLower(f.Search)

	inbox := Inbox{Notes: []core.Note{}, Tasks: []core.Task{}}

	if cfg.Display.ShowNotes && f.Kind != KindTasks {
		for _, n := range notes {
			if n.Properties == nil {
				continue
			}
			if path != "" && !strings.Contains(strings.ToLower(n.Path), path) {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(n.Name), search) {
				continue
			}
			if claimedNote(n, cfg) {
				continue
			}
			inbox.Notes = append(inbox.Notes, n)
		}
	}

	if cfg.Display.ShowTasks && f.Kind != KindNotes {
		for _, t := range tasks {
			if t.Tags == nil {
				continue
			}
			if !cfg.Display.ShowCompleted && t.Completed {
				continue
			}
			if path != "" && !strings.Contains(strings.ToLower(t.File), path) {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(t.Text), search) {
				continue
			}
			if claimedTask(t, cfg) {
				continue
			}
			inbox.Tasks = append(inbox.Tasks, t)
		}
	}

	return inbox
}

func claimedNote(n core.Note, cfg core.Config) bool {
	for _, s := range cfg.Sections {
		r := s.PropertyRule
		if !r.Enabled || r.PropertyName == "" {
			continue
		}
		if v, ok := fields.ExtractPropertyValue(n.Properties[r.PropertyName]).(string); ok && v == r.PropertyValue {
			return true
		}
	}
	return false
}

func claimedTask(t core.Task, cfg core.Config) bool {
	for _, s := range cfg.Sections {
		if s.TaskRule.Enabled && s.TaskRule.TagName != "" && HasTag(t, s.TaskRule.TagName) {
			return true
		}
	}
	return false
}
