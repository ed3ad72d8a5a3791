package core

import "context"

// ItemSource is the host item-query collaborator.
// Adhering to this interface keeps the engines independent of where notes
// and tasks come from (a Markdown vault, an index, a test fixture).
type ItemSource interface {
	// ListNotes returns every note outside the excluded folders.
	ListNotes(ctx context.Context, excluded []string) ([]Note, error)

	// ListTasks returns every task line outside the excluded folders.
	ListTasks(ctx context.Context, excluded []string) ([]Task, error)
}

// Watchable defines sources that can notify about changes to the underlying items.
type Watchable interface {
	// Watch emits an Event for every observed change until ctx is done.
	Watch(ctx context.Context) (<-chan Event, error)
}

// ConfigStore is the persistence collaborator for the configuration document.
type ConfigStore interface {
	// Load returns the stored configuration merged over DefaultConfig.
	// A missing document is not an error.
	Load(ctx context.Context) (Config, error)

	// Save persists the configuration document.
	Save(ctx context.Context, cfg Config) error
}

// Gateway serializes category-changing operations into file edits.
//
// Implementations must serialize mutations per file (FIFO) and may run
// mutations on distinct files concurrently. A mutation either fully
// succeeds or returns an error; callers re-read items afterwards instead of
// patching their in-memory view.
type Gateway interface {
	// SetNoteProperty sets a frontmatter property on the note at notePath.
	SetNoteProperty(ctx context.Context, notePath, name, value string) error

	// SetTaskTag replaces any of knownTags on the task line with newTag.
	SetTaskTag(ctx context.Context, loc TaskLocation, newTag string, knownTags []string) error

	// ToggleTaskCompletion flips the completion marker of the task line.
	ToggleTaskCompletion(ctx context.Context, loc TaskLocation, completed bool) error

	// ClearNoteProperties removes the named frontmatter properties.
	ClearNoteProperties(ctx context.Context, notePath string, names []string) error
}
