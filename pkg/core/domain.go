// Package core holds the domain model of the priority matrix: notes, tasks,
// categories and the configuration document, plus the contracts the engines
// and adapters agree on.
package core

import "time"

// Properties represents the frontmatter key-value pairs of a note.
// Values are plain scalars (or lists of scalars) once they cross the
// ingestion boundary; see fields.Normalize.
type Properties map[string]any

// Note is a Markdown document identified by its vault-relative path.
type Note struct {
	Path       string
	Name       string
	Properties Properties
	Content    string
}

// Task is a Markdown checklist line identified by File and Line.
type Task struct {
	File        string
	Line        int // 0-based
	Text        string
	Tags        []string // inline hashtags as written, e.g. "#schedule"
	Status      string   // raw checkbox marker, e.g. " " or "x"
	Completed   bool
	CompletedAt *time.Time
}

// Location returns the address the gateway uses to find the task line again.
func (t Task) Location() TaskLocation {
	return TaskLocation{File: t.File, Line: t.Line, Text: t.Text}
}

// Key returns the stable identity of the task ("file:line").
func (t Task) Key() string {
	return t.Location().String()
}

// EventType represents the type of change in the vault.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change in the vault.
type Event struct {
	Type      EventType
	Path      string
	Timestamp int64 // Unix timestamp
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return string(e.Type) + " " + e.Path
}

type contextKey string

// ChangeReasonKey is the context key for passing the commit message/change reason.
const ChangeReasonKey contextKey = "change_reason"
