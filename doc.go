// Package quadrant is the composition root of the Quadrant priority matrix.
//
// It connects the pure engines (classification, statistics, dates) with
// the filesystem adapters that read a vault of Markdown notes and task
// lines, persist the configuration document and apply category changes
// as file edits.
//
// Notes are assigned to a category through a frontmatter property
// (eisenhower_status: urgent_important); tasks through an inline tag
// (#urgent-important). Nothing is stored besides the files themselves:
// every query re-lists the vault and classifies it again.
//
// Usage:
//
//	svc, err := quadrant.New("./vault",
//		quadrant.WithLogger(logger),
//	)
//
//	board, err := svc.Board(ctx)
//	err = svc.MoveNote(ctx, "projects/launch.md", "doFirst")
package quadrant
