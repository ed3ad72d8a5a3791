package core

import "errors"

// Common errors.
var (
	ErrReadOnly        = errors.New("vault is in read-only mode")
	ErrLastCategory    = errors.New("cannot remove the last category")
	ErrUnknownCategory = errors.New("unknown category")
	ErrNoteNotFound    = errors.New("note not found")
	ErrTaskNotFound    = errors.New("task line not found")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrMalformedRule   = errors.New("malformed category rule")
	ErrNotWatchable    = errors.New("item source does not support watching")
)
