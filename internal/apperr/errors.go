// Package apperr holds the sentinel errors shared across kanbo layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")

	// ErrDuplicateTitle is returned when a create or rename would give two
	// tasks on one board the same title.
	ErrDuplicateTitle = errors.New("duplicate task title")
	// ErrParse marks a malformed kanban block.
	ErrParse = errors.New("malformed kanban block")
	// ErrLocate means no block in the document could be matched to a board.
	ErrLocate = errors.New("kanban block not found")
	// ErrWrite wraps document write failures.
	ErrWrite = errors.New("document write failed")
	// ErrNotStored means a change was applied to the board but the block's
	// format has no place for it.
	ErrNotStored = errors.New("change cannot be stored in this block")
)
