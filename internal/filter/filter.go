// Package filter derives task visibility from a free-text title query.
package filter

import (
	"strings"

	"github.com/starford/kanbo/internal/board"
)

// Query is a normalized title filter. The zero value matches everything.
type Query struct {
	text string
}

// NewQuery lower-cases and trims raw once.
func NewQuery(raw string) Query {
	return Query{text: strings.ToLower(strings.TrimSpace(raw))}
}

// String returns the normalized query text.
func (q Query) String() string { return q.text }

// Empty reports whether the query matches everything.
func (q Query) Empty() bool { return q.text == "" }

// Visible reports whether t matches: an empty query or a case-insensitive
// substring of the title.
func (q Query) Visible(t *board.Task) bool {
	if q.text == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), q.text)
}

// Hidden returns the titles on b that q hides. Visibility depends only on
// titles, so callers recompute it after every add, remove, move or rename.
func (q Query) Hidden(b *board.Board) map[string]bool {
	hidden := make(map[string]bool)
	if q.Empty() {
		return hidden
	}
	for _, t := range b.Tasks {
		if !q.Visible(t) {
			hidden[t.Title] = true
		}
	}
	return hidden
}
