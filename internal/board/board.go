// Package board defines the kanban data model: boards, columns, tasks and
// timer entries, plus the codec for the JSON carried inside a kanban block.
package board

import (
	"fmt"
	"strings"

	"github.com/starford/kanbo/internal/apperr"
)

// State is the semantic state of a column. It drives timer automation.
type State string

const (
	StateTodo       State = "todo"
	StateInProgress State = "in-progress"
	StatePending    State = "pending"
	StateDone       State = "done"
)

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case StateTodo, StateInProgress, StatePending, StateDone:
		return true
	}
	return false
}

// SortField names the key of an automatic column sort.
type SortField string

const (
	SortByUpdated   SortField = "updateDateTime"
	SortByDueDate   SortField = "dueDate"
	SortByTitle     SortField = "title"
	SortByTimeSpent SortField = "timeSpent"
)

// Valid reports whether f is a supported sort key.
func (f SortField) Valid() bool {
	switch f {
	case SortByUpdated, SortByDueDate, SortByTitle, SortByTimeSpent:
		return true
	}
	return false
}

// SortOrder is the direction of an automatic column sort.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// View is the board layout tag. It is carried through untouched.
type View string

const (
	ViewHorizontal View = "horizontal"
	ViewVertical   View = "vertical"
	ViewTable      View = "table"
)

// Valid reports whether v is a known layout (the empty view is allowed).
func (v View) Valid() bool {
	switch v {
	case "", ViewHorizontal, ViewVertical, ViewTable:
		return true
	}
	return false
}

// Shape is the top-level JSON shape a board was read from.
type Shape int

const (
	// ShapeBareList is a plain array of tasks.
	ShapeBareList Shape = iota
	// ShapeStructured is an object carrying tasks, columns and view state.
	ShapeStructured
)

func (s Shape) String() string {
	if s == ShapeStructured {
		return "structured"
	}
	return "list"
}

// DefaultColumns is used when a board declares no columns.
var DefaultColumns = []string{"todo", "in progress", "done"}

// ColumnMeta carries per-column settings.
type ColumnMeta struct {
	Name       string    `json:"name"`
	State      State     `json:"state"`
	Icon       string    `json:"icon,omitempty"`
	SortField  SortField `json:"sortField,omitempty"`
	SortOrder  SortOrder `json:"sortOrder,omitempty"`
	ManualSort *bool     `json:"manualSort,omitempty"`
}

// Board is one kanban board. Stored task order is the manual order of every
// column; a column's tasks are the tasks whose status resolves to it.
type Board struct {
	Columns      []string
	Metadata     []*ColumnMeta
	Tasks        []*Task
	Collapsed    []string
	ColumnWidths map[string]int
	View         View
	SlimMode     *bool
	Shape        Shape
}

// New returns an empty bare-list board.
func New() *Board {
	return &Board{Shape: ShapeBareList}
}

// ColumnNames returns the declared columns, or DefaultColumns.
func (b *Board) ColumnNames() []string {
	if len(b.Columns) == 0 {
		return DefaultColumns
	}
	return b.Columns
}

// HasCustomColumns reports whether the board declares columns other than the
// default set.
func (b *Board) HasCustomColumns() bool {
	if len(b.Columns) == 0 {
		return false
	}
	if len(b.Columns) != len(DefaultColumns) {
		return true
	}
	for i, c := range b.Columns {
		if c != DefaultColumns[i] {
			return true
		}
	}
	return false
}

// HasStructuredFeatures reports whether the board can only be expressed in
// the structured shape.
func (b *Board) HasStructuredFeatures() bool {
	return b.HasCustomColumns() || len(b.Metadata) > 0 || len(b.Collapsed) > 0
}

// HasColumn reports whether name resolves to a column of the board.
func (b *Board) HasColumn(name string) bool {
	key := Canonical(name)
	for _, c := range b.ColumnNames() {
		if Canonical(c) == key {
			return true
		}
	}
	return false
}

// ColumnFor maps a status to the column displaying it. Unknown statuses land
// in the first column.
func (b *Board) ColumnFor(status Status) string {
	cols := b.ColumnNames()
	for _, c := range cols {
		if Canonical(c) == status {
			return c
		}
	}
	return cols[0]
}

// ColumnOf returns the column t is displayed in.
func (b *Board) ColumnOf(t *Task) string {
	return b.ColumnFor(t.Status)
}

// LookupMeta returns the metadata for column name without creating it.
func (b *Board) LookupMeta(name string) (*ColumnMeta, bool) {
	key := Canonical(name)
	for _, m := range b.Metadata {
		if Canonical(m.Name) == key {
			return m, true
		}
	}
	return nil, false
}

// Meta returns the metadata for column name, creating a default entry when
// the column has none. Only callers that change column settings use it;
// readers use LookupMeta or StateOf so that reading never alters the shape.
func (b *Board) Meta(name string) *ColumnMeta {
	if m, ok := b.LookupMeta(name); ok {
		return m
	}
	m := &ColumnMeta{Name: name, State: defaultState(name)}
	b.Metadata = append(b.Metadata, m)
	return m
}

// StateOf returns the semantic state of a column.
func (b *Board) StateOf(column string) State {
	if m, ok := b.LookupMeta(column); ok && m.State.Valid() {
		return m.State
	}
	return defaultState(column)
}

func defaultState(column string) State {
	switch Canonical(column) {
	case StatusInProgress:
		return StateInProgress
	case StatusDone:
		return StateDone
	default:
		return StateTodo
	}
}

// Task returns the first task titled title, or nil.
func (b *Board) Task(title string) *Task {
	if i := b.IndexOf(title); i >= 0 {
		return b.Tasks[i]
	}
	return nil
}

// IndexOf returns the stored position of title, or -1.
func (b *Board) IndexOf(title string) int {
	for i, t := range b.Tasks {
		if t.Title == title {
			return i
		}
	}
	return -1
}

// AddTask appends t. A blank or already used title is rejected and the board
// is left unchanged.
func (b *Board) AddTask(t *Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("board: task title is empty: %w", apperr.ErrInvalidInput)
	}
	if b.IndexOf(t.Title) >= 0 {
		return fmt.Errorf("board: %q: %w", t.Title, apperr.ErrDuplicateTitle)
	}
	b.Tasks = append(b.Tasks, t)
	return nil
}

// RenameTask changes the title of oldTitle to newTitle.
func (b *Board) RenameTask(oldTitle, newTitle string) error {
	t := b.Task(oldTitle)
	if t == nil {
		return fmt.Errorf("board: task %q: %w", oldTitle, apperr.ErrNotFound)
	}
	if strings.TrimSpace(newTitle) == "" {
		return fmt.Errorf("board: task title is empty: %w", apperr.ErrInvalidInput)
	}
	if newTitle == oldTitle {
		return nil
	}
	if b.IndexOf(newTitle) >= 0 {
		return fmt.Errorf("board: %q: %w", newTitle, apperr.ErrDuplicateTitle)
	}
	t.Title = newTitle
	return nil
}

// RemoveTask deletes the task titled title and returns it.
func (b *Board) RemoveTask(title string) (*Task, bool) {
	i := b.IndexOf(title)
	if i < 0 {
		return nil, false
	}
	t := b.Tasks[i]
	b.Tasks = append(b.Tasks[:i], b.Tasks[i+1:]...)
	return t, true
}

// TitleSet returns the set of task titles.
func (b *Board) TitleSet() map[string]struct{} {
	out := make(map[string]struct{}, len(b.Tasks))
	for _, t := range b.Tasks {
		out[t.Title] = struct{}{}
	}
	return out
}

// IsCollapsed reports whether column is collapsed.
func (b *Board) IsCollapsed(column string) bool {
	for _, c := range b.Collapsed {
		if c == column {
			return true
		}
	}
	return false
}

// ToggleCollapsed flips the collapsed state of column and returns the new
// state.
func (b *Board) ToggleCollapsed(column string) bool {
	for i, c := range b.Collapsed {
		if c == column {
			b.Collapsed = append(b.Collapsed[:i], b.Collapsed[i+1:]...)
			if len(b.Collapsed) == 0 {
				b.Collapsed = nil
			}
			return false
		}
	}
	b.Collapsed = append(b.Collapsed, column)
	return true
}
