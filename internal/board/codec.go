package board

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/starford/kanbo/internal/apperr"
)

// ParseError describes why a block could not be read as a board.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("kanban: %s: %v", e.Reason, e.Err)
	}
	return "kanban: " + e.Reason
}

// Unwrap returns the underlying decode error, if any.
func (e *ParseError) Unwrap() error { return e.Err }

// Is makes every ParseError match apperr.ErrParse.
func (e *ParseError) Is(target error) bool { return target == apperr.ErrParse }

// wireBoard is the structured block shape.
type wireBoard struct {
	Tasks            []json.RawMessage `json:"tasks"`
	Columns          []string          `json:"columns,omitempty"`
	ColumnMetadata   []*ColumnMeta     `json:"columnMetadata,omitempty"`
	CollapsedColumns []string          `json:"collapsedColumns,omitempty"`
	View             View              `json:"view,omitempty"`
	SlimMode         *bool             `json:"slimMode,omitempty"`
	ColumnWidths     map[string]int    `json:"columnWidths,omitempty"`
}

type wireBoardOut struct {
	Tasks            []*Task        `json:"tasks"`
	Columns          []string       `json:"columns,omitempty"`
	ColumnMetadata   []*ColumnMeta  `json:"columnMetadata,omitempty"`
	CollapsedColumns []string       `json:"collapsedColumns,omitempty"`
	View             View           `json:"view,omitempty"`
	SlimMode         *bool          `json:"slimMode,omitempty"`
	ColumnWidths     map[string]int `json:"columnWidths,omitempty"`
}

// Deserialize reads block text. It accepts a bare task array or a board
// object; comments and trailing commas are tolerated. Blank text is an empty
// bare-list board.
func Deserialize(data []byte) (*Board, error) {
	clean := bytes.TrimSpace(jsonc.ToJSON(data))
	if len(clean) == 0 {
		return New(), nil
	}

	switch clean[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(clean, &raw); err != nil {
			return nil, &ParseError{Reason: "invalid task list", Err: err}
		}
		tasks, err := decodeTasks(raw)
		if err != nil {
			return nil, err
		}
		return &Board{Tasks: tasks, Shape: ShapeBareList}, nil

	case '{':
		var w wireBoard
		if err := json.Unmarshal(clean, &w); err != nil {
			return nil, &ParseError{Reason: "invalid board object", Err: err}
		}
		tasks, err := decodeTasks(w.Tasks)
		if err != nil {
			return nil, err
		}
		b := &Board{
			Columns:      nonEmpty(w.Columns),
			Tasks:        tasks,
			Collapsed:    nonEmpty(w.CollapsedColumns),
			ColumnWidths: w.ColumnWidths,
			View:         w.View,
			SlimMode:     w.SlimMode,
			Shape:        ShapeStructured,
		}
		if len(b.ColumnWidths) == 0 {
			b.ColumnWidths = nil
		}
		for _, m := range w.ColumnMetadata {
			if m == nil || strings.TrimSpace(m.Name) == "" {
				continue
			}
			b.Metadata = append(b.Metadata, m)
		}
		return b, nil

	default:
		return nil, &ParseError{Reason: "top-level value must be a task list or a board object"}
	}
}

func decodeTasks(raw []json.RawMessage) ([]*Task, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	tasks := make([]*Task, 0, len(raw))
	for i, r := range raw {
		var t Task
		if err := json.Unmarshal(r, &t); err != nil {
			return nil, &ParseError{Reason: fmt.Sprintf("task %d", i), Err: err}
		}
		if strings.TrimSpace(t.Title) == "" {
			return nil, &ParseError{Reason: fmt.Sprintf("task %d has no title", i)}
		}
		t.Status = Canonical(string(t.Status))
		if len(t.Tags) == 0 {
			t.Tags = nil
		}
		if len(t.TimerEntries) == 0 {
			t.TimerEntries = nil
		}
		tasks = append(tasks, &t)
	}
	return tasks, nil
}

func nonEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

// Serialize renders b for a block whose current shape is shape. The bare
// list is kept only while the board has no structured features; once it has
// any, the structured object is written.
func Serialize(b *Board, shape Shape) ([]byte, error) {
	tasks := b.Tasks
	if tasks == nil {
		tasks = []*Task{}
	}

	var v any
	if shape == ShapeBareList && !b.HasStructuredFeatures() {
		v = tasks
	} else {
		v = wireBoardOut{
			Tasks:            tasks,
			Columns:          b.Columns,
			ColumnMetadata:   b.Metadata,
			CollapsedColumns: b.Collapsed,
			View:             b.View,
			SlimMode:         b.SlimMode,
			ColumnWidths:     b.ColumnWidths,
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("board: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// EffectiveShape is the shape Serialize would write for a block currently in
// shape.
func EffectiveShape(b *Board, shape Shape) Shape {
	if shape == ShapeBareList && !b.HasStructuredFeatures() {
		return ShapeBareList
	}
	return ShapeStructured
}
