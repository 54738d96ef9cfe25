// Package models defines the records kanbo keeps about vault documents and
// the boards inside them.
package models

import "time"

// DocumentMeta is what a vault listing returns per Markdown file.
type DocumentMeta struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Document is an indexed Markdown file.
type Document struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Tags      []string  `json:"tags"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
	Boards    int       `json:"boards"`
}

// BoardSummary describes one kanban block of a document.
type BoardSummary struct {
	Path     string         `json:"path"`
	Block    int            `json:"block"`
	Title    string         `json:"title"`
	Shape    string         `json:"shape,omitempty"`
	Columns  []string       `json:"columns,omitempty"`
	Counts   map[string]int `json:"counts,omitempty"`
	Tasks    int            `json:"tasks"`
	Running  string         `json:"running,omitempty"`
	Error    string         `json:"error,omitempty"`
	Nested   bool           `json:"nested,omitempty"`
	Document string         `json:"document_title,omitempty"`
}

// TaskRecord is an indexed task.
type TaskRecord struct {
	Path          string        `json:"path"`
	Block         int           `json:"block"`
	Title         string        `json:"title"`
	Column        string        `json:"column"`
	Tags          []string      `json:"tags,omitempty"`
	TargetTime    string        `json:"target_time,omitempty"`
	DueDate       string        `json:"due_date,omitempty"`
	RunningSince  *time.Time    `json:"running_since,omitempty"`
	ElapsedClosed time.Duration `json:"-"`
}

// Running reports whether the task's timer was open when indexed.
func (t TaskRecord) Running() bool { return t.RunningSince != nil }

// ElapsedAt is the tracked time of t at now.
func (t TaskRecord) ElapsedAt(now time.Time) time.Duration {
	d := t.ElapsedClosed
	if t.RunningSince != nil && now.After(*t.RunningSince) {
		d += now.Sub(*t.RunningSince)
	}
	return d
}
