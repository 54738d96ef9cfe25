package board

import "strings"

// Status is a canonical task status. It is compared against Canonical of a
// column name to place the task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in progress"
	StatusDone       Status = "done"
)

var statusSynonyms = map[string]Status{
	"todo":        StatusTodo,
	"to-do":       StatusTodo,
	"to do":       StatusTodo,
	"in progress": StatusInProgress,
	"in-progress": StatusInProgress,
	"doing":       StatusInProgress,
	"done":        StatusDone,
	"complete":    StatusDone,
	"completed":   StatusDone,
}

// Canonical maps a status or column name to its canonical key. The built-in
// names and their synonyms match case-insensitively; anything else is kept
// verbatim so callers can define their own columns.
func Canonical(s string) Status {
	if c, ok := statusSynonyms[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c
	}
	return Status(s)
}

// TimerEntry is one tracked interval. A nil End means the interval is still
// running.
type TimerEntry struct {
	Start Timestamp  `json:"startTime"`
	End   *Timestamp `json:"endTime"`
}

// Running reports whether the entry is open.
func (e TimerEntry) Running() bool {
	return e.End == nil
}

// Task is a board card. Title is its identity within a board.
type Task struct {
	Title          string       `json:"task"`
	Status         Status       `json:"status,omitempty"`
	TimerEntries   []TimerEntry `json:"timerEntries,omitempty"`
	TargetTime     string       `json:"targetTime,omitempty"`
	Tags           []string     `json:"tags,omitempty"`
	DueDate        *Timestamp   `json:"dueDate,omitempty"`
	UpdateDateTime *Timestamp   `json:"updateDateTime,omitempty"`
}

// SetStatus places the task in column.
func (t *Task) SetStatus(column string) {
	t.Status = Canonical(column)
}

// RunningEntry returns the open timer entry, if any.
func (t *Task) RunningEntry() *TimerEntry {
	for i := range t.TimerEntries {
		if t.TimerEntries[i].Running() {
			return &t.TimerEntries[i]
		}
	}
	return nil
}
