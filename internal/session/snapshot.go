package session

import (
	"time"

	"github.com/starford/kanbo/internal/board"
	"github.com/starford/kanbo/internal/order"
	"github.com/starford/kanbo/internal/timer"
)

// Snapshot is what a renderer draws: the columns in order, each with its
// visible tasks in display order.
type Snapshot struct {
	Block   int            `json:"block"`
	Shape   string         `json:"shape"`
	View    board.View     `json:"view,omitempty"`
	Filter  string         `json:"filter,omitempty"`
	Columns []ColumnView   `json:"columns"`
	Running *RunningTimer  `json:"running,omitempty"`
	Widths  map[string]int `json:"column_widths,omitempty"`
}

// ColumnView is one column of a snapshot.
type ColumnView struct {
	Name      string          `json:"name"`
	State     board.State     `json:"state"`
	Icon      string          `json:"icon,omitempty"`
	Collapsed bool            `json:"collapsed"`
	SortField board.SortField `json:"sort_field,omitempty"`
	SortOrder board.SortOrder `json:"sort_order,omitempty"`
	Tasks     []TaskView      `json:"tasks"`
	Hidden    int             `json:"hidden"`
}

// TaskView is one visible task of a snapshot.
type TaskView struct {
	Title          string           `json:"title"`
	Tags           []string         `json:"tags,omitempty"`
	TargetTime     string           `json:"target_time,omitempty"`
	DueDate        *board.Timestamp `json:"due_date,omitempty"`
	UpdateDateTime *board.Timestamp `json:"updated_at,omitempty"`
	Elapsed        time.Duration    `json:"-"`
	ElapsedSeconds float64          `json:"elapsed_seconds"`
	Running        bool             `json:"running"`
	Progress       *float64         `json:"progress,omitempty"`
	Band           timer.Band       `json:"band,omitempty"`
}

// RunningTimer names the task whose timer is open.
type RunningTimer struct {
	Title  string `json:"title"`
	Column string `json:"column"`
}

// Snapshot builds the current snapshot.
func (v *View) Snapshot() Snapshot {
	b := v.board
	hidden := v.query.Hidden(b)
	snap := Snapshot{
		Block:  v.block,
		Shape:  b.Shape.String(),
		View:   b.View,
		Filter: v.query.String(),
		Widths: b.ColumnWidths,
	}

	for _, name := range b.ColumnNames() {
		col := ColumnView{
			Name:      name,
			State:     b.StateOf(name),
			Collapsed: b.IsCollapsed(name),
			Tasks:     []TaskView{},
		}
		if m, ok := b.LookupMeta(name); ok {
			col.Icon = m.Icon
		}
		if rule, ok := order.RuleOf(b, name); ok {
			col.SortField = rule.Field
			col.SortOrder = rule.Order
		}
		for _, t := range order.ColumnTasks(b, name, v.timer.Elapsed) {
			if hidden[t.Title] {
				col.Hidden++
				continue
			}
			col.Tasks = append(col.Tasks, v.taskView(t))
		}
		snap.Columns = append(snap.Columns, col)
	}

	if running := timer.Running(b); len(running) > 0 {
		snap.Running = &RunningTimer{Title: running[0].Title, Column: b.ColumnOf(running[0])}
	}
	return snap
}

func (v *View) taskView(t *board.Task) TaskView {
	elapsed := v.timer.Elapsed(t)
	tv := TaskView{
		Title:          t.Title,
		Tags:           t.Tags,
		TargetTime:     t.TargetTime,
		DueDate:        t.DueDate,
		UpdateDateTime: t.UpdateDateTime,
		Elapsed:        elapsed,
		ElapsedSeconds: elapsed.Seconds(),
		Running:        timer.IsRunning(t),
	}
	if pct, ok := v.timer.ProgressPercent(t); ok {
		tv.Progress = &pct
		tv.Band = timer.ProgressBand(pct, v.bands)
	}
	return tv
}
