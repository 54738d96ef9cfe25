package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/kanbo/internal/apperr"
	"github.com/starford/kanbo/internal/board"
	"github.com/starford/kanbo/internal/filter"
	"github.com/starford/kanbo/internal/order"
	"github.com/starford/kanbo/internal/reconcile"
)

func (v *View) task(title string) (*board.Task, error) {
	t := v.board.Task(title)
	if t == nil {
		return nil, fmt.Errorf("session: task %q: %w", title, apperr.ErrNotFound)
	}
	return t, nil
}

// column resolves name to the board's declared spelling.
func (v *View) column(name string) (string, error) {
	if !v.board.HasColumn(name) {
		return "", fmt.Errorf("session: column %q: %w", name, apperr.ErrNotFound)
	}
	return v.board.ColumnFor(board.Canonical(name)), nil
}

func (v *View) touch(t *board.Task) {
	ts := board.NewTimestamp(v.clock.Now())
	t.UpdateDateTime = &ts
}

// MoveTask drops title into column toColumn, before the task titled
// beforeTitle, or at the end of the column when beforeTitle is empty or not
// in that column. Crossing into or out of an in-progress column starts or
// stops the task's timer.
func (v *View) MoveTask(ctx context.Context, title, toColumn, beforeTitle string) error {
	t, err := v.task(title)
	if err != nil {
		return err
	}
	to, err := v.column(toColumn)
	if err != nil {
		return err
	}
	var target *board.Task
	if beforeTitle != "" {
		target = v.board.Task(beforeTitle)
	}

	from := v.board.ColumnOf(t)
	if !order.Reorder(v.board, t, to, target, true, v.timer.Elapsed) {
		return nil
	}
	if from != to {
		v.timer.OnStatusChange(v.board, t, from, to)
		v.touch(t)
	}
	return v.commit(ctx, reconcile.ForTask(title))
}

// ToggleTimer starts or stops the timer of title. Starting stops any other
// running timer on the board.
func (v *View) ToggleTimer(ctx context.Context, title string) error {
	t, err := v.task(title)
	if err != nil {
		return err
	}
	v.timer.Toggle(v.board, t)
	return v.commit(ctx, reconcile.ForTask(title))
}

// SetFilter narrows the visible tasks to titles containing text. It never
// touches the document.
func (v *View) SetFilter(text string) {
	v.query = filter.NewQuery(text)
	v.render()
}

// SortHeaderClicked sorts column by field, flipping the direction when the
// column is already sorted ascending by field.
func (v *View) SortHeaderClicked(ctx context.Context, column string, field board.SortField) error {
	if !field.Valid() {
		return fmt.Errorf("session: sort field %q: %w", field, apperr.ErrInvalidInput)
	}
	col, err := v.column(column)
	if err != nil {
		return err
	}
	order.SortHeaderClicked(v.board, col, field, v.timer.Elapsed)
	return v.commit(ctx, reconcile.AnyTask())
}

// SetManualOrder switches column back to manual order, keeping the order it
// displays now.
func (v *View) SetManualOrder(ctx context.Context, column string) error {
	col, err := v.column(column)
	if err != nil {
		return err
	}
	if order.IsManual(v.board, col) {
		return nil
	}
	order.SetManual(v.board, col, v.timer.Elapsed)
	return v.commit(ctx, reconcile.AnyTask())
}

// NewTask describes a task to create.
type NewTask struct {
	Title      string
	Column     string
	TargetTime string
	Tags       []string
	DueDate    string
}

// AddTask creates a task at the end of its column, the first column when
// none is given. A duplicate title leaves the board and the document as they
// were.
func (v *View) AddTask(ctx context.Context, nt NewTask) (*board.Task, error) {
	col := v.board.ColumnNames()[0]
	if nt.Column != "" {
		var err error
		if col, err = v.column(nt.Column); err != nil {
			return nil, err
		}
	}
	t := &board.Task{
		Title:      strings.TrimSpace(nt.Title),
		TargetTime: strings.TrimSpace(nt.TargetTime),
		Tags:       cleanTags(nt.Tags),
	}
	if nt.DueDate != "" {
		due, err := board.ParseTimestamp(nt.DueDate)
		if err != nil {
			return nil, fmt.Errorf("session: due date %q: %w", nt.DueDate, apperr.ErrInvalidInput)
		}
		t.DueDate = &due
	}
	t.SetStatus(col)
	if err := v.board.AddTask(t); err != nil {
		return nil, err
	}
	v.timer.OnStatusChange(v.board, t, "", col)
	v.touch(t)
	return t, v.commit(ctx, reconcile.ForNewTask())
}

// TaskEdit lists the fields to change; nil fields are kept. An empty DueDate
// clears the date.
type TaskEdit struct {
	TargetTime *string
	Tags       *[]string
	DueDate    *string
}

// EditTask changes the details of title.
func (v *View) EditTask(ctx context.Context, title string, edit TaskEdit) error {
	t, err := v.task(title)
	if err != nil {
		return err
	}
	var due *board.Timestamp
	if edit.DueDate != nil && *edit.DueDate != "" {
		ts, err := board.ParseTimestamp(*edit.DueDate)
		if err != nil {
			return fmt.Errorf("session: due date %q: %w", *edit.DueDate, apperr.ErrInvalidInput)
		}
		due = &ts
	}

	if edit.TargetTime != nil {
		t.TargetTime = strings.TrimSpace(*edit.TargetTime)
	}
	if edit.Tags != nil {
		t.Tags = cleanTags(*edit.Tags)
	}
	if edit.DueDate != nil {
		t.DueDate = due
	}
	v.touch(t)
	return v.commit(ctx, reconcile.ForTask(title))
}

// RenameTask retitles a task. A title already used on the board is rejected
// without writing.
func (v *View) RenameTask(ctx context.Context, oldTitle, newTitle string) error {
	newTitle = strings.TrimSpace(newTitle)
	if oldTitle == newTitle {
		if _, err := v.task(oldTitle); err != nil {
			return err
		}
		return nil
	}
	if err := v.board.RenameTask(oldTitle, newTitle); err != nil {
		return err
	}
	v.touch(v.board.Task(newTitle))
	return v.commit(ctx, reconcile.ForTask(newTitle))
}

// DeleteTask removes title from the board.
func (v *View) DeleteTask(ctx context.Context, title string) error {
	if _, ok := v.board.RemoveTask(title); !ok {
		return fmt.Errorf("session: task %q: %w", title, apperr.ErrNotFound)
	}
	return v.commit(ctx, reconcile.ForTask(title))
}

// ToggleCollapsed collapses or expands column and returns the new state.
func (v *View) ToggleCollapsed(ctx context.Context, column string) (bool, error) {
	col, err := v.column(column)
	if err != nil {
		return false, err
	}
	collapsed := v.board.ToggleCollapsed(col)
	return collapsed, v.commit(ctx, reconcile.AnyTask())
}

// SetViewMode switches the board layout. A board written as a bare task
// list cannot hold the setting; the view changes but the document does not,
// and ErrNotStored is returned.
func (v *View) SetViewMode(ctx context.Context, mode board.View) error {
	if mode == "" || !mode.Valid() {
		return fmt.Errorf("session: view %q: %w", mode, apperr.ErrInvalidInput)
	}
	if v.board.View == mode {
		return nil
	}
	v.board.View = mode
	if board.EffectiveShape(v.board, v.board.Shape) == board.ShapeBareList {
		v.render()
		v.logger.Info("view mode kept in memory", slog.Int("block", v.block), slog.String("view", string(mode)))
		return fmt.Errorf("session: a bare task list has no view setting: %w", apperr.ErrNotStored)
	}
	return v.commit(ctx, reconcile.AnyTask())
}

// cleanTags trims and dedupes tags, keeping them as written. Tags read from
// blocks keep their "#", so added ones do as well.
func cleanTags(tags []string) []string {
	var out []string
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || tag == "#" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
