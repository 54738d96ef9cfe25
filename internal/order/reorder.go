package order

import "github.com/starford/kanbo/internal/board"

// SetAuto installs rule on column. The column's stored order is rewritten to
// the sorted order, discarding any manual arrangement.
func SetAuto(b *board.Board, column string, rule Rule, elapsed ElapsedFunc) {
	m := b.Meta(column)
	m.SortField = rule.Field
	m.SortOrder = rule.Order
	manual := false
	m.ManualSort = &manual
	materialize(b, column, elapsed)
}

// SetManual switches column to manual order, keeping what is displayed now.
func SetManual(b *board.Board, column string, elapsed ElapsedFunc) {
	materialize(b, column, elapsed)
	m := b.Meta(column)
	manual := true
	m.ManualSort = &manual
}

// SortHeaderClicked handles a click on a column's sort control: the active
// field flips direction, any other field sorts ascending. The resulting rule
// is returned.
func SortHeaderClicked(b *board.Board, column string, field board.SortField, elapsed ElapsedFunc) Rule {
	rule := Rule{Field: field, Order: board.Asc}
	if cur, ok := RuleOf(b, column); ok && cur.Field == field && cur.Order == board.Asc {
		rule.Order = board.Desc
	}
	SetAuto(b, column, rule, elapsed)
	return rule
}

// materialize writes the displayed order of column back into the stored task
// order, reusing the slots the column's tasks already occupy.
func materialize(b *board.Board, column string, elapsed ElapsedFunc) {
	ordered := ColumnTasks(b, column, elapsed)
	next := 0
	for i, t := range b.Tasks {
		if b.ColumnOf(t) == column {
			b.Tasks[i] = ordered[next]
			next++
		}
	}
}

// Reorder moves task into column, next to target. With insertBefore the task
// lands before target, otherwise after it; a nil target appends to the end of
// the column. Dropping a task onto itself does nothing. A column sorted
// automatically is switched to manual first, seeded with what it displayed.
// Reorder reports whether the board changed.
func Reorder(b *board.Board, task *board.Task, column string, target *board.Task, insertBefore bool, elapsed ElapsedFunc) bool {
	if task == target {
		return false
	}
	if target != nil && b.ColumnOf(target) != column {
		target = nil
	}
	flipped := !IsManual(b, column)
	if flipped {
		SetManual(b, column, elapsed)
	}

	from := b.ColumnOf(task)
	oldIndex := indexOf(b.Tasks, task)
	if oldIndex >= 0 {
		b.Tasks = append(b.Tasks[:oldIndex], b.Tasks[oldIndex+1:]...)
	}
	task.SetStatus(column)

	insertAt := len(b.Tasks)
	if target != nil {
		insertAt = indexOf(b.Tasks, target)
		if !insertBefore {
			insertAt++
		}
	} else if last := lastInColumn(b, column); last >= 0 {
		insertAt = last + 1
	}

	b.Tasks = append(b.Tasks, nil)
	copy(b.Tasks[insertAt+1:], b.Tasks[insertAt:])
	b.Tasks[insertAt] = task

	return flipped || from != column || insertAt != oldIndex
}

func indexOf(tasks []*board.Task, t *board.Task) int {
	for i, x := range tasks {
		if x == t {
			return i
		}
	}
	return -1
}

func lastInColumn(b *board.Board, column string) int {
	last := -1
	for i, t := range b.Tasks {
		if b.ColumnOf(t) == column {
			last = i
		}
	}
	return last
}
