// Package order computes the task order of board columns and applies
// drag-and-drop reorders. A column is either manual (stored task order is the
// truth) or auto (sorted by a declared key).
package order

import (
	"sort"
	"strings"
	"time"

	"github.com/starford/kanbo/internal/board"
)

// ElapsedFunc reports time spent on a task. It backs the timeSpent sort.
type ElapsedFunc func(*board.Task) time.Duration

// Rule is the automatic sort of a column.
type Rule struct {
	Field board.SortField
	Order board.SortOrder
}

// RuleOf returns the active automatic rule of column. ok is false for manual
// columns.
func RuleOf(b *board.Board, column string) (rule Rule, ok bool) {
	m, found := b.LookupMeta(column)
	if !found || m.SortField == "" {
		return Rule{}, false
	}
	if m.ManualSort != nil && *m.ManualSort {
		return Rule{}, false
	}
	dir := m.SortOrder
	if dir != board.Desc {
		dir = board.Asc
	}
	return Rule{Field: m.SortField, Order: dir}, true
}

// IsManual reports whether column keeps stored order.
func IsManual(b *board.Board, column string) bool {
	_, auto := RuleOf(b, column)
	return !auto
}

// ColumnTasks returns the tasks displayed in column, in display order.
func ColumnTasks(b *board.Board, column string, elapsed ElapsedFunc) []*board.Task {
	var out []*board.Task
	for _, t := range b.Tasks {
		if b.ColumnOf(t) == column {
			out = append(out, t)
		}
	}
	if rule, ok := RuleOf(b, column); ok {
		Sort(out, rule, elapsed)
	}
	return out
}

// Sort orders tasks by rule. The sort is stable, so ties keep stored order.
func Sort(tasks []*board.Task, rule Rule, elapsed ElapsedFunc) {
	less := comparator(rule, elapsed)
	sort.SliceStable(tasks, func(i, j int) bool {
		return less(tasks[i], tasks[j])
	})
}

func comparator(rule Rule, elapsed ElapsedFunc) func(a, b *board.Task) bool {
	desc := rule.Order == board.Desc
	directed := func(c int) bool {
		if desc {
			return c > 0
		}
		return c < 0
	}

	switch rule.Field {
	case board.SortByDueDate:
		// Undated tasks sink to the bottom in both directions.
		return func(a, b *board.Task) bool {
			ad, bd := present(a.DueDate), present(b.DueDate)
			switch {
			case !ad && !bd:
				return false
			case !ad:
				return false
			case !bd:
				return true
			}
			return directed(a.DueDate.Compare(b.DueDate.Time))
		}
	case board.SortByUpdated:
		// Missing update time counts as the earliest instant.
		return func(a, b *board.Task) bool {
			return directed(stamp(a.UpdateDateTime).Compare(stamp(b.UpdateDateTime)))
		}
	case board.SortByTitle:
		return func(a, b *board.Task) bool {
			return directed(strings.Compare(a.Title, b.Title))
		}
	case board.SortByTimeSpent:
		return func(a, b *board.Task) bool {
			ea, eb := elapsedOf(elapsed, a), elapsedOf(elapsed, b)
			switch {
			case ea < eb:
				return directed(-1)
			case ea > eb:
				return directed(1)
			}
			return false
		}
	}
	return func(a, b *board.Task) bool { return false }
}

func present(ts *board.Timestamp) bool {
	return ts != nil && !ts.IsZero()
}

func stamp(ts *board.Timestamp) time.Time {
	if !present(ts) {
		return time.Time{}
	}
	return ts.Time
}

func elapsedOf(fn ElapsedFunc, t *board.Task) time.Duration {
	if fn == nil {
		return 0
	}
	return fn(t)
}
