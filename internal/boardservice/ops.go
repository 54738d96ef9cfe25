package boardservice

import (
	"context"
	"time"

	"github.com/starford/kanbo/internal/board"
	"github.com/starford/kanbo/internal/session"
	"github.com/starford/kanbo/internal/timer"
)

// MoveTask moves title to column, before the task titled before.
func (s *Service) MoveTask(ctx context.Context, path string, block int, title, column, before string) (*Result, error) {
	return s.Apply(ctx, path, block, func(ctx context.Context, v *session.View) error {
		return v.MoveTask(ctx, title, column, before)
	})
}

// ToggleTimer starts or stops the timer of title.
func (s *Service) ToggleTimer(ctx context.Context, path string, block int, title string) (*Result, error) {
	return s.Apply(ctx, path, block, func(ctx context.Context, v *session.View) error {
		return v.ToggleTimer(ctx, title)
	})
}

// AddTask creates a task.
func (s *Service) AddTask(ctx context.Context, path string, block int, nt session.NewTask) (*Result, error) {
	return s.Apply(ctx, path, block, func(ctx context.Context, v *session.View) error {
		_, err := v.AddTask(ctx, nt)
		return err
	})
}

// UpdateTask renames title when newTitle is set, then applies edit.
func (s *Service) UpdateTask(ctx context.Context, path string, block int, title, newTitle string, edit session.TaskEdit) (*Result, error) {
	return s.Apply(ctx, path, block, func(ctx context.Context, v *session.View) error {
		if edit != (session.TaskEdit{}) {
			if err := v.EditTask(ctx, title, edit); err != nil {
				return err
			}
		}
		if newTitle != "" && newTitle != title {
			return v.RenameTask(ctx, title, newTitle)
		}
		return nil
	})
}

// DeleteTask removes title.
func (s *Service) DeleteTask(ctx context.Context, path string, block int, title string) (*Result, error) {
	return s.Apply(ctx, path, block, func(ctx context.Context, v *session.View) error {
		return v.DeleteTask(ctx, title)
	})
}

// SortColumn handles a sort header click. An empty field switches the column
// back to manual order.
func (s *Service) SortColumn(ctx context.Context, path string, block int, column string, field board.SortField) (*Result, error) {
	return s.Apply(ctx, path, block, func(ctx context.Context, v *session.View) error {
		if field == "" {
			return v.SetManualOrder(ctx, column)
		}
		return v.SortHeaderClicked(ctx, column, field)
	})
}

// ToggleCollapsed collapses or expands column.
func (s *Service) ToggleCollapsed(ctx context.Context, path string, block int, column string) (*Result, error) {
	return s.Apply(ctx, path, block, func(ctx context.Context, v *session.View) error {
		_, err := v.ToggleCollapsed(ctx, column)
		return err
	})
}

// SetViewMode switches the board layout.
func (s *Service) SetViewMode(ctx context.Context, path string, block int, mode board.View) (*Result, error) {
	return s.Apply(ctx, path, block, func(ctx context.Context, v *session.View) error {
		return v.SetViewMode(ctx, mode)
	})
}

// TimerStatus is one running timer as reported by timer.tick events.
type TimerStatus struct {
	Path           string     `json:"path"`
	Block          int        `json:"block"`
	Title          string     `json:"title"`
	Column         string     `json:"column"`
	Since          time.Time  `json:"since"`
	ElapsedSeconds float64    `json:"elapsed_seconds"`
	Progress       *float64   `json:"progress,omitempty"`
	Band           timer.Band `json:"band,omitempty"`
}

// RunningTimers reports every open timer in the vault from the index,
// evaluated at the current time. Documents are not read.
func (s *Service) RunningTimers(_ context.Context) ([]TimerStatus, error) {
	recs, err := s.db.RunningTimers()
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	out := make([]TimerStatus, 0, len(recs))
	for _, r := range recs {
		elapsed := r.ElapsedAt(now)
		st := TimerStatus{
			Path:           r.Path,
			Block:          r.Block,
			Title:          r.Title,
			Column:         r.Column,
			Since:          *r.RunningSince,
			ElapsedSeconds: elapsed.Seconds(),
		}
		if target := timer.TargetDuration(r.TargetTime, now); target > 0 {
			pct := 100 * float64(elapsed) / float64(target)
			st.Progress = &pct
			st.Band = timer.ProgressBand(pct, s.bands)
		}
		out = append(out, st)
	}
	return out, nil
}
