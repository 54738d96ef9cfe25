package boardservice

import (
	"context"
	"log/slog"
	"time"
)

// TickTimers calls fn with the running timers every interval until ctx is
// done. Ticks with no running timers are skipped. ready, when non-nil,
// reports whether anyone is listening; ticks are skipped while it is false.
func (s *Service) TickTimers(ctx context.Context, interval time.Duration, ready func() bool, fn func([]TimerStatus)) {
	t := s.clock.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if ready != nil && !ready() {
				continue
			}
			timers, err := s.RunningTimers(ctx)
			if err != nil {
				s.logger.Warn("timer tick failed", slog.String("error", err.Error()))
				continue
			}
			if len(timers) > 0 {
				fn(timers)
			}
		}
	}
}
