// Package timer implements time tracking on board tasks: elapsed accounting,
// the single-running-timer rule, and the automatic start/stop that follows a
// task between columns.
package timer

import (
	"time"

	"github.com/starford/kanbo/internal/board"
	"github.com/starford/kanbo/internal/clock"
)

// Engine tracks time against a clock.
type Engine struct {
	clock clock.Clock
}

// New returns an Engine reading time from c.
func New(c clock.Clock) *Engine {
	return &Engine{clock: c}
}

func (e *Engine) now() board.Timestamp {
	return board.NewTimestamp(e.clock.Now())
}

// IsRunning reports whether t has an open timer entry.
func IsRunning(t *board.Task) bool {
	return t.RunningEntry() != nil
}

// Elapsed sums every entry of t, counting open entries up to now.
func (e *Engine) Elapsed(t *board.Task) time.Duration {
	return ElapsedAt(t, e.clock.Now())
}

// ElapsedAt is Elapsed evaluated at now.
func ElapsedAt(t *board.Task, now time.Time) time.Duration {
	var total time.Duration
	for _, entry := range t.TimerEntries {
		end := now
		if entry.End != nil {
			end = entry.End.Time
		}
		if d := end.Sub(entry.Start.Time); d > 0 {
			total += d
		}
	}
	return total
}

// Start stops every other running timer on b, then opens an entry on t. A
// task that is already running is left as is.
func (e *Engine) Start(b *board.Board, t *board.Task) {
	for _, other := range b.Tasks {
		if other != t {
			e.Stop(other)
		}
	}
	if IsRunning(t) {
		return
	}
	t.TimerEntries = append(t.TimerEntries, board.TimerEntry{Start: e.now()})
}

// Stop closes the open entry of t. It reports whether anything was stopped.
func (e *Engine) Stop(t *board.Task) bool {
	entry := t.RunningEntry()
	if entry == nil {
		return false
	}
	end := e.now()
	entry.End = &end
	return true
}

// Toggle stops t if it runs, otherwise starts it. It returns the new
// running state.
func (e *Engine) Toggle(b *board.Board, t *board.Task) bool {
	if e.Stop(t) {
		return false
	}
	e.Start(b, t)
	return true
}

// StopAll closes every open entry on b and returns the affected tasks.
func (e *Engine) StopAll(b *board.Board) []*board.Task {
	var stopped []*board.Task
	for _, t := range b.Tasks {
		if e.Stop(t) {
			stopped = append(stopped, t)
		}
	}
	return stopped
}

// OnStatusChange applies timer automation after t moved from column from to
// column to. Entering an in-progress column starts t (stopping all others);
// leaving one stops t; any other move leaves timers alone.
func (e *Engine) OnStatusChange(b *board.Board, t *board.Task, from, to string) {
	fromActive := b.StateOf(from) == board.StateInProgress
	toActive := b.StateOf(to) == board.StateInProgress

	switch {
	case toActive:
		e.Start(b, t)
	case fromActive:
		e.Stop(t)
	}
}

// Running returns the tasks of b with an open entry. After any sequence of
// engine calls there is at most one.
func Running(b *board.Board) []*board.Task {
	var out []*board.Task
	for _, t := range b.Tasks {
		if IsRunning(t) {
			out = append(out, t)
		}
	}
	return out
}
