// Package session holds one open board view: the Board read from a kanban
// block, the user's intents against it, and the write-back of every change
// into the document the block lives in.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/kanbo/internal/apperr"
	"github.com/starford/kanbo/internal/board"
	"github.com/starford/kanbo/internal/clock"
	"github.com/starford/kanbo/internal/filter"
	"github.com/starford/kanbo/internal/reconcile"
	"github.com/starford/kanbo/internal/timer"
)

// Document is the text a view reads its block from and writes it back to.
type Document interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// Renderer receives a snapshot after every change.
type Renderer interface {
	RenderBoard(Snapshot)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(Snapshot)

// RenderBoard calls f(s).
func (f RendererFunc) RenderBoard(s Snapshot) { f(s) }

// Deps carries what a view needs besides its document. Zero values are
// replaced by defaults.
type Deps struct {
	Clock      clock.Clock
	Locator    reconcile.Locator
	Thresholds timer.Thresholds
	Renderer   Renderer
	Logger     *slog.Logger
}

// View is a live board for one kanban block. It is not safe for concurrent
// use; the host serializes access per document.
type View struct {
	doc      Document
	board    *board.Board
	baseline *board.Board
	block    int

	clock    clock.Clock
	timer    *timer.Engine
	locator  reconcile.Locator
	bands    timer.Thresholds
	renderer Renderer
	logger   *slog.Logger

	query filter.Query
}

// Open reads doc and builds a view over its kanban block number blockIndex.
// A malformed block yields its parse error.
func Open(ctx context.Context, doc Document, blockIndex int, deps Deps) (*View, error) {
	data, err := doc.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: read document: %w", err)
	}
	blocks := reconcile.Extract(data)
	if blockIndex < 0 || blockIndex >= len(blocks) {
		return nil, fmt.Errorf("session: block %d of %d: %w", blockIndex, len(blocks), apperr.ErrNotFound)
	}
	blk := blocks[blockIndex]
	if !blk.Valid() {
		return nil, blk.Err
	}

	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Thresholds == (timer.Thresholds{}) {
		deps.Thresholds = timer.DefaultThresholds
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	v := &View{
		doc:      doc,
		board:    blk.Board,
		block:    blk.Index,
		clock:    deps.Clock,
		timer:    timer.New(deps.Clock),
		locator:  deps.Locator,
		bands:    deps.Thresholds,
		renderer: deps.Renderer,
		logger:   deps.Logger,
	}
	v.baseline = titlesOf(v.board)
	v.render()
	return v, nil
}

// Board returns the live board. Callers must not keep it past the view.
func (v *View) Board() *board.Board { return v.board }

// Block is the index of the block the view was last read from or written to.
func (v *View) Block() int { return v.block }

// Timer returns the view's timer engine.
func (v *View) Timer() *timer.Engine { return v.timer }

// Refresh re-renders without changing anything, e.g. to advance running
// timers on screen.
func (v *View) Refresh() { v.render() }

func (v *View) render() {
	if v.renderer != nil {
		v.renderer.RenderBoard(v.Snapshot())
	}
}

// commit renders the changed board and writes it back to the document. The
// board stays as changed whether or not the write succeeds.
func (v *View) commit(ctx context.Context, hint reconcile.Hint) error {
	v.render()
	return v.flush(ctx, hint)
}

func (v *View) flush(ctx context.Context, hint reconcile.Hint) error {
	data, err := v.doc.Read(ctx)
	if err != nil {
		v.logger.Error("read document failed", slog.String("error", err.Error()))
		return fmt.Errorf("session: read document: %w: %w", apperr.ErrWrite, err)
	}

	// The document still holds the titles of the last sync, so they are the
	// match key; the live board may already carry a new or renamed title.
	// Blocks sharing that key resolve to the one this view came from.
	blk, err := v.locator.Locate(data, v.baseline, hint, v.block)
	if err != nil {
		v.logger.Warn("board not persisted",
			slog.Int("block", v.block),
			slog.String("hint", hint.String()),
			slog.String("error", err.Error()),
		)
		return err
	}

	out, changed, err := reconcile.Write(data, blk, v.board)
	if err != nil {
		v.logger.Error("serialize board failed", slog.Int("block", blk.Index), slog.String("error", err.Error()))
		return fmt.Errorf("session: %w: %w", apperr.ErrWrite, err)
	}
	if changed {
		if err := v.doc.Write(ctx, out); err != nil {
			v.logger.Error("write document failed", slog.Int("block", blk.Index), slog.String("error", err.Error()))
			return fmt.Errorf("session: write document: %w: %w", apperr.ErrWrite, err)
		}
	}

	v.block = blk.Index
	v.board.Shape = board.EffectiveShape(v.board, reconcile.ShapeFor(blk, v.board))
	v.baseline = titlesOf(v.board)
	return nil
}

func titlesOf(b *board.Board) *board.Board {
	out := &board.Board{Tasks: make([]*board.Task, len(b.Tasks))}
	for i, t := range b.Tasks {
		out.Tasks[i] = &board.Task{Title: t.Title}
	}
	return out
}
