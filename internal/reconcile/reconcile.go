// Package reconcile maps an in-memory board back onto the kanban block it
// came from, among any number of kanban blocks in a Markdown document, and
// rewrites that block in place.
package reconcile

import (
	"fmt"

	"github.com/starford/kanbo/internal/apperr"
	"github.com/starford/kanbo/internal/board"
	"github.com/starford/kanbo/internal/parser"
)

// Language is the info string that marks a kanban block.
const Language = "kanban"

// ErrUnsupportedBlock marks blocks inside lists or blockquotes. Their inner lines
// carry container prefixes, so they are read-only.
var ErrUnsupportedBlock = fmt.Errorf("kanban block inside a list or quote cannot be edited: %w", apperr.ErrParse)

// Block is one kanban block of a document.
type Block struct {
	// Index is the position among the document's kanban blocks.
	Index int
	// Start and End delimit the inner text, fences excluded.
	Start, End int
	Content    []byte
	Nested     bool
	// Board is nil when Err is set.
	Board *board.Board
	Err   error
}

// Valid reports whether the block parsed as a board.
func (b Block) Valid() bool {
	return b.Err == nil && b.Board != nil
}

// Extract returns every kanban block of doc in source order. Blocks that fail
// to parse are returned with Err set; they never abort the scan.
func Extract(doc []byte) []Block {
	fences := parser.Fences(doc, Language)
	blocks := make([]Block, 0, len(fences))
	for i, f := range fences {
		blk := Block{
			Index:   i,
			Start:   f.Start,
			End:     f.End,
			Content: doc[f.Start:f.End],
			Nested:  f.Nested,
		}
		if f.Nested {
			blk.Err = ErrUnsupportedBlock
		} else {
			blk.Board, blk.Err = board.Deserialize(blk.Content)
		}
		blocks = append(blocks, blk)
	}
	return blocks
}

type hintKind int

const (
	hintNone hintKind = iota
	hintTask
	hintNewTask
)

// Hint tells Locate which task an edit concerns.
type Hint struct {
	kind  hintKind
	title string
}

// AnyTask is the hint for edits not tied to a task (column or view changes).
func AnyTask() Hint { return Hint{kind: hintNone} }

// ForTask is the hint for an edit of the task titled title. An empty title is
// the new-task hint.
func ForTask(title string) Hint {
	if title == "" {
		return ForNewTask()
	}
	return Hint{kind: hintTask, title: title}
}

// ForNewTask is the hint for an edit that creates a task: no specific task
// is known, but some block must still be chosen.
func ForNewTask() Hint { return Hint{kind: hintNewTask} }

func (h Hint) String() string {
	switch h.kind {
	case hintTask:
		return fmt.Sprintf("task %q", h.title)
	case hintNewTask:
		return "new task"
	}
	return "any"
}

// Locator selects the block representing a board.
type Locator struct {
	// FirstBlockFallback picks the first block when no rule matches. It can
	// overwrite an unrelated block, so it is off unless configured.
	FirstBlockFallback bool
}

// NoPreference is the prefer argument of Locate and Select when the caller
// has no block of its own.
const NoPreference = -1

// Locate extracts the blocks of doc and selects the one for candidate.
func (l Locator) Locate(doc []byte, candidate *board.Board, hint Hint, prefer int) (Block, error) {
	return l.Select(Extract(doc), candidate, hint, prefer)
}

// Select picks a block, in priority order:
//  1. a valid block holding the hinted task;
//  2. a valid block whose title set equals the candidate's;
//  3. for new-task hints, a valid block with any task;
//  4. with FirstBlockFallback, the first block.
//
// Within the first three rules block prefer, the one the board was last read
// from or written to, wins when it qualifies; otherwise the first qualifying
// block in document order does.
func (l Locator) Select(blocks []Block, candidate *board.Board, hint Hint, prefer int) (Block, error) {
	if len(blocks) == 0 {
		return Block{}, fmt.Errorf("reconcile: document has no kanban block: %w", apperr.ErrLocate)
	}

	if hint.kind == hintTask {
		if blk, ok := pick(blocks, prefer, func(b *board.Board) bool { return b.Task(hint.title) != nil }); ok {
			return blk, nil
		}
	}

	want := candidate.TitleSet()
	if blk, ok := pick(blocks, prefer, func(b *board.Board) bool { return sameTitles(b.TitleSet(), want) }); ok {
		return blk, nil
	}

	if hint.kind == hintNewTask {
		if blk, ok := pick(blocks, prefer, func(b *board.Board) bool { return len(b.Tasks) > 0 }); ok {
			return blk, nil
		}
	}

	if l.FirstBlockFallback {
		return blocks[0], nil
	}
	return Block{}, fmt.Errorf("reconcile: no block matches %s among %d: %w", hint, len(blocks), apperr.ErrLocate)
}

// pick returns blocks[prefer] if it is valid and matches, else the first
// valid matching block.
func pick(blocks []Block, prefer int, match func(*board.Board) bool) (Block, bool) {
	if prefer >= 0 && prefer < len(blocks) {
		if blk := blocks[prefer]; blk.Valid() && match(blk.Board) {
			return blk, true
		}
	}
	for _, blk := range blocks {
		if blk.Valid() && match(blk.Board) {
			return blk, true
		}
	}
	return Block{}, false
}

func sameTitles(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
