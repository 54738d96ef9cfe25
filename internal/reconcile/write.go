package reconcile

import (
	"bytes"
	"fmt"

	"github.com/starford/kanbo/internal/board"
)

// Write replaces the inner text of blk in doc with the serialization of b,
// leaving fences and everything else untouched. The block's current shape
// is kept (see board.Serialize); an unparseable block takes the board's own
// shape. changed is false, and doc is returned as is, when the new text
// equals the old.
func Write(doc []byte, blk Block, b *board.Board) (out []byte, changed bool, err error) {
	if blk.Nested {
		return nil, false, ErrUnsupportedBlock
	}
	if blk.Start < 0 || blk.End > len(doc) || blk.Start > blk.End {
		return nil, false, fmt.Errorf("reconcile: block span [%d,%d) outside document of %d bytes", blk.Start, blk.End, len(doc))
	}

	content, err := board.Serialize(b, ShapeFor(blk, b))
	if err != nil {
		return nil, false, err
	}
	eol := lineEnding(doc, blk.Start)
	if len(eol) > 1 {
		content = bytes.ReplaceAll(content, []byte("\n"), eol)
	}
	if bytes.Equal(content, doc[blk.Start:blk.End]) {
		return doc, false, nil
	}

	var lead []byte
	if blk.Start > 0 && doc[blk.Start-1] != '\n' {
		// Opening fence is the last line and has no newline yet.
		lead = eol
	}

	out = make([]byte, 0, len(doc)-(blk.End-blk.Start)+len(lead)+len(content))
	out = append(out, doc[:blk.Start]...)
	out = append(out, lead...)
	out = append(out, content...)
	out = append(out, doc[blk.End:]...)
	return out, true, nil
}

// ShapeFor is the shape Write gives b in blk, before promotion: the block's
// current shape, or the board's own when the block does not parse.
func ShapeFor(blk Block, b *board.Board) board.Shape {
	if blk.Valid() {
		return blk.Board.Shape
	}
	return b.Shape
}

var (
	lf   = []byte("\n")
	crlf = []byte("\r\n")
)

// lineEnding is the line break of the opening fence line ending at start,
// or of the document when that line has none.
func lineEnding(doc []byte, start int) []byte {
	if start > 0 && doc[start-1] == '\n' {
		if start > 1 && doc[start-2] == '\r' {
			return crlf
		}
		return lf
	}
	if bytes.Contains(doc, crlf) {
		return crlf
	}
	return lf
}
