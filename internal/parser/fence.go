package parser

import (
	"bytes"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// The goldmark configuration never changes, and Parse keeps its state per
// call, so one instance is shared.
var (
	markdownOnce     sync.Once
	markdownInstance goldmark.Markdown
)

func markdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInstance = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdownInstance
}

// Fence is a fenced code block located in a document.
type Fence struct {
	// Language is the first word of the info string.
	Language string
	// Start and End delimit the block's inner text: from the first byte of
	// the line after the opening fence up to the first byte of the closing
	// fence line (or end of input).
	Start, End int
	// Nested is set for fences inside a container such as a list item or
	// blockquote, whose inner lines carry container prefixes.
	Nested bool
}

// Fences returns the fenced code blocks of data in source order. A non-empty
// language keeps only blocks whose info language matches it, ignoring case.
// Fences shown inside other code blocks are not blocks and are not returned.
func Fences(data []byte, language string) []Fence {
	doc := markdown().Parser().Parse(text.NewReader(data))

	var out []Fence
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		lang := string(block.Language(data))
		if language == "" || strings.EqualFold(lang, language) {
			out = append(out, span(block, data, lang))
		}
		return ast.WalkSkipChildren, nil
	})
	return out
}

func span(block *ast.FencedCodeBlock, data []byte, lang string) Fence {
	f := Fence{Language: lang}
	if _, top := block.Parent().(*ast.Document); !top {
		f.Nested = true
	}

	lines := block.Lines()
	if lines.Len() == 0 {
		pos := len(data)
		if block.Info != nil {
			pos = lineEnd(data, block.Info.Segment.Stop)
		}
		f.Start, f.End = pos, pos
		return f
	}

	f.Start = lineStart(data, lines.At(0).Start)
	f.End = lines.At(lines.Len() - 1).Stop
	return f
}

func lineStart(data []byte, pos int) int {
	return bytes.LastIndexByte(data[:pos], '\n') + 1
}

func lineEnd(data []byte, pos int) int {
	if i := bytes.IndexByte(data[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(data)
}
