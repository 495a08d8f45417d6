package chunker

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// markdownBlocks cuts src at the start of every top-level markdown block.
// Concatenating the result reproduces src exactly.
func markdownBlocks(src string) []string {
	md := []byte(src)
	root := goldmark.DefaultParser().Parse(text.NewReader(md))

	starts := []int{0}
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		pos, ok := firstLine(n)
		if !ok {
			continue
		}
		pos = lineStart(md, pos)
		if _, fenced := n.(*ast.FencedCodeBlock); fenced && pos > 0 {
			// opening fence sits on the line above the first content line
			pos = lineStart(md, pos-1)
		}
		if pos > starts[len(starts)-1] {
			starts = append(starts, pos)
		}
	}

	blocks := make([]string, 0, len(starts))
	for i, start := range starts {
		end := len(md)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		if end > start {
			blocks = append(blocks, src[start:end])
		}
	}
	return blocks
}

// firstLine returns the offset of the first source line owned by n or its descendants
func firstLine(n ast.Node) (int, bool) {
	if n.Type() == ast.TypeBlock {
		if lines := n.Lines(); lines != nil && lines.Len() > 0 {
			return lines.At(0).Start, true
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if pos, ok := firstLine(c); ok {
			return pos, true
		}
	}
	return 0, false
}

func lineStart(md []byte, pos int) int {
	for pos > 0 && md[pos-1] != '\n' {
		pos--
	}
	return pos
}
