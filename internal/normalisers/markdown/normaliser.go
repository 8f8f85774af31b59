// Package markdown provides the Normaliser for Markdown documents.
// Headings label sections; every other block is body text.
package markdown

import (
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/core/ports/driven"
	"github.com/custodia-labs/chatd/internal/normalisers/sections"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct {
	seg driven.TextSegmenter
	md  goldmark.Markdown
}

// New creates a new Markdown normaliser.
func New(seg driven.TextSegmenter) *Normaliser {
	return &Normaliser{seg: seg, md: goldmark.New()}
}

// Format returns the format this normaliser handles.
func (n *Normaliser) Format() domain.DocumentFormat {
	return domain.FormatMarkdown
}

// Normalise walks the top-level blocks of the document.
// Link and image markup left in the raw lines is stripped by the segmenter.
func (n *Normaliser) Normalise(_ context.Context, _ string, content []byte) (*domain.Document, error) {
	root := n.md.Parser().Parse(text.NewReader(content))

	b := sections.NewBuilder(n.seg)
	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		if _, ok := node.(*ast.Heading); ok {
			b.Heading(blockText(node, content))
			continue
		}
		b.Paragraph(blockText(node, content))
	}

	return &domain.Document{Sections: b.Sections()}, nil
}

// blockText returns the raw source lines of a block and its nested blocks.
func blockText(node ast.Node, source []byte) string {
	var sb strings.Builder
	collectLines(node, source, &sb)
	return sb.String()
}

func collectLines(node ast.Node, source []byte, sb *strings.Builder) {
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
		sb.WriteByte('\n')
	}
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		if child.Type() == ast.TypeBlock {
			collectLines(child, source, sb)
		}
	}
}
