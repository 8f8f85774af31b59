// Package sections groups paragraphs under their headings and segments each
// group into chunks. It is shared by every normaliser that understands
// document structure.
package sections

import (
	"strings"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/core/ports/driven"
)

// Builder accumulates headings and paragraphs in reading order.
//
// Text before the first heading becomes a section with an empty label.
// A heading whose body segments to nothing produces no section.
type Builder struct {
	seg      driven.TextSegmenter
	label    string
	body     strings.Builder
	sections []domain.Section
}

// NewBuilder creates a builder that segments bodies with seg.
func NewBuilder(seg driven.TextSegmenter) *Builder {
	return &Builder{seg: seg}
}

// Heading closes the current section and starts a new one.
func (b *Builder) Heading(text string) {
	b.flush()
	b.label = strings.TrimSpace(text)
}

// Paragraph appends body text to the current section.
func (b *Builder) Paragraph(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	b.body.WriteString(text)
	b.body.WriteByte('\n')
}

// Sections closes the current section and returns everything built so far.
func (b *Builder) Sections() []domain.Section {
	b.flush()
	return b.sections
}

func (b *Builder) flush() {
	chunks := b.seg.Segment(b.body.String())
	b.body.Reset()
	if len(chunks) == 0 {
		return
	}
	section := domain.Section{Label: b.label, Chunks: make([]domain.Chunk, len(chunks))}
	for i, c := range chunks {
		section.Chunks[i] = domain.Chunk{Text: c}
	}
	b.sections = append(b.sections, section)
}

// Single segments text into one untitled section.
// Returns no sections when the text has no content.
func Single(seg driven.TextSegmenter, text string) []domain.Section {
	b := NewBuilder(seg)
	b.Paragraph(text)
	return b.Sections()
}
