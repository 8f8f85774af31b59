// Package pdf provides the Normaliser for PDF documents.
//
// Text runs set in a font clearly larger than the body font are treated as
// headings. Documents without such runs, or whose styled text cannot be
// decoded, fall back to plain text in a single untitled section.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/core/ports/driven"
	"github.com/custodia-labs/chatd/internal/logger"
	"github.com/custodia-labs/chatd/internal/normalisers/sections"
)

const (
	// HeadingRatio is how much larger than the body font a heading must be.
	HeadingRatio = 1.25

	// MaxHeadingLength caps heading length in characters; longer runs are body text.
	MaxHeadingLength = 120
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles PDF documents.
type Normaliser struct {
	seg driven.TextSegmenter
}

// New creates a new PDF normaliser.
func New(seg driven.TextSegmenter) *Normaliser {
	return &Normaliser{seg: seg}
}

// Format returns the format this normaliser handles.
func (n *Normaliser) Format() domain.DocumentFormat {
	return domain.FormatPDF
}

// Normalise extracts sections from the PDF.
func (n *Normaliser) Normalise(_ context.Context, path string, content []byte) (*domain.Document, error) {
	reader, err := decode(func() (*pdf.Reader, error) {
		return pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrParse, err)
	}

	texts, err := decode(reader.GetStyledTexts)
	if err != nil {
		logger.Debug("Styled text unavailable for %s: %v", path, err)
	} else if secs, ok := n.structured(texts); ok {
		return &domain.Document{Sections: secs}, nil
	}

	plain, err := decode(func() (string, error) {
		r, err := reader.GetPlainText()
		if err != nil {
			return "", err
		}
		b, err := io.ReadAll(r)
		return string(b), err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrParse, err)
	}
	return &domain.Document{Sections: sections.Single(n.seg, plain)}, nil
}

// structured builds sections from styled runs. It reports false when the
// document has no heading-sized runs.
func (n *Normaliser) structured(texts []pdf.Text) ([]domain.Section, bool) {
	lines := joinLines(texts)
	body := bodyFontSize(lines)
	if body <= 0 {
		return nil, false
	}

	b := sections.NewBuilder(n.seg)
	var heading strings.Builder
	found := false
	for _, l := range lines {
		if isHeading(l, body) {
			if heading.Len() > 0 {
				heading.WriteByte(' ')
			}
			heading.WriteString(strings.TrimSpace(l.S))
			found = true
			continue
		}
		if heading.Len() > 0 {
			b.Heading(heading.String())
			heading.Reset()
		}
		b.Paragraph(l.S)
	}
	if heading.Len() > 0 {
		b.Heading(heading.String())
	}
	if !found {
		return nil, false
	}
	return b.Sections(), true
}

func isHeading(l pdf.Text, body float64) bool {
	text := strings.TrimSpace(l.S)
	return text != "" && l.FontSize >= body*HeadingRatio && len(text) < MaxHeadingLength
}

// joinLines merges runs that share a baseline and font size.
func joinLines(texts []pdf.Text) []pdf.Text {
	var lines []pdf.Text
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		if len(lines) > 0 {
			last := &lines[len(lines)-1]
			if sameLine(*last, t) {
				if gap := t.X - (last.X + last.W); gap > 1 && !strings.HasSuffix(last.S, " ") {
					last.S += " "
				}
				last.S += t.S
				last.W = t.X + t.W - last.X
				continue
			}
		}
		lines = append(lines, t)
	}
	return lines
}

func sameLine(a, b pdf.Text) bool {
	return math.Abs(a.Y-b.Y) < 0.5 && math.Abs(a.FontSize-b.FontSize) < 0.5
}

// bodyFontSize returns the font size that covers the most characters.
func bodyFontSize(lines []pdf.Text) float64 {
	weights := make(map[float64]int)
	for _, l := range lines {
		size := math.Round(l.FontSize*2) / 2
		weights[size] += len(strings.TrimSpace(l.S))
	}
	best, bestWeight := 0.0, 0
	for size, w := range weights {
		if w > bestWeight || (w == bestWeight && size < best) {
			best, bestWeight = size, w
		}
	}
	return best
}

// decode runs fn and converts a decoder panic into an error.
func decode[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf decoder panic: %v", r)
		}
	}()
	return fn()
}
