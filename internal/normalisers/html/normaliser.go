package html

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/core/ports/driven"
	"github.com/custodia-labs/chatd/internal/normalisers/sections"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct {
	seg driven.TextSegmenter
}

// New creates a new HTML normaliser.
func New(seg driven.TextSegmenter) *Normaliser {
	return &Normaliser{seg: seg}
}

// Format returns the format this normaliser handles.
func (n *Normaliser) Format() domain.DocumentFormat {
	return domain.FormatHTML
}

// blockKind says how the text of an open element is used.
type blockKind int

const (
	blockNone blockKind = iota
	blockHeading
	blockParagraph
)

// Normalise tokenizes the document and builds sections from its headings.
func (n *Normaliser) Normalise(_ context.Context, _ string, content []byte) (*domain.Document, error) {
	z := html.NewTokenizer(bytes.NewReader(content))
	b := sections.NewBuilder(n.seg)

	var (
		text  strings.Builder
		kind  blockKind
		open  atom.Atom
		skip  int
		loose strings.Builder
	)
	emit := func() {
		switch kind {
		case blockHeading:
			b.Heading(text.String())
		case blockParagraph:
			b.Paragraph(text.String())
		}
		text.Reset()
		kind = blockNone
	}
	flushLoose := func() {
		if strings.TrimSpace(loose.String()) != "" {
			b.Paragraph(loose.String())
		}
		loose.Reset()
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: %w", domain.ErrParse, err)
			}
			emit()
			flushLoose()
			return &domain.Document{Sections: b.Sections()}, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.DataAtom {
			case atom.Script, atom.Style, atom.Head, atom.Noscript, atom.Template:
				if tt == html.StartTagToken {
					skip++
				}
			case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
				emit()
				flushLoose()
				kind, open = blockHeading, tok.DataAtom
			case atom.P, atom.Li:
				if kind == blockHeading {
					continue
				}
				emit()
				flushLoose()
				kind, open = blockParagraph, tok.DataAtom
			case atom.Br:
				text.WriteByte('\n')
			}

		case html.EndTagToken:
			tok := z.Token()
			switch tok.DataAtom {
			case atom.Script, atom.Style, atom.Head, atom.Noscript, atom.Template:
				if skip > 0 {
					skip--
				}
			default:
				if kind != blockNone && tok.DataAtom == open {
					emit()
				}
			}

		case html.TextToken:
			if skip > 0 {
				continue
			}
			data := string(z.Text())
			if kind == blockNone {
				loose.WriteString(data)
				loose.WriteByte(' ')
				continue
			}
			text.WriteString(data)
		}
	}
}
