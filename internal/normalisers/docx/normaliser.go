// Package docx provides the Normaliser for Word documents.
// Paragraphs styled as headings or as the title start a new section.
package docx

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/core/ports/driven"
	"github.com/custodia-labs/chatd/internal/logger"
	"github.com/custodia-labs/chatd/internal/normalisers/sections"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles DOCX documents.
type Normaliser struct {
	seg driven.TextSegmenter
}

// New creates a new DOCX normaliser.
func New(seg driven.TextSegmenter) *Normaliser {
	return &Normaliser{seg: seg}
}

// Format returns the format this normaliser handles.
func (n *Normaliser) Format() domain.DocumentFormat {
	return domain.FormatDOCX
}

// Normalise reads word/document.xml and walks its paragraphs.
// A malformed archive or XML yields an empty document, not an error.
func (n *Normaliser) Normalise(_ context.Context, path string, content []byte) (*domain.Document, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		logger.Warn("Could not open %s as a Word document: %v", path, err)
		return &domain.Document{}, nil
	}
	defer r.Close()

	paras, err := paragraphs(r.Editable().GetContent())
	if err != nil {
		logger.Warn("Could not read the text of %s: %v", path, err)
		return &domain.Document{}, nil
	}

	b := sections.NewBuilder(n.seg)
	for _, p := range paras {
		if p.heading {
			b.Heading(p.text)
		} else {
			b.Paragraph(p.text)
		}
	}
	return &domain.Document{Sections: b.Sections()}, nil
}

type paragraph struct {
	text    string
	heading bool
}

// paragraphs extracts top-level w:p elements in order from document XML.
// Paragraphs nested inside one, as in text boxes, join the enclosing text.
func paragraphs(documentXML string) ([]paragraph, error) {
	dec := xml.NewDecoder(strings.NewReader(documentXML))

	var (
		out     []paragraph
		heading bool
		depth   int
		text    strings.Builder
		inText  bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					text.Reset()
					heading = false
				} else {
					text.WriteByte(' ')
				}
				depth++
			case "pStyle":
				if depth == 1 && isHeadingStyle(attr(t, "val")) {
					heading = true
				}
			case "t":
				inText = true
			case "tab":
				if depth > 0 {
					text.WriteByte(' ')
				}
			case "br", "cr":
				if depth > 0 {
					text.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if depth == 0 {
					continue
				}
				depth--
				if depth > 0 {
					text.WriteByte(' ')
					continue
				}
				out = append(out, paragraph{text: text.String(), heading: heading})
			}
		case xml.CharData:
			if inText && depth > 0 {
				text.Write(t)
			}
		}
	}
}

func isHeadingStyle(style string) bool {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	return strings.HasPrefix(s, "heading") || s == "title"
}

func attr(e xml.StartElement, local string) string {
	for _, a := range e.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
