// Package odt provides the Normaliser for OpenDocument text files.
// text:h elements start sections; text:p elements are body text.
package odt

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/core/ports/driven"
	"github.com/custodia-labs/chatd/internal/logger"
	"github.com/custodia-labs/chatd/internal/normalisers/sections"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles ODT documents.
type Normaliser struct {
	seg driven.TextSegmenter
}

// New creates a new ODT normaliser.
func New(seg driven.TextSegmenter) *Normaliser {
	return &Normaliser{seg: seg}
}

// Format returns the format this normaliser handles.
func (n *Normaliser) Format() domain.DocumentFormat {
	return domain.FormatODT
}

// Normalise reads content.xml and walks its headings and paragraphs.
// A malformed archive or XML yields an empty document, not an error.
func (n *Normaliser) Normalise(_ context.Context, path string, content []byte) (*domain.Document, error) {
	xmlContent, err := readContent(content)
	if err != nil {
		logger.Warn("Could not open %s as an OpenDocument file: %v", path, err)
		return &domain.Document{}, nil
	}

	b := sections.NewBuilder(n.seg)
	if err := walk(xmlContent, b); err != nil {
		logger.Warn("Could not read the text of %s: %v", path, err)
		return &domain.Document{}, nil
	}
	return &domain.Document{Sections: b.Sections()}, nil
}

func readContent(content []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}
	for _, f := range zr.File {
		if f.Name != "content.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("content.xml not found")
}

// walk feeds headings and paragraphs to b in document order.
// Paragraphs nested in another block (notes, frames) join the outer block.
func walk(content []byte, b *sections.Builder) error {
	dec := xml.NewDecoder(bytes.NewReader(content))

	var (
		text    strings.Builder
		depth   int
		heading bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "h", "p":
				if depth == 0 {
					text.Reset()
					heading = t.Name.Local == "h"
				}
				depth++
			case "s":
				if depth > 0 {
					text.WriteString(strings.Repeat(" ", spaceCount(t)))
				}
			case "tab":
				if depth > 0 {
					text.WriteByte(' ')
				}
			case "line-break":
				if depth > 0 {
					text.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Local != "h" && t.Name.Local != "p" || depth == 0 {
				continue
			}
			depth--
			if depth > 0 {
				text.WriteByte(' ')
				continue
			}
			if heading {
				b.Heading(text.String())
			} else {
				b.Paragraph(text.String())
			}
		case xml.CharData:
			if depth > 0 {
				text.Write(t)
			}
		}
	}
}

// maxSpaces caps a text:s run. Whitespace is collapsed when segmenting.
const maxSpaces = 16

// spaceCount reads the text:c attribute of a text:s element.
func spaceCount(e xml.StartElement) int {
	for _, a := range e.Attr {
		if a.Name.Local == "c" {
			if n, err := strconv.Atoi(a.Value); err == nil && n > 0 {
				return min(n, maxSpaces)
			}
		}
	}
	return 1
}
