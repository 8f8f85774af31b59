// Package plaintext provides the Normaliser for plain text files and any
// file whose extension is not recognised.
package plaintext

import (
	"context"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/core/ports/driven"
	"github.com/custodia-labs/chatd/internal/normalisers/sections"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct {
	seg driven.TextSegmenter
}

// New creates a new plain text normaliser.
func New(seg driven.TextSegmenter) *Normaliser {
	return &Normaliser{seg: seg}
}

// Format returns the format this normaliser handles.
func (n *Normaliser) Format() domain.DocumentFormat {
	return domain.FormatText
}

// Normalise produces a single untitled section.
func (n *Normaliser) Normalise(_ context.Context, _ string, content []byte) (*domain.Document, error) {
	return &domain.Document{Sections: sections.Single(n.seg, string(content))}, nil
}
