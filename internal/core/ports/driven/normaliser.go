package driven

import (
	"context"

	"github.com/custodia-labs/chatd/internal/core/domain"
)

// TextSegmenter splits cleaned document text into chunks.
type TextSegmenter interface {
	// Segment returns the chunks of text in order.
	// Empty input yields an empty slice.
	Segment(text string) []string
}

// Normaliser turns the raw bytes of one document format into a Document.
// Each normaliser handles exactly one DocumentFormat.
type Normaliser interface {
	// Format returns the format this normaliser handles.
	Format() domain.DocumentFormat

	// Normalise parses content read from path.
	// The returned Document has its Sections populated; FileName and Format
	// are filled in by the DocumentParser.
	Normalise(ctx context.Context, path string, content []byte) (*domain.Document, error)
}

// DocumentParser reads a file and dispatches it to the right Normaliser.
type DocumentParser interface {
	// Parse reads and parses the file at path.
	// Returns ErrNoFileSelected for an empty path and ErrUnsupportedFormat
	// for formats that cannot be read as text.
	Parse(ctx context.Context, path string) (*domain.Document, error)
}
