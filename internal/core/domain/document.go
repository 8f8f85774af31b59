package domain

import (
	"path/filepath"
	"strings"
)

// DocumentFormat identifies which parser handles a document.
// The set is closed: every format has exactly one normaliser.
type DocumentFormat string

// Supported document formats.
const (
	FormatText     DocumentFormat = "text"
	FormatMarkdown DocumentFormat = "markdown"
	FormatPDF      DocumentFormat = "pdf"
	FormatDOCX     DocumentFormat = "docx"
	FormatODT      DocumentFormat = "odt"
	FormatHTML     DocumentFormat = "html"
)

// AllFormats lists every supported format.
func AllFormats() []DocumentFormat {
	return []DocumentFormat{FormatText, FormatMarkdown, FormatPDF, FormatDOCX, FormatODT, FormatHTML}
}

// String returns the string representation.
func (f DocumentFormat) String() string {
	return string(f)
}

// FormatFromPath picks the format from the file extension.
// Unknown extensions are treated as plain text.
func FormatFromPath(path string) DocumentFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".odt":
		return FormatODT
	case ".html", ".htm":
		return FormatHTML
	default:
		return FormatText
	}
}

// Chunk is the smallest unit of document text fed to the embedding model.
type Chunk struct {
	// Text is the chunk content.
	Text string
}

// Section groups the chunks that share a heading.
// Label is empty for formats without structural headings.
type Section struct {
	Label  string
	Chunks []Chunk
}

// Document is the parsed result of one user-selected file.
// It only lives long enough to be embedded and stored.
type Document struct {
	// FileName is the base name of the source file.
	FileName string

	// Format is the parser that produced the document.
	Format DocumentFormat

	// Sections are the document's sections in reading order.
	Sections []Section
}

// Texts returns the text of every chunk in document order.
func (d *Document) Texts() []string {
	if d == nil {
		return nil
	}
	texts := make([]string, 0, d.ChunkCount())
	for _, s := range d.Sections {
		for _, c := range s.Chunks {
			texts = append(texts, c.Text)
		}
	}
	return texts
}

// ChunkCount returns the number of chunks across all sections.
func (d *Document) ChunkCount() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, s := range d.Sections {
		n += len(s.Chunks)
	}
	return n
}

// SectionLabels returns the label of each section, including empty ones.
func (d *Document) SectionLabels() []string {
	if d == nil {
		return nil
	}
	labels := make([]string, len(d.Sections))
	for i, s := range d.Sections {
		labels[i] = s.Label
	}
	return labels
}

// Embedding pairs a chunk's text with its vector.
type Embedding struct {
	Text   string
	Vector []float32
}

// DocumentInfo describes the currently loaded document.
type DocumentInfo struct {
	FileName string
	Format   DocumentFormat
	Sections []string
	Chunks   int
}

// LoadResult is delivered once a document load finishes.
type LoadResult struct {
	// Success is true when the document was parsed, embedded and stored.
	Success bool

	// FileName is the loaded file's base name.
	FileName string

	// Chunks is the number of stored embeddings.
	Chunks int

	// Err is set when Success is false.
	Err error
}
