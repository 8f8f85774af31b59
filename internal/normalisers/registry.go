package normalisers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/core/ports/driven"
	"github.com/custodia-labs/chatd/internal/logger"
	"github.com/custodia-labs/chatd/internal/normalisers/docx"
	"github.com/custodia-labs/chatd/internal/normalisers/html"
	"github.com/custodia-labs/chatd/internal/normalisers/markdown"
	"github.com/custodia-labs/chatd/internal/normalisers/odt"
	"github.com/custodia-labs/chatd/internal/normalisers/pdf"
	"github.com/custodia-labs/chatd/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.DocumentParser = (*Registry)(nil)

// binaryExtensions are formats that would otherwise fall through to the
// plain text normaliser but cannot be read as text.
var binaryExtensions = map[string]bool{
	".doc": true, ".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
	".zip": true, ".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".mp3": true, ".mp4": true, ".exe": true,
}

// Registry dispatches documents to the normaliser for their format.
type Registry struct {
	mu          sync.RWMutex
	normalisers map[domain.DocumentFormat]driven.Normaliser
}

// NewRegistry creates a registry with the given normalisers.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{normalisers: make(map[domain.DocumentFormat]driven.Normaliser)}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// DefaultRegistry creates a registry with a normaliser for every supported format.
func DefaultRegistry(seg driven.TextSegmenter) *Registry {
	return NewRegistry(
		plaintext.New(seg),
		markdown.New(seg),
		pdf.New(seg),
		docx.New(seg),
		odt.New(seg),
		html.New(seg),
	)
}

// Register adds or replaces the normaliser for its format.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers[n.Format()] = n
}

// Formats returns the formats with a registered normaliser.
func (r *Registry) Formats() []domain.DocumentFormat {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var formats []domain.DocumentFormat
	for _, f := range domain.AllFormats() {
		if _, ok := r.normalisers[f]; ok {
			formats = append(formats, f)
		}
	}
	return formats
}

// Parse reads the file at path and normalises it.
// No partial Document is returned alongside an error.
func (r *Registry) Parse(ctx context.Context, path string) (*domain.Document, error) {
	if strings.TrimSpace(path) == "" {
		return nil, domain.ErrNoFileSelected
	}

	ext := strings.ToLower(filepath.Ext(path))
	if binaryExtensions[ext] {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrUnsupportedFormat, path)
	}

	format := domain.FormatFromPath(path)
	r.mu.RLock()
	n, ok := r.normalisers[format]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if isTextFormat(format) && !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: %s is not UTF-8 text", domain.ErrUnsupportedFormat, filepath.Base(path))
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCancelled, err)
	}

	logger.Debug("Parsing %s as %s (%d bytes)", path, format, len(content))
	doc, err := n.Normalise(ctx, path, content)
	if err != nil {
		return nil, err
	}
	doc.FileName = filepath.Base(path)
	doc.Format = format
	logger.Debug("Parsed %d sections, %d chunks", len(doc.Sections), doc.ChunkCount())
	return doc, nil
}

func isTextFormat(f domain.DocumentFormat) bool {
	return f == domain.FormatText || f == domain.FormatMarkdown
}
