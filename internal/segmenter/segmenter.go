// Package segmenter splits document text into chunks small enough to embed.
//
// Text containing sentence punctuation is split into sentences. Anything else
// is cut into fixed-size rune slices. Both paths are lossless with respect to
// the cleaned text: sentences rejoined with a single space, or slices
// concatenated, reproduce it exactly.
package segmenter

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/custodia-labs/chatd/internal/core/ports/driven"
)

// DefaultChunkSize is the rune length of fixed-size chunks.
const DefaultChunkSize = 100

// Ensure Segmenter implements the interface.
var _ driven.TextSegmenter = (*Segmenter)(nil)

var (
	citations   = regexp.MustCompile(`\[\d+\]`)
	mdImages    = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	wikiImages  = regexp.MustCompile(`!\[\[.*?\]\]`)
	hyperlinks  = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	whitespaces = regexp.MustCompile(`\s+`)
)

// honorifics never end a sentence even when followed by a capital.
var honorifics = map[string]bool{
	"Mr": true, "Mrs": true, "Ms": true, "Dr": true,
	"Sr": true, "Sra": true, "Jr": true, "St": true,
}

// Segmenter splits text into chunks.
type Segmenter struct {
	chunkSize int
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithChunkSize sets the fixed-size fallback length in runes.
// Values <= 0 are ignored.
func WithChunkSize(n int) Option {
	return func(s *Segmenter) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// New creates a segmenter.
func New(opts ...Option) *Segmenter {
	s := &Segmenter{chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ChunkSize returns the configured fixed-size chunk length.
func (s *Segmenter) ChunkSize() int {
	return s.chunkSize
}

// Segment cleans text and splits it into chunks.
// Empty or whitespace-only input yields an empty slice.
func (s *Segmenter) Segment(text string) []string {
	cleaned := Clean(text)
	if cleaned == "" {
		return []string{}
	}
	if strings.ContainsAny(cleaned, ".!?") {
		return splitSentences(cleaned)
	}
	return splitFixed(cleaned, s.chunkSize)
}

// Clean strips citation markers, images and link targets, then collapses
// every whitespace run into one space and trims the ends.
func Clean(text string) string {
	text = citations.ReplaceAllString(text, "")
	text = mdImages.ReplaceAllString(text, "")
	text = wikiImages.ReplaceAllString(text, "")
	text = hyperlinks.ReplaceAllString(text, "$1")
	text = whitespaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// splitSentences splits at a space that follows . ! or ? and precedes an
// uppercase letter. The space itself is dropped.
func splitSentences(text string) []string {
	runes := []rune(text)
	var chunks []string
	start := 0
	for i := 1; i < len(runes)-1; i++ {
		if runes[i] != ' ' || !unicode.IsUpper(runes[i+1]) {
			continue
		}
		switch runes[i-1] {
		case '!', '?':
		case '.':
			if isAbbreviation(runes[start : i-1]) {
				continue
			}
		default:
			continue
		}
		chunks = append(chunks, string(runes[start:i]))
		start = i + 1
	}
	return append(chunks, string(runes[start:]))
}

// isAbbreviation reports whether the word ending just before a period is an
// initial, a dotted abbreviation such as "e.g" or a short honorific.
func isAbbreviation(before []rune) bool {
	word := before
	if idx := lastIndex(before, ' '); idx >= 0 {
		word = before[idx+1:]
	}
	// "e.g" and "U.S" end in a single letter after an inner period.
	last := word
	if idx := lastIndex(word, '.'); idx >= 0 {
		last = word[idx+1:]
	}
	if len(last) == 1 && unicode.IsLetter(last[0]) {
		return true
	}
	if honorifics[string(word)] {
		return true
	}
	return len(word) == 2 && unicode.IsUpper(word[0]) && unicode.IsLower(word[1])
}

func lastIndex(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}

// splitFixed cuts text into slices of size runes.
func splitFixed(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	runes := []rune(text)
	chunks := make([]string, 0, len(runes)/size+1)
	for i := 0; i < len(runes); i += size {
		end := min(i+size, len(runes))
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
