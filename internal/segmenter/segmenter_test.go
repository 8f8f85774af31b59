package segmenter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	s := New()
	assert.Equal(t, DefaultChunkSize, s.ChunkSize())
}

func TestWithChunkSize(t *testing.T) {
	assert.Equal(t, 10, New(WithChunkSize(10)).ChunkSize())
	assert.Equal(t, DefaultChunkSize, New(WithChunkSize(0)).ChunkSize())
	assert.Equal(t, DefaultChunkSize, New(WithChunkSize(-5)).ChunkSize())
}

func TestSegment_Empty(t *testing.T) {
	s := New()

	for _, in := range []string{"", "   ", "\n\n\t"} {
		chunks := s.Segment(in)
		require.NotNil(t, chunks)
		assert.Empty(t, chunks)
	}
}

func TestSegment_Sentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "simple",
			in:   "The cat sat. The dog ran! Did it rain? Yes.",
			want: []string{"The cat sat.", "The dog ran!", "Did it rain?", "Yes."},
		},
		{
			name: "lowercase continuation",
			in:   "Version 1.2 shipped. then nothing happened.",
			want: []string{"Version 1.2 shipped. then nothing happened."},
		},
		{
			name: "honorific",
			in:   "Mr. Smith arrived. He sat down.",
			want: []string{"Mr. Smith arrived.", "He sat down."},
		},
		{
			name: "two letter title",
			in:   "We met Pr. Jones today. It went well.",
			want: []string{"We met Pr. Jones today.", "It went well."},
		},
		{
			name: "initials",
			in:   "Written by J. R. Tolkien. Published later.",
			want: []string{"Written by J. R. Tolkien.", "Published later."},
		},
		{
			name: "dotted abbreviation",
			in:   "Use a tool, e.g. Go is fine. Done.",
			want: []string{"Use a tool, e.g. Go is fine.", "Done."},
		},
		{
			name: "newlines collapse",
			in:   "First line.\n\nSecond   line.",
			want: []string{"First line.", "Second line."},
		},
	}

	s := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Segment(tt.in))
		})
	}
}

func TestSegment_SentencesAreLossless(t *testing.T) {
	in := "Alpha is first. Beta follows! Mr. Gamma asks? Delta answers.\nEpsilon\tends it."
	chunks := New().Segment(in)

	require.NotEmpty(t, chunks)
	assert.Equal(t, Clean(in), strings.Join(chunks, " "))
}

func TestSegment_FixedSize(t *testing.T) {
	in := strings.Repeat("abcdefghij", 25) // 250 runes, no punctuation
	chunks := New().Segment(in)

	require.Len(t, chunks, 3)
	assert.Len(t, []rune(chunks[0]), 100)
	assert.Len(t, []rune(chunks[1]), 100)
	assert.Len(t, []rune(chunks[2]), 50)
	assert.Equal(t, in, strings.Join(chunks, ""))
}

func TestSegment_FixedSizeCountsRunes(t *testing.T) {
	in := strings.Repeat("é", 25)
	chunks := New(WithChunkSize(10)).Segment(in)

	require.Len(t, chunks, 3)
	assert.Equal(t, strings.Repeat("é", 10), chunks[0])
	assert.Equal(t, in, strings.Join(chunks, ""))
}

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"citations", "Fact[12] stands[3]", "Fact stands"},
		{"hyperlink", "See [the docs](https://example.com) now", "See the docs now"},
		{"markdown image", "Look ![a cat](cat.png) here", "Look here"},
		{"wiki image", "Look ![[cat.png]] here", "Look here"},
		{"whitespace", "  a \n\n b\t\tc  ", "a b c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}
