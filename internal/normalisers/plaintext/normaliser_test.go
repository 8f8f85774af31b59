package plaintext

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/segmenter"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, domain.FormatText, New(segmenter.New()).Format())
}

func TestNormalise_Success(t *testing.T) {
	n := New(segmenter.New())

	doc, err := n.Normalise(context.Background(), "notes.txt", []byte("Hello there.\nGeneral Kenobi."))
	require.NoError(t, err)
	require.Len(t, doc.Sections, 1)
	assert.Empty(t, doc.Sections[0].Label)
	assert.Equal(t, []string{"Hello there.", "General Kenobi."}, doc.Texts())
}

func TestNormalise_NoPunctuation(t *testing.T) {
	n := New(segmenter.New(segmenter.WithChunkSize(10)))

	doc, err := n.Normalise(context.Background(), "data.log", []byte(strings.Repeat("x", 25)))
	require.NoError(t, err)
	assert.Equal(t, 3, doc.ChunkCount())
}

func TestNormalise_EmptyContent(t *testing.T) {
	n := New(segmenter.New())

	doc, err := n.Normalise(context.Background(), "empty.txt", nil)
	require.NoError(t, err)
	assert.Empty(t, doc.Sections)
	assert.Zero(t, doc.ChunkCount())
}
