package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chatd/internal/core/domain"
)

func TestTranscriptStore_AppendFillsDefaults(t *testing.T) {
	store := NewTranscriptStore()
	entry := &domain.TranscriptEntry{Role: domain.RoleUser, Content: "hi"}

	require.NoError(t, store.Append(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestTranscriptStore_Recent(t *testing.T) {
	store := NewTranscriptStore()
	ctx := context.Background()
	for _, c := range []string{"one", "two", "three"} {
		require.NoError(t, store.Append(ctx, &domain.TranscriptEntry{Role: domain.RoleUser, Content: c}))
	}

	all, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "one", all[0].Content)

	last, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "two", last[0].Content)
	assert.Equal(t, "three", last[1].Content)
}

func TestTranscriptStore_Clear(t *testing.T) {
	store := NewTranscriptStore()
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, &domain.TranscriptEntry{Content: "x"}))

	require.NoError(t, store.Clear(ctx))
	entries, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, store.Close())
}
