package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chatd/internal/core/domain"
)

func emb(text string, v ...float32) domain.Embedding {
	return domain.Embedding{Text: text, Vector: v}
}

func TestVectorStore_EmptySearch(t *testing.T) {
	store := NewVectorStore()

	results, err := store.Search(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	require.NotNil(t, results)
	assert.Empty(t, results)
	assert.Zero(t, store.Size())
}

func TestVectorStore_SearchOrder(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	require.NoError(t, store.AddAll(ctx, []domain.Embedding{
		emb("east", 1, 0),
		emb("north", 0, 1),
		emb("north-east", 1, 1),
		emb("west", -1, 0),
	}))

	results, err := store.Search(ctx, []float32{1, 0.1}, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"east", "north-east", "north"}, results)
}

func TestVectorStore_SearchLimits(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()
	require.NoError(t, store.AddAll(ctx, []domain.Embedding{emb("a", 1, 0), emb("b", 0, 1)}))

	tests := []struct {
		k    int
		want int
	}{
		{k: 0, want: 0},
		{k: -1, want: 0},
		{k: 1, want: 1},
		{k: 2, want: 2},
		{k: 20, want: 2},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("k=%d", tt.k), func(t *testing.T) {
			results, err := store.Search(ctx, []float32{1, 1}, tt.k)
			require.NoError(t, err)
			assert.Len(t, results, tt.want)
		})
	}
}

func TestVectorStore_TiesKeepInsertionOrder(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()
	require.NoError(t, store.AddAll(ctx, []domain.Embedding{
		emb("first", 2, 0),
		emb("second", 1, 0),
		emb("third", 3, 0),
	}))

	results, err := store.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, results)
}

func TestVectorStore_ZeroVector(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()
	require.NoError(t, store.AddAll(ctx, []domain.Embedding{emb("zero", 0, 0), emb("one", 1, 0)}))

	results, err := store.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "zero"}, results)
}

func TestVectorStore_ResetThenAdd(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	require.NoError(t, store.AddAll(ctx, []domain.Embedding{emb("a", 1, 0, 0), emb("b", 0, 1, 0)}))
	require.NoError(t, store.Reset(ctx))
	assert.Zero(t, store.Size())

	// A new document may use a different dimensionality.
	require.NoError(t, store.AddAll(ctx, []domain.Embedding{emb("c", 1, 0), emb("d", 0, 1), emb("e", 1, 1)}))
	assert.Equal(t, 3, store.Size())
}

func TestVectorStore_DimensionMismatch(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	err := store.AddAll(ctx, []domain.Embedding{emb("a", 1, 0), emb("b", 1, 0, 0)})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Zero(t, store.Size(), "a rejected batch adds nothing")

	require.NoError(t, store.AddAll(ctx, []domain.Embedding{emb("a", 1, 0)}))
	err = store.AddAll(ctx, []domain.Embedding{emb("b", 1, 0, 0)})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = store.Search(ctx, []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestVectorStore_SearchDoesNotMutate(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()
	require.NoError(t, store.AddAll(ctx, []domain.Embedding{emb("a", 0, 1), emb("b", 1, 0)}))

	_, err := store.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)

	results, err := store.Search(ctx, []float32{0, 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, results)
	assert.Equal(t, 2, store.Size())
}

func TestVectorStore_ConcurrentAccess(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.AddAll(ctx, []domain.Embedding{emb(fmt.Sprint(i), float32(i), 1)})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = store.Search(ctx, []float32{1, 1}, 3)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, store.Size())
}
