package chromem

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/logger"
)

func emb(text string, v ...float32) domain.Embedding {
	return domain.Embedding{Text: text, Vector: v}
}

func newTestStore(t *testing.T) *VectorStore {
	t.Helper()
	store, err := NewVectorStore()
	require.NoError(t, err)
	return store
}

func TestVectorStore_EmptySearch(t *testing.T) {
	store := newTestStore(t)

	results, err := store.Search(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	require.NotNil(t, results)
	assert.Empty(t, results)
	assert.Zero(t, store.Size())
}

func TestVectorStore_SearchOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddAll(ctx, []domain.Embedding{
		emb("east", 1, 0),
		emb("north", 0, 1),
		emb("north-east", 1, 1),
		emb("west", -1, 0),
	}))
	assert.Equal(t, 4, store.Size())

	results, err := store.Search(ctx, []float32{1, 0.1}, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"east", "north-east", "north"}, results)
}

func TestVectorStore_KLargerThanStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddAll(ctx, []domain.Embedding{emb("a", 1, 0), emb("b", 0, 1)}))

	results, err := store.Search(ctx, []float32{0, 1}, 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, results)
}

func TestVectorStore_NonPositiveK(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddAll(ctx, []domain.Embedding{emb("a", 1, 0)}))

	results, err := store.Search(ctx, []float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestVectorStore_TiesKeepInsertionOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var batch []domain.Embedding
	for _, name := range []string{"first", "second", "third", "fourth", "fifth", "sixth", "seventh", "eighth", "ninth", "tenth", "eleventh"} {
		batch = append(batch, emb(name, 1, 1))
	}
	require.NoError(t, store.AddAll(ctx, batch))

	results, err := store.Search(ctx, []float32{1, 1}, 11)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third", "fourth", "fifth", "sixth", "seventh", "eighth", "ninth", "tenth", "eleventh"}, results)
}

func TestVectorStore_DimensionMismatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.AddAll(ctx, []domain.Embedding{emb("a", 1, 0), emb("b", 1, 0, 0)})
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Zero(t, store.Size())

	require.NoError(t, store.AddAll(ctx, []domain.Embedding{emb("a", 1, 0)}))
	err = store.AddAll(ctx, []domain.Embedding{emb("c", 1, 0, 0)})
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, 1, store.Size())

	_, err = store.Search(ctx, []float32{1, 0, 0}, 1)
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestVectorStore_Reset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddAll(ctx, []domain.Embedding{emb("a", 1, 0)}))

	require.NoError(t, store.Reset(ctx))
	assert.Zero(t, store.Size())

	// A new document may use a different embedding size.
	require.NoError(t, store.AddAll(ctx, []domain.Embedding{emb("b", 0, 0, 1)}))
	results, err := store.Search(ctx, []float32{0, 0, 1}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, results)
}

func TestVectorStore_AppendsAcrossCalls(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddAll(ctx, []domain.Embedding{emb("a", 1, 0)}))
	require.NoError(t, store.AddAll(ctx, []domain.Embedding{emb("b", 1, 0)}))

	results, err := store.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, results)
}

func TestDocID_SortsInInsertionOrder(t *testing.T) {
	assert.Equal(t, "0000000007", docID(7))
	assert.Less(t, docID(9), docID(10))
}

func TestVectorStore_RollbackRemovesBatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddAll(ctx, []domain.Embedding{emb("a", 1, 0), emb("b", 0, 1)}))

	ctx, cancel := context.WithCancel(ctx)
	cancel()
	store.rollback(ctx, []string{docID(0), docID(1)})

	assert.Equal(t, 0, store.col.Count())
}

func TestVectorStore_RollbackFailureIsLogged(t *testing.T) {
	var logs bytes.Buffer
	logger.SetOutput(&logs)
	defer logger.SetOutput(os.Stderr)

	store := newTestStore(t)
	store.rollback(context.Background(), nil)

	assert.Contains(t, logs.String(), "[WARN]")
	assert.Contains(t, logs.String(), "rolling back 0 documents")
}
