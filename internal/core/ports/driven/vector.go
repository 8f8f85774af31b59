package driven

import (
	"context"

	"github.com/custodia-labs/chatd/internal/core/domain"
)

// VectorStore holds the embeddings of the currently loaded document and
// answers cosine-similarity queries over them.
// Implementations must be safe for concurrent use.
type VectorStore interface {
	// Reset removes every entry.
	Reset(ctx context.Context) error

	// AddAll appends embeddings in order.
	// All vectors must share one dimensionality.
	AddAll(ctx context.Context, embeddings []domain.Embedding) error

	// Search returns the texts of the k entries most similar to query,
	// most similar first. Ties keep insertion order. Returns at most
	// min(k, Size()) texts and an empty slice for an empty store or k <= 0.
	Search(ctx context.Context, query []float32, k int) ([]string, error)

	// Size returns the number of stored entries.
	Size() int
}
