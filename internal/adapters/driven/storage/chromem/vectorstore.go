// Package chromem provides a vector store backed by an in-process chromem-go collection.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/core/ports/driven"
	"github.com/custodia-labs/chatd/internal/logger"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

const (
	// CollectionName is the collection holding the loaded document's chunks.
	CollectionName = "document"

	// DefaultConcurrency is the number of goroutines chromem uses when adding.
	DefaultConcurrency = 4
)

// errNoEmbedder is returned if chromem ever asks to embed text itself.
// Vectors are always computed upstream by the embedding service.
var errNoEmbedder = errors.New("chromem: embeddings must be precomputed")

// VectorStore stores embeddings in a chromem-go collection.
type VectorStore struct {
	mu          sync.RWMutex
	db          *chromem.DB
	col         *chromem.Collection
	dims        int
	seq         int
	concurrency int
}

// NewVectorStore creates an empty chromem-backed store.
func NewVectorStore() (*VectorStore, error) {
	s := &VectorStore{
		db:          chromem.NewDB(),
		concurrency: DefaultConcurrency,
	}
	col, err := s.db.CreateCollection(CollectionName, nil, noEmbed)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	s.col = col
	return s, nil
}

func noEmbed(context.Context, string) ([]float32, error) {
	return nil, errNoEmbedder
}

// Reset drops the collection and starts an empty one.
func (s *VectorStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(CollectionName); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	col, err := s.db.CreateCollection(CollectionName, nil, noEmbed)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	s.col = col
	s.dims = 0
	s.seq = 0
	return nil
}

// AddAll appends embeddings in order. Nothing is added if any vector's
// dimensionality differs from the others or from existing entries.
func (s *VectorStore) AddAll(ctx context.Context, embeddings []domain.Embedding) error {
	if len(embeddings) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dims := s.dims
	if dims == 0 {
		dims = len(embeddings[0].Vector)
	}
	docs := make([]chromem.Document, len(embeddings))
	for i, e := range embeddings {
		if len(e.Vector) != dims || dims == 0 {
			return fmt.Errorf("%w: embedding %d has %d dimensions, store has %d",
				domain.ErrDimensionMismatch, i, len(e.Vector), dims)
		}
		vec := make([]float32, len(e.Vector))
		copy(vec, e.Vector)
		docs[i] = chromem.Document{
			ID:        docID(s.seq + i),
			Embedding: vec,
			Content:   e.Text,
		}
	}

	if err := s.col.AddDocuments(ctx, docs, s.concurrency); err != nil {
		ids := make([]string, len(docs))
		for i, d := range docs {
			ids[i] = d.ID
		}
		s.rollback(ctx, ids)
		return fmt.Errorf("add documents: %w", err)
	}
	s.seq += len(docs)
	s.dims = dims
	return nil
}

// rollback removes whatever part of a failed batch made it in.
func (s *VectorStore) rollback(ctx context.Context, ids []string) {
	if err := s.col.Delete(context.WithoutCancel(ctx), nil, nil, ids...); err != nil {
		logger.Warn("chromem: rolling back %d documents: %v", len(ids), err)
	}
}

// Search returns the texts of the k most similar entries, most similar
// first. Equal scores keep insertion order.
func (s *VectorStore) Search(ctx context.Context, query []float32, k int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := s.col.Count()
	if k <= 0 || count == 0 {
		return []string{}, nil
	}
	if len(query) != s.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, store has %d",
			domain.ErrDimensionMismatch, len(query), s.dims)
	}

	// chromem breaks ties arbitrarily, so rank the full collection here.
	results, err := s.col.QueryEmbedding(ctx, query, count, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}
	sort.SliceStable(results, func(a, b int) bool {
		sa, sb := similarity(results[a]), similarity(results[b])
		if sa != sb {
			return sa > sb
		}
		return results[a].ID < results[b].ID
	})

	n := min(k, len(results))
	texts := make([]string, n)
	for i := 0; i < n; i++ {
		texts[i] = results[i].Content
	}
	return texts, nil
}

// Size returns the number of stored entries.
func (s *VectorStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.col.Count()
}

// docID is zero padded so lexical order matches insertion order.
func docID(seq int) string {
	return fmt.Sprintf("%010d", seq)
}

// similarity treats the NaN produced by normalising a zero vector as 0.
func similarity(r chromem.Result) float32 {
	if math.IsNaN(float64(r.Similarity)) {
		return 0
	}
	return r.Similarity
}
