// Package memory provides in-memory implementations of the driven stores.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is a brute-force cosine similarity store.
// It holds one document's embeddings at a time.
type VectorStore struct {
	mu      sync.RWMutex
	entries []entry
	dims    int
}

type entry struct {
	text   string
	vector []float32
	norm   float64
}

// NewVectorStore creates an empty in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{}
}

// Reset removes every entry.
func (s *VectorStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.dims = 0
	return nil
}

// AddAll appends embeddings in order. Nothing is added if any vector's
// dimensionality differs from the others or from existing entries.
func (s *VectorStore) AddAll(_ context.Context, embeddings []domain.Embedding) error {
	if len(embeddings) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dims := s.dims
	if dims == 0 {
		dims = len(embeddings[0].Vector)
	}
	added := make([]entry, len(embeddings))
	for i, e := range embeddings {
		if len(e.Vector) != dims {
			return fmt.Errorf("%w: embedding %d has %d dimensions, store has %d",
				domain.ErrDimensionMismatch, i, len(e.Vector), dims)
		}
		vec := make([]float32, len(e.Vector))
		copy(vec, e.Vector)
		added[i] = entry{text: e.Text, vector: vec, norm: norm(vec)}
	}

	s.entries = append(s.entries, added...)
	s.dims = dims
	return nil
}

// Search returns the texts of the k most similar entries, most similar
// first. Equal scores keep insertion order.
func (s *VectorStore) Search(_ context.Context, query []float32, k int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 || len(s.entries) == 0 {
		return []string{}, nil
	}
	if len(query) != s.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, store has %d",
			domain.ErrDimensionMismatch, len(query), s.dims)
	}

	type scored struct {
		idx   int
		score float64
	}
	qNorm := norm(query)
	scores := make([]scored, len(s.entries))
	for i, e := range s.entries {
		scores[i] = scored{idx: i, score: cosine(query, qNorm, e.vector, e.norm)}
	}
	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].score > scores[b].score
	})

	n := min(k, len(scores))
	results := make([]string, n)
	for i := 0; i < n; i++ {
		results[i] = s.entries[scores[i].idx].text
	}
	return results, nil
}

// Size returns the number of stored entries.
func (s *VectorStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector.
func cosine(a []float32, aNorm float64, b []float32, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (aNorm * bNorm)
}
