// Package ollama provides an embedding service adapter using Ollama.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/core/ports/driven"
	"github.com/custodia-labs/chatd/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel       = domain.DefaultEmbeddingModel
	DefaultTimeout     = 60 * time.Second
	DefaultDimensions  = domain.DefaultEmbeddingDimensions // all-minilm
	DefaultBatchSize   = 32
	DefaultConcurrency = domain.DefaultEmbeddingWorkers
	DefaultRateLimit   = 20 // requests per second
)

// Config holds configuration for the Ollama embedding service.
type Config struct {
	// BaseURL is the Ollama API base URL. Empty uses OLLAMA_HOST or the local default.
	BaseURL string

	// Model is the embedding model to use (default: all-minilm).
	Model string

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions is the expected embedding vector size (default: 384).
	Dimensions int

	// BatchSize is the number of texts sent per request (default: 32).
	BatchSize int

	// Concurrency bounds the number of requests in flight (default: 4).
	Concurrency int

	// RateLimit caps requests per second (default: 20).
	RateLimit float64
}

// EmbeddingService generates embeddings using Ollama.
type EmbeddingService struct {
	client      *api.Client
	model       string
	dimensions  int
	batchSize   int
	concurrency int
	limiter     *rate.Limiter

	// ensureMu guards ready. A failed ensure leaves ready false so the
	// next call tries again.
	ensureMu sync.Mutex
	ready    bool
}

// NewEmbeddingService creates a new Ollama embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}

	base := envconfig.Host()
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse embedding host %q: %w", cfg.BaseURL, err)
		}
		base = u
	}

	return &EmbeddingService{
		client:      api.NewClient(base, &http.Client{Timeout: cfg.Timeout}),
		model:       cfg.Model,
		dimensions:  cfg.Dimensions,
		batchSize:   cfg.BatchSize,
		concurrency: cfg.Concurrency,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Concurrency),
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts.
// Texts are split into batches that are embedded concurrently; results keep
// input order. The first failure cancels the remaining batches.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := s.ensureModel(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	vectors := make([][]float32, len(texts))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, s.concurrency)
	errChan := make(chan error, (len(texts)+s.batchSize-1)/s.batchSize)

	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))

		wg.Add(1)
		semaphore <- struct{}{}
		go func(start, end int) {
			defer wg.Done()
			defer func() { <-semaphore }()

			batch, err := s.embedOnce(ctx, texts[start:end])
			if err != nil {
				errChan <- fmt.Errorf("embed texts %d-%d: %w", start, end-1, err)
				cancel()
				return
			}
			// Batches write disjoint index ranges.
			copy(vectors[start:end], batch)
		}(start, end)
	}

	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		return nil, err
	}
	return vectors, nil
}

// embedOnce sends one /api/embed request and validates the result.
func (s *EmbeddingService) embedOnce(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, wrapErr(ctx, err)
	}

	resp, err := s.client.Embed(ctx, &api.EmbedRequest{Model: s.model, Input: texts})
	if err != nil {
		return nil, wrapErr(ctx, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", domain.ErrNetwork, len(resp.Embeddings), len(texts))
	}
	for i, v := range resp.Embeddings {
		if len(v) != s.dimensions {
			return nil, fmt.Errorf("%w: text %d has %d dimensions, want %d",
				domain.ErrDimensionMismatch, i, len(v), s.dimensions)
		}
	}
	return resp.Embeddings, nil
}

// ensureModel makes sure the embedding model is available locally,
// pulling it when the server does not know it.
func (s *EmbeddingService) ensureModel(ctx context.Context) error {
	s.ensureMu.Lock()
	defer s.ensureMu.Unlock()
	if s.ready {
		return nil
	}

	_, err := s.client.Show(ctx, &api.ShowRequest{Model: s.model})
	if err != nil {
		var statusErr api.StatusError
		if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
			return fmt.Errorf("check embedding model: %w", wrapErr(ctx, err))
		}

		logger.Info("Pulling embedding model %s", s.model)
		stream := false
		err = s.client.Pull(ctx, &api.PullRequest{Model: s.model, Stream: &stream}, func(p api.ProgressResponse) error {
			logger.Debug("Embedding model pull: %s", p.Status)
			return nil
		})
		if err != nil {
			return fmt.Errorf("pull embedding model: %w", wrapErr(ctx, err))
		}
	}

	s.ready = true
	return nil
}

// wrapErr classifies a client error as a cancellation or a network failure.
func wrapErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", domain.ErrCancelled, ctx.Err())
	}
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Errorf("%w: ollama error (status %d): %s", domain.ErrNetwork, statusErr.StatusCode, statusErr.ErrorMessage)
	}
	return fmt.Errorf("%w: %w", domain.ErrNetwork, err)
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
