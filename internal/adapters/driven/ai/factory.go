// Package ai provides factory functions for creating the model-facing adapters
// from application settings.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/chatd/internal/adapters/driven/config/file"
	ollamaembed "github.com/custodia-labs/chatd/internal/adapters/driven/embedding/ollama"
	ollamallm "github.com/custodia-labs/chatd/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/chatd/internal/adapters/driven/storage/chromem"
	"github.com/custodia-labs/chatd/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/chatd/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/core/ports/driven"
	"github.com/custodia-labs/chatd/internal/logger"
)

// pingTimeout is the maximum time to wait for server connectivity validation.
const pingTimeout = 5 * time.Second

// knownDimensions maps embedding models to their vector size.
var knownDimensions = map[string]int{
	"all-minilm":        384,
	"nomic-embed-text":  768,
	"mxbai-embed-large": 1024,
	"bge-m3":            1024,
}

// Options locates the on-disk stores. Empty fields use each adapter's
// default under ~/.chatd.
type Options struct {
	PromptDir string
	DataDir   string
}

// InitResult contains the result of adapter initialisation.
type InitResult struct {
	ModelServer driven.ModelServer
	Embedding   driven.EmbeddingService
	VectorStore driven.VectorStore
	Prompts     driven.PromptStore
	Transcripts driven.TranscriptStore // nil when history is disabled.
	Warnings    []string               // Non-fatal issues that caused fallback.
	FellBack    bool                   // True if any store fell back to memory.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.Embedding != nil {
		r.Embedding.Close()
	}
	if r.Transcripts != nil {
		r.Transcripts.Close()
	}
}

func (r *InitResult) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Warn("%s", msg)
	r.Warnings = append(r.Warnings, msg)
	r.FellBack = true
}

// Init creates every driven adapter the chat service needs. Store failures
// fall back to in-memory implementations and are reported as warnings;
// only invalid settings fail.
func Init(settings domain.AppSettings, opts Options) (*InitResult, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	result := &InitResult{
		ModelServer: CreateModelServer(&settings.LLM),
	}

	embedder, err := CreateEmbeddingService(&settings.Embedding, settings.LLM.Host)
	if err != nil {
		return nil, err
	}
	result.Embedding = embedder

	store, err := CreateVectorStore(settings.VectorBackend)
	if err != nil {
		result.warn("%s vector store unavailable, using memory: %v", settings.VectorBackend, err)
		store = memory.NewVectorStore()
	}
	result.VectorStore = store

	prompts, err := file.NewPromptStore(opts.PromptDir)
	if err != nil {
		return nil, fmt.Errorf("create prompt store: %w", err)
	}
	result.Prompts = prompts

	if settings.HistoryEnabled {
		transcripts, err := sqlite.NewStore(opts.DataDir)
		if err != nil {
			result.warn("chat history unavailable, keeping it in memory: %v", err)
			result.Transcripts = memory.NewTranscriptStore()
		} else {
			result.Transcripts = transcripts
		}
	}

	return result, nil
}

// CreateModelServer creates the model server client.
func CreateModelServer(settings *domain.LLMSettings) driven.ModelServer {
	cfg := ollamallm.Config{}
	if settings != nil {
		cfg.Host = settings.Host
	}
	return ollamallm.NewClient(cfg)
}

// CreateEmbeddingService creates an Ollama embedding service talking to host.
// A zero dimension is looked up from the model name.
func CreateEmbeddingService(settings *domain.EmbeddingSettings, host string) (driven.EmbeddingService, error) {
	if settings == nil {
		defaults := domain.DefaultAppSettings().Embedding
		settings = &defaults
	}

	dimensions := settings.Dimensions
	if dimensions == 0 {
		dimensions = knownDimensions[settings.Model]
	}

	svc, err := ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:     host,
		Model:       settings.Model,
		Dimensions:  dimensions,
		Concurrency: settings.Concurrency,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding service: %w", err)
	}
	return svc, nil
}

// CreateVectorStore creates the vector store for backend.
func CreateVectorStore(backend domain.VectorBackend) (driven.VectorStore, error) {
	switch backend {
	case domain.VectorBackendMemory, "":
		return memory.NewVectorStore(), nil
	case domain.VectorBackendChromem:
		return chromem.NewVectorStore()
	default:
		return nil, fmt.Errorf("%w: unsupported vector backend: %s", domain.ErrInvalidInput, backend)
	}
}

// ValidateConnection pings the model server.
// Returns an error with guidance when it cannot be reached.
func ValidateConnection(ctx context.Context, server driven.ModelServer) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := server.Ping(ctx); err != nil {
		return fmt.Errorf("model server unreachable at %s (%w). Run 'chatd serve' to start one",
			server.Host(), err)
	}
	return nil
}
