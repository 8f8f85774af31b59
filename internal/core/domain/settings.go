package domain

const unknownDescription = "Unknown"

// VectorBackend selects the vector store implementation.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendMemory is the built-in brute-force cosine store.
	VectorBackendMemory VectorBackend = "memory"

	// VectorBackendChromem stores vectors in an in-process chromem-go collection.
	VectorBackendChromem VectorBackend = "chromem"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendMemory, VectorBackendChromem:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b VectorBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b VectorBackend) Description() string {
	switch b {
	case VectorBackendMemory:
		return "Memory (brute-force cosine)"
	case VectorBackendChromem:
		return "Chromem (in-process collection)"
	default:
		return unknownDescription
	}
}

// Defaults applied when a setting is absent from the config file.
const (
	DefaultModel               = "mistral"
	DefaultEmbeddingModel      = "all-minilm"
	DefaultEmbeddingDimensions = 384
	DefaultEmbeddingWorkers    = 4
	DefaultSearchK             = 20
	DefaultContextChars        = 500
	DefaultChunkSize           = 100
)

// LLMSettings configures the chat model and its server.
type LLMSettings struct {
	// Model is the chat model name (e.g. "mistral").
	Model string

	// Host is the model server URL. Empty uses OLLAMA_HOST or the local default.
	Host string
}

// EmbeddingSettings configures the embedding model.
type EmbeddingSettings struct {
	Model       string
	Dimensions  int
	Concurrency int
}

// RetrievalSettings configures grounding.
type RetrievalSettings struct {
	// K is the number of chunks retrieved per question.
	K int

	// ContextChars caps the length of the document block in the prompt.
	ContextChars int

	// ChunkSize is the fixed slice length used when text has no sentence punctuation.
	ChunkSize int
}

// ServerSettings configures how a model server is launched.
type ServerSettings struct {
	// BundledPath overrides the location of the bundled server executable.
	BundledPath string

	// DataDir is where a launched server keeps its models.
	DataDir string
}

// AppSettings holds all user-configurable settings.
type AppSettings struct {
	LLM       LLMSettings
	Embedding EmbeddingSettings
	Retrieval RetrievalSettings
	Server    ServerSettings

	// VectorBackend selects the vector store.
	VectorBackend VectorBackend

	// HistoryEnabled records chat turns in the transcript store.
	HistoryEnabled bool
}

// DefaultAppSettings returns settings with sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LLM: LLMSettings{
			Model: DefaultModel,
		},
		Embedding: EmbeddingSettings{
			Model:       DefaultEmbeddingModel,
			Dimensions:  DefaultEmbeddingDimensions, // all-minilm
			Concurrency: DefaultEmbeddingWorkers,
		},
		Retrieval: RetrievalSettings{
			K:            DefaultSearchK,
			ContextChars: DefaultContextChars,
			ChunkSize:    DefaultChunkSize,
		},
		VectorBackend:  VectorBackendMemory,
		HistoryEnabled: true,
	}
}

// Validate checks the settings for values the application cannot run with.
func (s AppSettings) Validate() error {
	switch {
	case s.LLM.Model == "":
		return ErrInvalidInput
	case s.Embedding.Model == "":
		return ErrInvalidInput
	case s.Embedding.Dimensions < 0:
		return ErrInvalidInput
	case s.Retrieval.K <= 0, s.Retrieval.ContextChars <= 3, s.Retrieval.ChunkSize <= 0:
		return ErrInvalidInput
	case !s.VectorBackend.IsValid():
		return ErrInvalidInput
	}
	return nil
}
