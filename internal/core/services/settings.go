package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/core/ports/driven"
	"github.com/custodia-labs/chatd/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyLLMModel          = "llm.model"
	keyLLMHost           = "llm.host"
	keyEmbedModel        = "embedding.model"
	keyEmbedDimensions   = "embedding.dimensions"
	keyEmbedConcurrency  = "embedding.concurrency"
	keyRetrievalK        = "retrieval.k"
	keyRetrievalContext  = "retrieval.context_chars"
	keySegmenterChunk    = "segmenter.chunk_size"
	keyVectorBackend     = "vector.backend"
	keyServerBundledPath = "server.bundled_path"
	keyServerDataDir     = "server.data_dir"
	keyHistoryEnabled    = "history.enabled"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings. Missing or mistyped keys
// take their default.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		LLM: domain.LLMSettings{
			Model: s.getString(keyLLMModel, defaults.LLM.Model),
			Host:  s.configStore.GetString(keyLLMHost), // Empty means OLLAMA_HOST or the local default
		},
		Embedding: domain.EmbeddingSettings{
			Model:       s.getString(keyEmbedModel, defaults.Embedding.Model),
			Dimensions:  s.getInt(keyEmbedDimensions, defaults.Embedding.Dimensions),
			Concurrency: s.getInt(keyEmbedConcurrency, defaults.Embedding.Concurrency),
		},
		Retrieval: domain.RetrievalSettings{
			K:            s.getInt(keyRetrievalK, defaults.Retrieval.K),
			ContextChars: s.getInt(keyRetrievalContext, defaults.Retrieval.ContextChars),
			ChunkSize:    s.getInt(keySegmenterChunk, defaults.Retrieval.ChunkSize),
		},
		Server: domain.ServerSettings{
			BundledPath: s.configStore.GetString(keyServerBundledPath),
			DataDir:     s.configStore.GetString(keyServerDataDir),
		},
		VectorBackend:  s.getVectorBackend(defaults.VectorBackend),
		HistoryEnabled: s.getBool(keyHistoryEnabled, defaults.HistoryEnabled),
	}

	return settings, nil
}

// Save validates and persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	values := []struct {
		key   string
		value any
	}{
		{keyLLMModel, settings.LLM.Model},
		{keyLLMHost, settings.LLM.Host},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedDimensions, settings.Embedding.Dimensions},
		{keyEmbedConcurrency, settings.Embedding.Concurrency},
		{keyRetrievalK, settings.Retrieval.K},
		{keyRetrievalContext, settings.Retrieval.ContextChars},
		{keySegmenterChunk, settings.Retrieval.ChunkSize},
		{keyVectorBackend, settings.VectorBackend.String()},
		{keyServerBundledPath, settings.Server.BundledPath},
		{keyServerDataDir, settings.Server.DataDir},
		{keyHistoryEnabled, settings.HistoryEnabled},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// SetModel updates the chat model.
func (s *SettingsService) SetModel(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty model name", domain.ErrInvalidInput)
	}
	if err := s.configStore.Set(keyLLMModel, name); err != nil {
		return fmt.Errorf("save %s: %w", keyLLMModel, err)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Validate checks the stored settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if val := s.configStore.GetInt(key); val > 0 {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	val, ok := s.configStore.Get(key)
	if !ok {
		return defaultVal
	}
	b, ok := val.(bool)
	if !ok {
		return defaultVal
	}
	return b
}

func (s *SettingsService) getVectorBackend(defaultVal domain.VectorBackend) domain.VectorBackend {
	backend := domain.VectorBackend(s.configStore.GetString(keyVectorBackend))
	if backend.IsValid() {
		return backend
	}
	return defaultVal
}
