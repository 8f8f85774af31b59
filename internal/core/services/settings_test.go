package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chatd/internal/adapters/driven/config/file"
	"github.com/custodia-labs/chatd/internal/core/domain"
)

func newTestConfigStore(t *testing.T) *file.ConfigStore {
	t.Helper()
	store, err := file.NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(newTestConfigStore(t))

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppSettings(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("llm.model", "llama3"))
	require.NoError(t, store.Set("llm.host", "http://gpu:11434"))
	require.NoError(t, store.Set("embedding.dimensions", 768))
	require.NoError(t, store.Set("retrieval.k", 5))
	require.NoError(t, store.Set("vector.backend", "chromem"))
	require.NoError(t, store.Set("history.enabled", false))

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	assert.Equal(t, "llama3", settings.LLM.Model)
	assert.Equal(t, "http://gpu:11434", settings.LLM.Host)
	assert.Equal(t, 768, settings.Embedding.Dimensions)
	assert.Equal(t, 5, settings.Retrieval.K)
	assert.Equal(t, domain.VectorBackendChromem, settings.VectorBackend)
	assert.False(t, settings.HistoryEnabled)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("vector.backend", "faiss"))
	require.NoError(t, store.Set("retrieval.k", -3))
	require.NoError(t, store.Set("history.enabled", "yes"))

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.VectorBackend, settings.VectorBackend)
	assert.Equal(t, defaults.Retrieval.K, settings.Retrieval.K)
	assert.Equal(t, defaults.HistoryEnabled, settings.HistoryEnabled)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	store := newTestConfigStore(t)
	service := NewSettingsService(store)

	settings := domain.DefaultAppSettings()
	settings.LLM.Model = "phi3"
	settings.Retrieval.ContextChars = 800
	settings.Server.DataDir = "/srv/models"
	settings.HistoryEnabled = false
	require.NoError(t, service.Save(&settings))

	reloaded, err := file.NewConfigStore(filepath.Dir(store.Path()))
	require.NoError(t, err)
	got, err := NewSettingsService(reloaded).Get()
	require.NoError(t, err)
	assert.Equal(t, settings, *got)
}

func TestSettingsService_Save_RejectsInvalid(t *testing.T) {
	service := NewSettingsService(newTestConfigStore(t))

	settings := domain.DefaultAppSettings()
	settings.Retrieval.K = 0

	err := service.Save(&settings)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_SetModel(t *testing.T) {
	store := newTestConfigStore(t)
	service := NewSettingsService(store)

	require.NoError(t, service.SetModel("  gemma  "))
	assert.Equal(t, "gemma", store.GetString("llm.model"))

	require.ErrorIs(t, service.SetModel(" "), domain.ErrInvalidInput)
}

func TestSettingsService_ValidateAndDefaults(t *testing.T) {
	service := NewSettingsService(newTestConfigStore(t))

	assert.NoError(t, service.Validate())
	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}
