package driving

import "github.com/custodia-labs/chatd/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save validates and persists application settings.
	Save(settings *domain.AppSettings) error

	// SetModel updates the chat model.
	SetModel(name string) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// Validate checks the stored settings.
	Validate() error
}
