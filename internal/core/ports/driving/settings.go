package driving

import "github.com/custodia-labs/docflow/internal/core/domain"

// SettingsService manages client settings.
type SettingsService interface {
	// Get retrieves current settings, falling back to defaults for unset keys.
	Get() (*domain.ClientSettings, error)

	// Save validates and persists settings.
	Save(settings *domain.ClientSettings) error

	// Set updates a single key from its string form and persists it.
	Set(key, value string) error

	// Keys returns the settable keys in display order.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.ClientSettings

	// ConfigPath returns where settings are stored.
	ConfigPath() string
}
