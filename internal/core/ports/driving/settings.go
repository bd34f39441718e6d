package driving

import "github.com/AlbertoRQ/Baratazo/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set parses and stores a single setting by key.
	Set(key, value string) error

	// Keys returns the supported setting keys in display order.
	Keys() []string

	// Value renders one setting of settings as text, or "" for unknown keys.
	Value(settings *domain.AppSettings, key string) string

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
