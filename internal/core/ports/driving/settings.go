package driving

import "github.com/custodia-labs/flowsync/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, applying defaults.
	Get() (*domain.AppSettings, error)

	// Validate checks settings for consistency.
	Validate(settings *domain.AppSettings) error

	// SaveBinding adds or replaces a workflow binding.
	SaveBinding(binding domain.Binding) error
}
