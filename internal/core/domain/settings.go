package domain

import "time"

// Default values for sync settings.
const (
	DefaultPollInterval   = 10 * time.Second
	DefaultDebounce       = 1500 * time.Millisecond
	DefaultRequestTimeout = 30 * time.Second
	DefaultHistoryKeep    = 200
	DefaultBackupKeep     = 30
	DefaultRCFile         = "~/.zshrc"
)

// Credentials are the resolved N8N connection parameters.
type Credentials struct {
	// BaseURL is the N8N origin, without the /api/v1 suffix.
	BaseURL string `validate:"required,url"`

	// APIKey is sent as the X-N8N-API-KEY header.
	APIKey string `validate:"required"`
}

// MaskedKey returns the API key with everything but the last four characters hidden.
func (c Credentials) MaskedKey() string {
	if len(c.APIKey) <= 4 {
		return "***"
	}
	return "***" + c.APIKey[len(c.APIKey)-4:]
}

// N8NSettings holds connection settings read from the config file.
// Environment variables and the rc file take precedence over these.
type N8NSettings struct {
	APIURL string
	APIKey string
}

// SyncSettings holds timing and behaviour of sync passes.
type SyncSettings struct {
	PollInterval     time.Duration `validate:"gte=1s"`
	Debounce         time.Duration `validate:"gte=0s"`
	RequestTimeout   time.Duration `validate:"gte=1s"`
	BackupBeforePull bool

	// BackupKeep is how many backups per workflow file are retained.
	// Zero keeps all of them.
	BackupKeep int `validate:"gte=0"`
}

// HistorySettings controls retention of recorded passes.
type HistorySettings struct {
	Keep int `validate:"gte=1"`
}

// AppSettings is the complete application configuration.
type AppSettings struct {
	N8N      N8NSettings
	RCFile   string
	Sync     SyncSettings
	History  HistorySettings
	Bindings []Binding `validate:"dive"`
}

// DefaultAppSettings returns the default application settings.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		RCFile: DefaultRCFile,
		Sync: SyncSettings{
			PollInterval:   DefaultPollInterval,
			Debounce:       DefaultDebounce,
			RequestTimeout: DefaultRequestTimeout,
			BackupKeep:     DefaultBackupKeep,
		},
		History: HistorySettings{
			Keep: DefaultHistoryKeep,
		},
	}
}

// Binding returns the binding with the given name.
func (s *AppSettings) Binding(name string) (Binding, bool) {
	for _, b := range s.Bindings {
		if b.Name == name {
			return b, true
		}
	}
	return Binding{}, false
}

// SchedulerConfig derives the scheduler configuration from the sync settings.
func (s *AppSettings) SchedulerConfig() SchedulerConfig {
	cfg := DefaultSchedulerConfig()
	cfg.PollInterval = s.Sync.PollInterval
	cfg.Debounce = s.Sync.Debounce
	return cfg
}
