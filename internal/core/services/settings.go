package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/flowsync/internal/core/domain"
	"github.com/custodia-labs/flowsync/internal/core/ports/driven"
	"github.com/custodia-labs/flowsync/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyN8NAPIURL        = "n8n.api_url"
	keyN8NAPIKey        = "n8n.api_key"
	keyRCFile           = "credentials.rc_file"
	keyPollInterval     = "sync.poll_interval"
	keyDebounce         = "sync.debounce"
	keyRequestTimeout   = "sync.request_timeout"
	keyBackupBeforePull = "sync.backup_before_pull"
	keyBackupKeep       = "sync.backup_keep"
	keyHistoryKeep      = "history.keep"

	workflowsPrefix = "workflows."
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	validate    *validator.Validate
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validate:    validator.New(),
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	pollInterval, err := s.getDuration(keyPollInterval, defaults.Sync.PollInterval)
	if err != nil {
		return nil, err
	}
	debounce, err := s.getDuration(keyDebounce, defaults.Sync.Debounce)
	if err != nil {
		return nil, err
	}
	timeout, err := s.getDuration(keyRequestTimeout, defaults.Sync.RequestTimeout)
	if err != nil {
		return nil, err
	}

	settings := &domain.AppSettings{
		N8N: domain.N8NSettings{
			APIURL: s.configStore.GetString(keyN8NAPIURL),
			APIKey: s.configStore.GetString(keyN8NAPIKey),
		},
		RCFile: s.getString(keyRCFile, defaults.RCFile),
		Sync: domain.SyncSettings{
			PollInterval:     pollInterval,
			Debounce:         debounce,
			RequestTimeout:   timeout,
			BackupBeforePull: s.configStore.GetBool(keyBackupBeforePull),
			BackupKeep:       s.getInt(keyBackupKeep, defaults.Sync.BackupKeep),
		},
		History: domain.HistorySettings{
			Keep: s.getInt(keyHistoryKeep, defaults.History.Keep),
		},
		Bindings: s.bindings(),
	}

	return settings, nil
}

// Validate checks settings for consistency.
func (s *SettingsService) Validate(settings *domain.AppSettings) error {
	if settings == nil {
		return domain.ErrInvalidInput
	}
	if err := s.validate.Struct(settings); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, formatValidationError(err))
	}

	paths := make(map[string]string, len(settings.Bindings))
	for _, b := range settings.Bindings {
		if other, ok := paths[b.LocalPath]; ok {
			return fmt.Errorf("%w: bindings %q and %q share local path %s",
				domain.ErrInvalidInput, other, b.Name, b.LocalPath)
		}
		paths[b.LocalPath] = b.Name
	}
	return nil
}

// SaveBinding adds or replaces a workflow binding.
func (s *SettingsService) SaveBinding(binding domain.Binding) error {
	if err := s.validate.Struct(binding); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, formatValidationError(err))
	}
	if strings.Contains(binding.Name, ".") {
		return fmt.Errorf("%w: binding name %q must not contain dots", domain.ErrInvalidInput, binding.Name)
	}

	prefix := workflowsPrefix + binding.Name + "."
	if err := s.configStore.Set(prefix+"id", binding.WorkflowID); err != nil {
		return fmt.Errorf("save binding id: %w", err)
	}
	if err := s.configStore.Set(prefix+"path", binding.LocalPath); err != nil {
		return fmt.Errorf("save binding path: %w", err)
	}
	return nil
}

// bindings collects workflows.<name>.id / workflows.<name>.path pairs,
// sorted by name.
func (s *SettingsService) bindings() []domain.Binding {
	names := make(map[string]struct{})
	for _, key := range s.configStore.Keys(workflowsPrefix) {
		rest := strings.TrimPrefix(key, workflowsPrefix)
		name, _, ok := strings.Cut(rest, ".")
		if ok && name != "" {
			names[name] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	bindings := make([]domain.Binding, 0, len(sorted))
	for _, name := range sorted {
		prefix := workflowsPrefix + name + "."
		bindings = append(bindings, domain.Binding{
			Name:       name,
			WorkflowID: s.configStore.GetString(prefix + "id"),
			LocalPath:  ExpandHome(s.configStore.GetString(prefix + "path")),
		})
	}
	return bindings
}

// Helper methods for getting values with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); exists {
		return s.configStore.GetInt(key)
	}
	return defaultVal
}

// getDuration accepts a Go duration string ("10s") or an integer number of seconds.
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val, exists := s.configStore.Get(key)
	if !exists {
		return defaultVal, nil
	}
	switch v := val.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
		}
		return d, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case int:
		return time.Duration(v) * time.Second, nil
	case time.Duration:
		return v, nil
	default:
		return 0, fmt.Errorf("%w: %s: unsupported value %v", domain.ErrInvalidInput, key, val)
	}
}

// formatValidationError formats validation errors into readable messages.
func formatValidationError(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := strings.ToLower(e.Namespace())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, e.Param()))
		case "url":
			msgs = append(msgs, field+" must be a valid URL")
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
