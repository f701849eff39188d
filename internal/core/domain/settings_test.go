package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, "~/.zshrc", s.RCFile)
	assert.Equal(t, DefaultPollInterval, s.Sync.PollInterval)
	assert.Equal(t, DefaultDebounce, s.Sync.Debounce)
	assert.Equal(t, DefaultRequestTimeout, s.Sync.RequestTimeout)
	assert.False(t, s.Sync.BackupBeforePull)
	assert.Equal(t, 30, s.Sync.BackupKeep)
	assert.Equal(t, 200, s.History.Keep)
	assert.Empty(t, s.Bindings)
}

func TestAppSettings_Binding(t *testing.T) {
	s := DefaultAppSettings()
	s.Bindings = []Binding{
		{Name: "quark", WorkflowID: "L6K4bzSKlGC36ABL", LocalPath: "/work/quark.json"},
		{Name: "ingest", WorkflowID: "a1b2c3", LocalPath: "/work/ingest.json"},
	}

	b, ok := s.Binding("ingest")
	assert.True(t, ok)
	assert.Equal(t, "a1b2c3", b.WorkflowID)

	_, ok = s.Binding("missing")
	assert.False(t, ok)
}

func TestAppSettings_SchedulerConfig(t *testing.T) {
	s := DefaultAppSettings()
	s.Sync.PollInterval = time.Minute
	s.Sync.Debounce = 0

	cfg := s.SchedulerConfig()

	assert.Equal(t, time.Minute, cfg.PollInterval)
	assert.Zero(t, cfg.Debounce)
	assert.True(t, cfg.Watch)
	assert.True(t, cfg.Poll)
}

func TestCredentials_MaskedKey(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{"", "***"},
		{"abcd", "***"},
		{"n8n_api_1234567890abcdef", "***cdef"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.expected, Credentials{APIKey: tt.key}.MaskedKey())
		})
	}
}
