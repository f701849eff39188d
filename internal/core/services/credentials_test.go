package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/flowsync/internal/core/domain"
)

func envOf(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestResolveCredentials_Precedence(t *testing.T) {
	settings := domain.N8NSettings{APIURL: "https://config.example.com", APIKey: "config-key"}
	rc := &mockCredentialSource{values: map[string]string{
		"N8N_API_URL": "https://rc.example.com",
		"N8N_API_KEY": "rc-key",
	}}

	tests := []struct {
		name    string
		env     map[string]string
		rc      *mockCredentialSource
		wantURL string
		wantKey string
	}{
		{
			name:    "environment wins",
			env:     map[string]string{"N8N_API_URL": "https://env.example.com", "N8N_API_KEY": "env-key"},
			rc:      rc,
			wantURL: "https://env.example.com",
			wantKey: "env-key",
		},
		{
			name:    "rc file over config",
			env:     map[string]string{},
			rc:      rc,
			wantURL: "https://rc.example.com",
			wantKey: "rc-key",
		},
		{
			name:    "config as fallback",
			env:     map[string]string{},
			rc:      &mockCredentialSource{},
			wantURL: "https://config.example.com",
			wantKey: "config-key",
		},
		{
			name:    "mixed sources",
			env:     map[string]string{"N8N_API_KEY": "env-key"},
			rc:      rc,
			wantURL: "https://rc.example.com",
			wantKey: "env-key",
		},
		{
			name:    "base url alias",
			env:     map[string]string{"N8N_BASE_URL": "https://alias.example.com/api/v1/"},
			rc:      &mockCredentialSource{},
			wantURL: "https://alias.example.com",
			wantKey: "config-key",
		},
		{
			name:    "blank env value ignored",
			env:     map[string]string{"N8N_API_URL": "  ", "N8N_API_KEY": ""},
			rc:      rc,
			wantURL: "https://rc.example.com",
			wantKey: "rc-key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, err := ResolveCredentials(context.Background(), envOf(tt.env), tt.rc, settings)

			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, creds.BaseURL)
			assert.Equal(t, tt.wantKey, creds.APIKey)
		})
	}
}

func TestResolveCredentials_Missing(t *testing.T) {
	_, err := ResolveCredentials(context.Background(), envOf(nil), nil, domain.N8NSettings{APIURL: "https://n8n.example.com"})

	assert.ErrorIs(t, err, domain.ErrCredentialsMissing)
	assert.Contains(t, err.Error(), "N8N_API_KEY")
}

func TestResolveCredentials_SourceError(t *testing.T) {
	rc := &mockCredentialSource{err: errors.New("permission denied")}

	_, err := ResolveCredentials(context.Background(), envOf(nil), rc, domain.N8NSettings{})

	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrCredentialsMissing)
}

func TestNormaliseBaseURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://n8n.example.com", "https://n8n.example.com"},
		{"https://n8n.example.com/", "https://n8n.example.com"},
		{"https://n8n.example.com/api/v1", "https://n8n.example.com"},
		{"https://n8n.example.com/api/v1/", "https://n8n.example.com"},
		{" http://localhost:5678 ", "http://localhost:5678"},
		{"https://example.com/n8n/api/v1", "https://example.com/n8n"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormaliseBaseURL(tt.in))
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, filepath.Join(home, ".zshrc"), ExpandHome("~/.zshrc"))
	assert.Equal(t, "/etc/profile", ExpandHome("/etc/profile"))
	assert.Equal(t, "~other/file", ExpandHome("~other/file"))
}

func TestCredentials_MaskedKey(t *testing.T) {
	assert.Equal(t, "***", domain.Credentials{APIKey: "abc"}.MaskedKey())
	assert.Equal(t, "***wxyz", domain.Credentials{APIKey: "n8n_api_wxyz"}.MaskedKey())
}
