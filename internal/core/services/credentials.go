package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/flowsync/internal/core/domain"
	"github.com/custodia-labs/flowsync/internal/core/ports/driven"
)

// Environment and rc-file keys for N8N credentials.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvN8NAPIURL  = "N8N_API_URL"
	EnvN8NBaseURL = "N8N_BASE_URL"
	EnvN8NAPIKey  = "N8N_API_KEY"
)

// apiPathSuffix is trimmed from configured URLs; the client owns the prefix.
const apiPathSuffix = "/api/v1"

// LookupFunc looks up an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// ResolveCredentials merges the N8N URL and API key from the environment,
// the rc-file source and the config file, in that order of precedence.
// The rc source is optional.
func ResolveCredentials(
	ctx context.Context,
	env LookupFunc,
	rc driven.CredentialSource,
	settings domain.N8NSettings,
) (domain.Credentials, error) {
	if env == nil {
		env = os.LookupEnv
	}

	rcValues := map[string]string{}
	if rc != nil {
		loaded, err := rc.Load(ctx)
		if err != nil {
			return domain.Credentials{}, fmt.Errorf("load rc credentials: %w", err)
		}
		if loaded != nil {
			rcValues = loaded
		}
	}

	lookup := func(keys ...string) string {
		for _, key := range keys {
			if val, ok := env(key); ok && strings.TrimSpace(val) != "" {
				return strings.TrimSpace(val)
			}
		}
		for _, key := range keys {
			if val := strings.TrimSpace(rcValues[key]); val != "" {
				return val
			}
		}
		return ""
	}

	baseURL := lookup(EnvN8NAPIURL, EnvN8NBaseURL)
	if baseURL == "" {
		baseURL = strings.TrimSpace(settings.APIURL)
	}
	apiKey := lookup(EnvN8NAPIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(settings.APIKey)
	}

	var missing []string
	if baseURL == "" {
		missing = append(missing, EnvN8NAPIURL)
	}
	if apiKey == "" {
		missing = append(missing, EnvN8NAPIKey)
	}
	if len(missing) > 0 {
		return domain.Credentials{}, fmt.Errorf("%w: %s", domain.ErrCredentialsMissing, strings.Join(missing, ", "))
	}

	return domain.Credentials{
		BaseURL: NormaliseBaseURL(baseURL),
		APIKey:  apiKey,
	}, nil
}

// NormaliseBaseURL strips trailing slashes and a trailing /api/v1.
func NormaliseBaseURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	u = strings.TrimSuffix(u, apiPathSuffix)
	return strings.TrimRight(u, "/")
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
