package driven

import "context"

// CredentialSource yields raw key/value pairs from an external credential
// file, such as exported variables in a shell rc file.
type CredentialSource interface {
	// Load returns all pairs found. A missing source yields an empty map.
	Load(ctx context.Context) (map[string]string, error)
}
