package domain

import "errors"

// Domain errors represent sync failures the core knows how to classify.
// These are distinct from infrastructure errors, which adapters wrap.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownBinding indicates no binding is configured under the given name.
	ErrUnknownBinding = errors.New("unknown binding")

	// ErrSnapshotUnavailable indicates one side could not be read this pass.
	// It is transient: the pass is skipped and the next trigger retries.
	ErrSnapshotUnavailable = errors.New("snapshot unavailable")

	// ErrApplyFailed indicates a push or pull write did not complete.
	// It is transient: the mismatch persists and the next trigger retries.
	ErrApplyFailed = errors.New("apply failed")

	// ErrSyncInProgress indicates a pass is already running for the binding.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrCredentialsMissing indicates the N8N URL or API key could not be resolved.
	ErrCredentialsMissing = errors.New("n8n credentials missing")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrCircuitOpen indicates recent failures tripped the client circuit breaker.
	ErrCircuitOpen = errors.New("circuit open")
)
