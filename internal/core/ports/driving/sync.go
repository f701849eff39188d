package driving

import (
	"context"

	"github.com/custodia-labs/flowsync/internal/core/domain"
)

// SyncEngine runs sync passes between local workflow files and the
// automation server.
type SyncEngine interface {
	// RunPass runs one snapshot-compare-apply pass for a binding.
	// Returns domain.ErrSyncInProgress without doing anything if a pass for
	// the binding is already in flight.
	RunPass(ctx context.Context, binding string, trigger domain.Trigger) (*PassReport, error)

	// RunAll runs one pass for every configured binding.
	RunAll(ctx context.Context, trigger domain.Trigger) ([]PassReport, error)

	// Plan builds both snapshots and decides, without applying anything.
	Plan(ctx context.Context, binding string) (*PassReport, error)

	// Download writes the remote workflow to the binding's local file
	// regardless of timestamps. An existing local file is only replaced when
	// overwrite is set; otherwise domain.ErrInvalidInput is returned.
	Download(ctx context.Context, binding string, overwrite bool) (*PassReport, error)

	// Bindings returns the configured bindings.
	Bindings() []domain.Binding

	// Session returns the session state for a binding.
	Session(binding string) (domain.SessionState, error)
}

// PassReport describes a single pass or plan.
type PassReport struct {
	// Binding is the binding the pass ran for.
	Binding domain.Binding

	// Local is the local snapshot, nil if unavailable.
	Local *domain.Snapshot

	// Remote is the remote snapshot, nil if unavailable.
	Remote *domain.Snapshot

	// Decision is what the decision engine chose.
	Decision domain.Decision

	// Outcome is what actually happened.
	Outcome domain.Outcome

	// Err is the failure that ended the pass, if any.
	Err error

	// Record is the audit record written for the pass.
	Record domain.PassRecord
}
