package driven

import (
	"context"

	"github.com/custodia-labs/flowsync/internal/core/domain"
)

// HistoryStore persists an audit log of sync passes.
// The decision engine never reads it; it exists for reporting only.
type HistoryStore interface {
	// Record logs a pass.
	Record(ctx context.Context, record *domain.PassRecord) error

	// List returns recent passes for a binding, most recent first.
	// An empty binding lists passes across all bindings.
	List(ctx context.Context, binding string, limit int) ([]domain.PassRecord, error)

	// Stats aggregates all recorded passes for a binding.
	Stats(ctx context.Context, binding string) (domain.PassStats, error)

	// Prune keeps only the most recent 'keep' passes per binding.
	Prune(ctx context.Context, keep int) error
}
