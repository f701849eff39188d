package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/flowsync/internal/core/domain"
	"github.com/custodia-labs/flowsync/internal/core/ports/driven"
)

// SnapshotBuilder reads either side of a binding into an immutable snapshot.
type SnapshotBuilder struct {
	local  driven.LocalWorkflowStore
	remote driven.RemoteWorkflowStore
}

// NewSnapshotBuilder creates a snapshot builder.
func NewSnapshotBuilder(local driven.LocalWorkflowStore, remote driven.RemoteWorkflowStore) *SnapshotBuilder {
	return &SnapshotBuilder{
		local:  local,
		remote: remote,
	}
}

// Local snapshots the binding's local file.
// Any failure wraps domain.ErrSnapshotUnavailable.
func (b *SnapshotBuilder) Local(ctx context.Context, binding domain.Binding) (*domain.Snapshot, error) {
	doc, err := b.local.Read(ctx, binding.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("%w: local %s: %w", domain.ErrSnapshotUnavailable, binding.LocalPath, err)
	}

	snap, err := newSnapshot(domain.SideLocal, binding.WorkflowID, doc.Workflow)
	if err != nil {
		return nil, fmt.Errorf("%w: local %s: %w", domain.ErrSnapshotUnavailable, binding.LocalPath, err)
	}
	snap.LastModifiedAt = doc.ModifiedAt
	return snap, nil
}

// Remote snapshots the binding's workflow on the server.
// Any failure wraps domain.ErrSnapshotUnavailable.
func (b *SnapshotBuilder) Remote(ctx context.Context, binding domain.Binding) (*domain.Snapshot, error) {
	rw, err := b.remote.Get(ctx, binding.WorkflowID)
	if err != nil {
		return nil, fmt.Errorf("%w: remote %s: %w", domain.ErrSnapshotUnavailable, binding.WorkflowID, err)
	}

	snap, err := newSnapshot(domain.SideRemote, binding.WorkflowID, rw.Workflow)
	if err != nil {
		return nil, fmt.Errorf("%w: remote %s: %w", domain.ErrSnapshotUnavailable, binding.WorkflowID, err)
	}
	snap.LastModifiedAt = rw.UpdatedAt
	return snap, nil
}

func newSnapshot(side domain.Side, workflowID string, wf domain.Workflow) (*domain.Snapshot, error) {
	wf = wf.Normalised()
	content, err := CanonicalWorkflow(wf)
	if err != nil {
		return nil, fmt.Errorf("canonicalise: %w", err)
	}
	return &domain.Snapshot{
		Side:        side,
		WorkflowID:  workflowID,
		Workflow:    wf,
		Content:     content,
		ContentHash: HashContent(content),
	}, nil
}
