package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/flowsync/internal/core/domain"
)

// RemoteWorkflow is a workflow as fetched from the automation server,
// already stripped of server-managed fields.
type RemoteWorkflow struct {
	// ID is the server workflow identity.
	ID string

	// Workflow is the user-editable content.
	Workflow domain.Workflow

	// UpdatedAt is the server-reported modification time.
	UpdatedAt time.Time
}

// WorkflowSummary is a lightweight listing entry.
type WorkflowSummary struct {
	ID        string
	Name      string
	Active    bool
	UpdatedAt time.Time
}

// RemoteWorkflowStore reads and replaces workflows on the automation server.
type RemoteWorkflowStore interface {
	// Get fetches one workflow.
	// Returns an error wrapping domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*RemoteWorkflow, error)

	// Update replaces the editable content of a workflow.
	// Returns the workflow as stored by the server.
	Update(ctx context.Context, id string, wf domain.Workflow) (*RemoteWorkflow, error)

	// List returns all workflows visible to the API key.
	List(ctx context.Context) ([]WorkflowSummary, error)
}

// LocalWorkflow is a workflow read from disk, already stripped of
// server-managed and local bookkeeping fields.
type LocalWorkflow struct {
	// Path is the file the workflow was read from.
	Path string

	// Workflow is the user-editable content.
	Workflow domain.Workflow

	// ModifiedAt is the file modification time.
	ModifiedAt time.Time
}

// LocalWorkflowStore reads and replaces workflow documents on disk.
type LocalWorkflowStore interface {
	// Read loads and parses the document at path.
	// Returns an error wrapping domain.ErrNotFound if the file is absent.
	Read(ctx context.Context, path string) (*LocalWorkflow, error)

	// Write replaces the document at path with content as a whole,
	// creating parent directories as needed.
	Write(ctx context.Context, path string, content []byte) error

	// Backup copies the current document aside and returns the backup path.
	// Returns an empty path and no error if there is nothing to back up.
	Backup(ctx context.Context, path string) (string, error)
}

// Watcher emits an event whenever the watched file may have changed.
type Watcher interface {
	// Watch starts watching path. The returned channel is closed when ctx
	// is cancelled or the watcher fails.
	Watch(ctx context.Context, path string) (<-chan struct{}, error)
}
