package domain

import "time"

// Workflow is the user-editable content of an N8N workflow.
// Server-managed fields (id, active, versionId, tags, timestamps) and local
// bookkeeping fields never appear here; adapters strip them before handing
// a Workflow to the core.
type Workflow struct {
	// Name is the workflow display name.
	Name string `json:"name"`

	// Nodes is the ordered list of node definitions, kept as opaque JSON values.
	Nodes []any `json:"nodes"`

	// Connections maps source node names to their outgoing connections.
	Connections map[string]any `json:"connections"`

	// Settings holds workflow-level execution settings.
	Settings map[string]any `json:"settings"`
}

// Normalised returns a copy with nil collections replaced by empty ones,
// so that "missing" and "empty" serialise identically.
func (w Workflow) Normalised() Workflow {
	if w.Nodes == nil {
		w.Nodes = []any{}
	}
	if w.Connections == nil {
		w.Connections = map[string]any{}
	}
	if w.Settings == nil {
		w.Settings = map[string]any{}
	}
	return w
}

// Side identifies which end of a binding a snapshot was taken from.
type Side string

// Snapshot sides.
const (
	SideLocal  Side = "local"
	SideRemote Side = "remote"
)

// Snapshot is an immutable point-in-time read of one side of a binding.
// ContentHash is a pure function of Content.
type Snapshot struct {
	// Side is where the snapshot was read from.
	Side Side

	// WorkflowID is the stable remote workflow identity.
	WorkflowID string

	// Workflow is the parsed, normalised workflow content.
	Workflow Workflow

	// Content is the canonical JSON serialisation of Workflow.
	Content []byte

	// ContentHash is the hex SHA-256 digest of Content.
	ContentHash string

	// LastModifiedAt is the file mtime (local) or server updatedAt (remote).
	LastModifiedAt time.Time
}

// ShortHash returns the first eight characters of the content hash.
func (s *Snapshot) ShortHash() string {
	if s == nil {
		return ""
	}
	if len(s.ContentHash) <= 8 {
		return s.ContentHash
	}
	return s.ContentHash[:8]
}

// Binding statically maps one remote workflow to one local file.
type Binding struct {
	// Name is the short handle used on the command line.
	Name string `validate:"required"`

	// WorkflowID is the remote N8N workflow ID.
	WorkflowID string `validate:"required"`

	// LocalPath is the JSON file on disk.
	LocalPath string `validate:"required"`
}

// ContentHashOrEmpty returns the content hash, or "" for a nil snapshot.
func (s *Snapshot) ContentHashOrEmpty() string {
	if s == nil {
		return ""
	}
	return s.ContentHash
}
