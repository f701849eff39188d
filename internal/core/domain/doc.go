// Package domain defines the core entities for flowsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Workflow: The user-editable content of an N8N workflow
//   - Snapshot: A point-in-time read of one side of a binding
//   - Binding: A static pairing of a remote workflow and a local file
//   - Decision: What a sync pass should do
//   - SyncSession: Per-binding state that serialises passes
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
