// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - RemoteWorkflowStore: Reads and replaces workflows on the N8N instance
//   - LocalWorkflowStore: Reads and replaces workflow JSON files on disk
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Watcher: Local file-change events. Without it only polling triggers passes.
//   - HistoryStore: Pass audit log. Without it passes are only logged.
//   - MetricsRecorder: Pass metrics. Without it nothing is exported.
//   - CredentialSource: Shell rc parsing. Without it only env and config are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
