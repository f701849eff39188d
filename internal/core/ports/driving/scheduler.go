package driving

import "context"

// Scheduler drives sync passes from file-change and poll triggers.
type Scheduler interface {
	// Start begins running triggers.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops all triggers and waits for in-flight passes.
	Stop() error
}
