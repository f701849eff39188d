package domain

import "time"

// Trigger identifies what started a sync pass.
type Trigger string

// Trigger sources.
const (
	TriggerManual Trigger = "manual"
	TriggerWatch  Trigger = "watch"
	TriggerPoll   Trigger = "poll"
)

// PassRecord represents the outcome of one sync pass for one binding.
type PassRecord struct {
	// ID uniquely identifies the pass.
	ID string

	// Binding is the binding name the pass ran for.
	Binding string

	// Trigger is what started the pass.
	Trigger Trigger

	// Decision is what the decision engine chose.
	Decision Decision

	// Outcome is what actually happened.
	Outcome Outcome

	// Error contains the error message if the pass failed.
	Error string

	// LocalHash is the local content hash seen by the pass, if any.
	LocalHash string

	// RemoteHash is the remote content hash seen by the pass, if any.
	RemoteHash string

	// StartedAt is when the pass started.
	StartedAt time.Time

	// EndedAt is when the pass completed.
	EndedAt time.Time
}

// Duration returns how long the pass took.
func (r PassRecord) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// PassStats aggregates recorded passes for a binding.
type PassStats struct {
	Total     int
	Pushed    int
	Pulled    int
	InSync    int
	Conflicts int
	Skipped   int
	Failed    int
	LastPass  time.Time
}

// SchedulerConfig holds trigger configuration for continuous mode.
type SchedulerConfig struct {
	// PollInterval is how often the remote side is re-fetched.
	PollInterval time.Duration

	// Debounce is the quiet period required after a local file event.
	Debounce time.Duration

	// Watch enables the local file-change trigger.
	Watch bool

	// Poll enables the remote poll trigger.
	Poll bool
}

// DefaultSchedulerConfig returns sensible defaults for the scheduler.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		PollInterval: 10 * time.Second,
		Debounce:     1500 * time.Millisecond,
		Watch:        true,
		Poll:         true,
	}
}
