package domain

// Decision is the outcome of comparing a local and a remote snapshot.
type Decision string

// Decisions produced by the decision engine.
const (
	// DecisionSkip means at least one side was unavailable; nothing is done.
	DecisionSkip Decision = "skip"

	// DecisionInSync means both sides hash-equal, whatever their timestamps.
	DecisionInSync Decision = "in_sync"

	// DecisionPush means the local file is strictly newer and differs.
	DecisionPush Decision = "push_local_to_remote"

	// DecisionPull means the remote workflow is strictly newer and differs.
	DecisionPull Decision = "pull_remote_to_local"

	// DecisionConflict means contents differ but timestamps are equal.
	// It must be surfaced to a human and never trigger a write.
	DecisionConflict Decision = "conflict"
)

// String returns the decision identifier.
func (d Decision) String() string {
	return string(d)
}

// Label returns a short human-readable description.
func (d Decision) Label() string {
	switch d {
	case DecisionSkip:
		return "skipped"
	case DecisionInSync:
		return "in sync"
	case DecisionPush:
		return "push local to remote"
	case DecisionPull:
		return "pull remote to local"
	case DecisionConflict:
		return "conflict, manual resolution required"
	default:
		return string(d)
	}
}

// Writes reports whether acting on the decision modifies either side.
func (d Decision) Writes() bool {
	return d == DecisionPush || d == DecisionPull
}

// Outcome is the result of executing a pass.
type Outcome string

// Pass outcomes.
const (
	OutcomeInSync   Outcome = "in_sync"
	OutcomePushed   Outcome = "pushed"
	OutcomePulled   Outcome = "pulled"
	OutcomeConflict Outcome = "conflict"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
	OutcomePlanned  Outcome = "planned"
)

// String returns the outcome identifier.
func (o Outcome) String() string {
	return string(o)
}
