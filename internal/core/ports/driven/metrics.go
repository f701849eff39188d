package driven

import (
	"time"

	"github.com/custodia-labs/flowsync/internal/core/domain"
)

// MetricsRecorder receives sync pass measurements.
type MetricsRecorder interface {
	// ObservePass records a completed pass.
	ObservePass(binding string, decision domain.Decision, outcome domain.Outcome, took time.Duration)

	// DroppedTrigger records a trigger that arrived while a pass was in flight.
	DroppedTrigger(binding string, trigger domain.Trigger)
}
