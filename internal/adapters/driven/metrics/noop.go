package metrics

import (
	"time"

	"github.com/custodia-labs/flowsync/internal/core/domain"
	"github.com/custodia-labs/flowsync/internal/core/ports/driven"
)

// Ensure Noop implements the interface.
var _ driven.MetricsRecorder = Noop{}

// Noop discards all measurements. Used when no metrics listener is configured.
type Noop struct{}

// ObservePass does nothing.
func (Noop) ObservePass(string, domain.Decision, domain.Outcome, time.Duration) {}

// DroppedTrigger does nothing.
func (Noop) DroppedTrigger(string, domain.Trigger) {}
