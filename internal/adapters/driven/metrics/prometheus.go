// Package metrics records sync pass measurements.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/flowsync/internal/core/domain"
	"github.com/custodia-labs/flowsync/internal/core/ports/driven"
)

// Namespace prefixes every metric name.
const Namespace = "flowsync"

// Ensure Recorder implements the interface.
var _ driven.MetricsRecorder = (*Recorder)(nil)

// Recorder exports pass metrics on its own registry, so several recorders
// (one per test) never collide on the global default registry.
type Recorder struct {
	registry *prometheus.Registry

	passes          *prometheus.CounterVec
	passDuration    *prometheus.HistogramVec
	droppedTriggers *prometheus.CounterVec
	lastPass        *prometheus.GaugeVec
}

// NewRecorder creates a Prometheus recorder with Go runtime and process
// collectors registered alongside the sync metrics.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()

	r := &Recorder{
		registry: registry,
		passes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "passes_total",
				Help:      "Total number of sync passes by decision and outcome",
			},
			[]string{"binding", "decision", "outcome"},
		),
		passDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "pass_duration_seconds",
				Help:      "Sync pass duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"binding"},
		),
		droppedTriggers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "dropped_triggers_total",
				Help:      "Triggers dropped because a pass was already in flight",
			},
			[]string{"binding", "trigger"},
		),
		lastPass: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "last_pass_timestamp_seconds",
				Help:      "Unix time of the last completed pass",
			},
			[]string{"binding"},
		),
	}

	registry.MustRegister(
		r.passes,
		r.passDuration,
		r.droppedTriggers,
		r.lastPass,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// ObservePass records a completed pass.
func (r *Recorder) ObservePass(binding string, decision domain.Decision, outcome domain.Outcome, took time.Duration) {
	r.passes.WithLabelValues(binding, string(decision), string(outcome)).Inc()
	r.passDuration.WithLabelValues(binding).Observe(took.Seconds())
	r.lastPass.WithLabelValues(binding).SetToCurrentTime()
}

// DroppedTrigger records a trigger that arrived while a pass was in flight.
func (r *Recorder) DroppedTrigger(binding string, trigger domain.Trigger) {
	r.droppedTriggers.WithLabelValues(binding, string(trigger)).Inc()
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
