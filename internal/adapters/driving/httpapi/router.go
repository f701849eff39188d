// Package httpapi serves the optional observability listener:
// Prometheus metrics and a JSON health report of the sync bindings.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/custodia-labs/flowsync/internal/core/domain"
	"github.com/custodia-labs/flowsync/internal/core/ports/driving"
	"github.com/custodia-labs/flowsync/internal/logger"
)

// Health statuses.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// HealthReport is the /healthz response body.
type HealthReport struct {
	Status   string          `json:"status"`
	Bindings []BindingHealth `json:"bindings"`
}

// BindingHealth describes one binding and its session.
type BindingHealth struct {
	Name       string              `json:"name"`
	WorkflowID string              `json:"workflow_id"`
	LocalPath  string              `json:"local_path"`
	Session    domain.SessionState `json:"session"`
}

// NewRouter builds the observability routes. A nil metrics handler
// leaves /metrics unmounted.
func NewRouter(engine driving.SyncEngine, metrics http.Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger)

	if metrics != nil {
		router.Method(http.MethodGet, "/metrics", metrics)
	}
	router.Get("/healthz", healthHandler(engine))

	return router
}

func healthHandler(engine driving.SyncEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		report := HealthReport{Status: StatusOK, Bindings: []BindingHealth{}}

		for _, b := range engine.Bindings() {
			state, err := engine.Session(b.Name)
			if err != nil {
				continue
			}
			if state.LastOutcome == domain.OutcomeFailed {
				report.Status = StatusDegraded
			}
			report.Bindings = append(report.Bindings, BindingHealth{
				Name:       b.Name,
				WorkflowID: b.WorkflowID,
				LocalPath:  b.LocalPath,
				Session:    state,
			})
		}

		writeJSON(w, http.StatusOK, report)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("httpapi: encode response: %v", err)
	}
}

// requestLogger logs each request at debug level. Outside verbose mode the
// response writer is not wrapped.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !logger.IsVerbose() {
			next.ServeHTTP(w, r)
			return
		}
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		logger.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(started).Round(time.Millisecond)),
		)
	})
}
