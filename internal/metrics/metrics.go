// Package metrics exposes Prometheus counters for cleaning runs.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/cleanse/internal/core"
)

// Run statuses used as the status label of cleanse_runs_total.
const (
	StatusOK          = "ok"
	StatusConfig      = "configuration_error"
	StatusSchema      = "schema_error"
	StatusComputation = "computation_error"
	StatusRejected    = "rejected"
	StatusError       = "error"
)

// Recorder owns a private registry so tests and embedders do not collide
// with the global default registry.
type Recorder struct {
	registry    *prometheus.Registry
	runs        *prometheus.CounterVec
	rowsIn      prometheus.Counter
	rowsRemoved prometheus.Counter
	actions     *prometheus.CounterVec
	issues      prometheus.Counter
	duration    prometheus.Histogram
}

// NewRecorder creates a Recorder with every collector registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cleanse_runs_total",
			Help: "Cleaning runs by outcome.",
		}, []string{"status"}),
		rowsIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cleanse_rows_in_total",
			Help: "Rows received by successful cleaning runs.",
		}),
		rowsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cleanse_rows_removed_total",
			Help: "Rows removed by successful cleaning runs.",
		}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cleanse_actions_total",
			Help: "Cleaning log entries by stage.",
		}, []string{"stage"}),
		issues: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cleanse_issues_total",
			Help: "Consistency and format issues reported.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cleanse_run_duration_seconds",
			Help:    "Wall time of cleaning runs.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	r.registry.MustRegister(r.runs, r.rowsIn, r.rowsRemoved, r.actions, r.issues, r.duration)
	return r
}

// ObserveRun records a successful run.
func (r *Recorder) ObserveRun(s core.Summary, elapsed time.Duration) {
	r.runs.WithLabelValues(StatusOK).Inc()
	r.rowsIn.Add(float64(s.OriginalRows))
	r.rowsRemoved.Add(float64(s.RemovedRows))
	r.issues.Add(float64(s.IssuesFound))
	for stage, n := range s.ActionsByStage {
		r.actions.WithLabelValues(string(stage)).Add(float64(n))
	}
	r.duration.Observe(elapsed.Seconds())
}

// ObserveFailure records a run that returned err. Actions logged before an
// abort are still counted.
func (r *Recorder) ObserveFailure(err error, elapsed time.Duration) {
	r.runs.WithLabelValues(Status(err)).Inc()
	var pe *core.PipelineError
	if errors.As(err, &pe) {
		for _, a := range pe.Log {
			r.actions.WithLabelValues(string(a.Stage)).Inc()
		}
	}
	r.duration.Observe(elapsed.Seconds())
}

// ObserveRejected records a request turned away before the engine ran.
func (r *Recorder) ObserveRejected() {
	r.runs.WithLabelValues(StatusRejected).Inc()
}

// Status maps an engine error to a run status label.
func Status(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, core.ErrConfiguration):
		return StatusConfig
	case errors.Is(err, core.ErrSchema):
		return StatusSchema
	case errors.Is(err, core.ErrComputation):
		return StatusComputation
	case errors.Is(err, core.ErrTooManyRuns):
		return StatusRejected
	default:
		return StatusError
	}
}

// Registry returns the registry holding the cleaning collectors.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
