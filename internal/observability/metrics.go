// Package observability records run metrics in a private Prometheus registry
// and traces service operations as JSON lines.
package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder captures service operation outcomes and plan sizes.
type Recorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
	ObservePlan(vialUnits, appended, racks int)
}

// NoopRecorder discards every observation.
type NoopRecorder struct{}

// Observe implements Recorder.
func (NoopRecorder) Observe(context.Context, string, bool, time.Duration) {}

// ObservePlan implements Recorder.
func (NoopRecorder) ObservePlan(int, int, int) {}

// PrometheusRecorder publishes run metrics through its own registry so that
// several recorders can coexist in one process (tests, embedded use).
type PrometheusRecorder struct {
	registry *prometheus.Registry
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	units    prometheus.Gauge
	appended prometheus.Gauge
	racks    prometheus.Gauge
}

// NewPrometheusRecorder registers the peptidesynth collectors on a fresh registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "peptidesynth_runs_total",
			Help: "Plan and extend runs by outcome.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "peptidesynth_run_duration_seconds",
			Help:    "Wall time of plan and extend runs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		units: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "peptidesynth_vial_units",
			Help: "Vial units required by the last run.",
		}),
		appended: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "peptidesynth_appended_units",
			Help: "Vial units appended to the prior layout by the last run.",
		}),
		racks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "peptidesynth_racks",
			Help: "Racks occupied by the last run.",
		}),
	}
	r.registry.MustRegister(r.runs, r.duration, r.units, r.appended, r.racks)
	return r
}

// Registry exposes the private registry, e.g. for an HTTP handler or Gather.
func (r *PrometheusRecorder) Registry() *prometheus.Registry { return r.registry }

// Observe records a service operation outcome.
func (r *PrometheusRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.runs.WithLabelValues(operation, status).Inc()
	r.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObservePlan records the size of the last plan.
func (r *PrometheusRecorder) ObservePlan(vialUnits, appended, racks int) {
	r.units.Set(float64(vialUnits))
	r.appended.Set(float64(appended))
	r.racks.Set(float64(racks))
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (r *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
