package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"ResearchDigest/internal/domain"
)

// Metrics exposes pipeline counters and timings for Prometheus scraping.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal      *prometheus.CounterVec
	stageErrors    prometheus.Counter
	papersSelected prometheus.Counter
	runDuration    prometheus.Histogram
}

// New creates the metric set on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "digest_pipeline_runs_total",
			Help: "Pipeline runs by terminal success flag.",
		}, []string{"success"}),
		stageErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "digest_stage_errors_total",
			Help: "Stage-level degradations recorded across all runs.",
		}),
		papersSelected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "digest_papers_selected_total",
			Help: "Papers selected across all runs.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "digest_run_duration_seconds",
			Help:    "Wall-clock duration of pipeline runs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}

	m.registry.MustRegister(m.runsTotal, m.stageErrors, m.papersSelected, m.runDuration)
	return m
}

// Registry returns the backing registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRun observes one finished pipeline run.
func (m *Metrics) RecordRun(run domain.PipelineRun) {
	m.runsTotal.WithLabelValues(strconv.FormatBool(run.Success)).Inc()
	m.stageErrors.Add(float64(len(run.Errors)))
	m.papersSelected.Add(float64(run.PapersSelectedCount))
	m.runDuration.Observe(run.ExecutionTimeSeconds)
}
