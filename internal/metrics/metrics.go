// Package metrics exports Prometheus collectors for audit runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/varalys/vibeguard/internal/engine"
	"github.com/varalys/vibeguard/internal/types"
)

// Metrics holds the collectors updated after each engine run. It
// implements engine.Observer.
type Metrics struct {
	Runs         prometheus.Counter
	Findings     *prometheus.CounterVec
	FilesScanned prometheus.Counter
	FilesFailed  prometheus.Counter
	CacheHits    prometheus.Counter
	Duration     prometheus.Histogram

	// Requests is labelled by HTTP route and status code.
	Requests *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance with all collectors registered on
// registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Runs: factory.NewCounter(prometheus.CounterOpts{
			Name: "vibeguard_runs_total",
			Help: "Total number of engine runs",
		}),
		Findings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vibeguard_findings_total",
				Help: "Findings reported, by severity",
			},
			[]string{"severity"},
		),
		FilesScanned: factory.NewCounter(prometheus.CounterOpts{
			Name: "vibeguard_files_scanned_total",
			Help: "Files scanned by the static scanner",
		}),
		FilesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "vibeguard_files_failed_total",
			Help: "Files whose static scan failed and was isolated",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "vibeguard_cache_hits_total",
			Help: "Files served from the static finding cache",
		}),
		Duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vibeguard_run_duration_seconds",
			Help:    "Engine run duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vibeguard_http_requests_total",
				Help: "HTTP requests served, by route and status",
			},
			[]string{"route", "code"},
		),
	}
}

// ObserveRun records one engine result.
func (m *Metrics) ObserveRun(res engine.Result) {
	m.Runs.Inc()
	for _, sev := range types.Severities {
		if n := res.Summary.Count(sev); n > 0 {
			m.Findings.WithLabelValues(string(sev)).Add(float64(n))
		}
	}
	m.FilesScanned.Add(float64(res.FilesScanned))
	m.FilesFailed.Add(float64(res.FilesFailed))
	m.CacheHits.Add(float64(res.CacheHits))
	m.Duration.Observe(res.Duration.Seconds())
}
