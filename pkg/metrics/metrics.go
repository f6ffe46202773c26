// Package metrics exposes Prometheus counters for the orchestration engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ScansStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanhub_scans_started_total",
		Help: "Number of scans admitted and started, by scan kind.",
	}, []string{"kind"})

	ScansCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanhub_scans_completed_total",
		Help: "Number of scans reaching a terminal state, by kind and status.",
	}, []string{"kind", "status"})

	ScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scanhub_scan_duration_seconds",
		Help:    "Wall-clock scan duration, by scan kind.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	}, []string{"kind"})

	AdmissionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanhub_admission_rejected_total",
		Help: "Number of scan requests refused by the admission controller.",
	}, []string{"reason"})

	Findings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanhub_findings_total",
		Help: "Number of normalized findings produced, by scan kind.",
	}, []string{"kind"})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
