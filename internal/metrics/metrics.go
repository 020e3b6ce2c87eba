// Package metrics declares the Prometheus collectors for pipeline runs and
// an Observer that feeds them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run metrics
var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallerypipe_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"outcome"}, // "completed", "failed", "cancelled"
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallerypipe_run_duration_seconds",
			Help:    "Wall-clock duration of pipeline runs",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200, 1800},
		},
	)

	RunsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallerypipe_runs_in_progress",
			Help: "Number of pipeline runs currently executing",
		},
	)
)

// Stage metrics
var (
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallerypipe_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900, 1800},
		},
		[]string{"stage"},
	)

	StageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallerypipe_stage_failures_total",
			Help: "Total number of failed stages by error kind",
		},
		[]string{"stage", "kind"},
	)
)

// Artifact metrics
var (
	ArtifactBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallerypipe_artifact_bytes_total",
			Help: "Total bytes written for completed artifacts",
		},
		[]string{"kind"}, // "compressed", "thumbnail", "preview"
	)

	CleanupErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallerypipe_cleanup_errors_total",
			Help: "Total number of files rollback could not remove",
		},
	)
)

// WriteTextfile writes every registered metric to path in the text format
// read by the node_exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
