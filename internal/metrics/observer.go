package metrics

import (
	"strings"
	"time"

	coreerrors "github.com/five82/gallerypipe/internal/errors"
	"github.com/five82/gallerypipe/internal/processing"
)

// pipelineObserver implements processing.Observer using the Prometheus
// metrics declared in this package.
type pipelineObserver struct{}

// NewPipelineObserver creates an observer that records run and stage
// metrics into the collectors declared in metrics.go.
func NewPipelineObserver() processing.Observer {
	return &pipelineObserver{}
}

func (o *pipelineObserver) RunStarted() {
	RunsInProgress.Inc()
}

func (o *pipelineObserver) RunFinished(elapsed time.Duration, err error) {
	RunsInProgress.Dec()
	RunDuration.Observe(elapsed.Seconds())
	RunsTotal.WithLabelValues(outcome(err)).Inc()
}

func (o *pipelineObserver) StageFinished(stage string, elapsed time.Duration, err error) {
	StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	if err != nil {
		StageFailures.WithLabelValues(stage, kindLabel(err)).Inc()
	}
}

func (o *pipelineObserver) ArtifactProduced(kind string, sizeBytes int64) {
	ArtifactBytes.WithLabelValues(kind).Add(float64(sizeBytes))
}

func (o *pipelineObserver) CleanupFailed(string, error) {
	CleanupErrors.Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "completed"
	case coreerrors.IsCancelled(err):
		return "cancelled"
	default:
		return "failed"
	}
}

// kindLabel turns an error kind into a label value, e.g. "encoding_failure".
func kindLabel(err error) string {
	kind, ok := coreerrors.KindOf(err)
	if !ok {
		return "other"
	}
	return strings.ReplaceAll(strings.ToLower(kind.String()), " ", "_")
}
