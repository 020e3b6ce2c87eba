package processing

import "time"

// Observer receives run and stage outcomes, typically to feed metrics.
// Methods are called from the goroutine executing the run and must be safe
// for concurrent use across runs.
type Observer interface {
	RunStarted()
	// RunFinished is called once per run. err is nil on success.
	RunFinished(elapsed time.Duration, err error)
	// StageFinished is called once per attempted stage. err is nil on success.
	StageFinished(stage string, elapsed time.Duration, err error)
	// ArtifactProduced is called for each artifact of a completed run.
	ArtifactProduced(kind string, sizeBytes int64)
	// CleanupFailed is called for each path rollback could not remove.
	CleanupFailed(path string, err error)
}

// NopObserver discards every observation.
type NopObserver struct{}

func (NopObserver) RunStarted()                                {}
func (NopObserver) RunFinished(time.Duration, error)           {}
func (NopObserver) StageFinished(string, time.Duration, error) {}
func (NopObserver) ArtifactProduced(string, int64)             {}
func (NopObserver) CleanupFailed(string, error)                {}
