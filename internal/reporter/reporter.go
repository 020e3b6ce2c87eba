package reporter

// Reporter defines the interface for progress reporting. Implementations
// must be safe for concurrent use; batch workers report in parallel.
type Reporter interface {
	RunStarted(info RunStartInfo)
	MetadataProbed(summary MetadataSummary)
	StageStarted(update StageUpdate)
	StageProgress(update StageUpdate)
	StageComplete(update StageUpdate)
	ValidationComplete(summary ValidationSummary)
	RunComplete(outcome RunOutcome)
	RunFailed(failure RunFailure)
	Warning(message string)
	BatchStarted(info BatchStartInfo)
	BatchProgress(progress BatchProgress)
	BatchComplete(summary BatchSummary)
}

// NullReporter is a no-op reporter that discards all updates.
type NullReporter struct{}

func (NullReporter) RunStarted(RunStartInfo)              {}
func (NullReporter) MetadataProbed(MetadataSummary)       {}
func (NullReporter) StageStarted(StageUpdate)             {}
func (NullReporter) StageProgress(StageUpdate)            {}
func (NullReporter) StageComplete(StageUpdate)            {}
func (NullReporter) ValidationComplete(ValidationSummary) {}
func (NullReporter) RunComplete(RunOutcome)               {}
func (NullReporter) RunFailed(RunFailure)                 {}
func (NullReporter) Warning(string)                       {}
func (NullReporter) BatchStarted(BatchStartInfo)          {}
func (NullReporter) BatchProgress(BatchProgress)          {}
func (NullReporter) BatchComplete(BatchSummary)           {}
