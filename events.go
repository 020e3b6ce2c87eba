package gallerypipe

import (
	"github.com/five82/gallerypipe/internal/reporter"
	"github.com/five82/gallerypipe/internal/util"
)

// Event types
const (
	EventTypeRunStarted         = "run_started"
	EventTypeMetadata           = "metadata"
	EventTypeStageStarted       = "stage_started"
	EventTypeStageProgress      = "stage_progress"
	EventTypeStageComplete      = "stage_complete"
	EventTypeValidationComplete = "validation_complete"
	EventTypeRunComplete        = "run_complete"
	EventTypeRunFailed          = "run_failed"
	EventTypeWarning            = "warning"
	EventTypeBatchStarted       = "batch_started"
	EventTypeBatchProgress      = "batch_progress"
	EventTypeBatchComplete      = "batch_complete"
)

// Event is implemented by every event passed to an EventHandler.
type Event interface {
	Type() string
	Timestamp() int64
}

// EventHandler receives pipeline events. Its error is ignored; handlers
// must not block for long since they run on the pipeline's goroutines.
type EventHandler func(Event) error

// BaseEvent carries the fields common to all events.
type BaseEvent struct {
	EventType string `json:"type"`
	Time      int64  `json:"timestamp"`
}

func (e BaseEvent) Type() string     { return e.EventType }
func (e BaseEvent) Timestamp() int64 { return e.Time }

func base(eventType string) BaseEvent {
	return BaseEvent{EventType: eventType, Time: NewTimestamp()}
}

// RunStartedEvent is emitted once an input has been accepted for a run.
type RunStartedEvent struct {
	BaseEvent
	RunID     string `json:"run_id"`
	InputFile string `json:"input_file"`
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
}

// MetadataEvent carries the probed input properties.
type MetadataEvent struct {
	BaseEvent
	RunID           string  `json:"run_id"`
	InputFile       string  `json:"input_file"`
	DurationSeconds float64 `json:"duration_seconds"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	FrameRate       float64 `json:"frame_rate"`
	Codec           string  `json:"codec"`
}

// StageEvent is emitted when a stage starts, advances or completes.
type StageEvent struct {
	BaseEvent
	RunID     string `json:"run_id"`
	InputFile string `json:"input_file"`
	Stage     string `json:"stage"`
	Percent   int    `json:"percent"`
	// Set on stage_complete.
	ElapsedSeconds float64 `json:"elapsed_seconds,omitempty"`
	Output         string  `json:"output,omitempty"`
}

// ValidationStep is a single post-run check.
type ValidationStep struct {
	Step    string `json:"step"`
	Passed  bool   `json:"passed"`
	Details string `json:"details"`
}

// ValidationCompleteEvent reports the post-run artifact checks.
type ValidationCompleteEvent struct {
	BaseEvent
	RunID            string           `json:"run_id"`
	InputFile        string           `json:"input_file"`
	ValidationPassed bool             `json:"validation_passed"`
	ValidationSteps  []ValidationStep `json:"validation_steps"`
}

// RunCompleteEvent is emitted when a run reaches Completed.
type RunCompleteEvent struct {
	BaseEvent
	RunID                string  `json:"run_id"`
	InputFile            string  `json:"input_file"`
	CompressedPath       string  `json:"compressed_path"`
	ThumbnailPath        string  `json:"thumbnail_path"`
	PreviewPath          string  `json:"preview_path"`
	OriginalSize         int64   `json:"original_size"`
	CompressedSize       int64   `json:"compressed_size"`
	SizeReductionPercent float64 `json:"size_reduction_percent"`
}

// RunFailedEvent is emitted when a run reaches Failed.
type RunFailedEvent struct {
	BaseEvent
	RunID          string `json:"run_id"`
	InputFile      string `json:"input_file"`
	State          string `json:"state"`
	Kind           string `json:"kind"`
	Message        string `json:"message"`
	DiagnosticTail string `json:"diagnostic_tail,omitempty"`
}

// WarningEvent carries a non-fatal problem such as a failed validation
// check or a file rollback could not remove.
type WarningEvent struct {
	BaseEvent
	Message string `json:"message"`
}

// BatchStartedEvent is emitted before the first batch item starts.
type BatchStartedEvent struct {
	BaseEvent
	TotalFiles  int      `json:"total_files"`
	FileList    []string `json:"file_list"`
	Concurrency int      `json:"concurrency"`
}

// BatchProgressEvent is emitted each time a batch item finishes.
type BatchProgressEvent struct {
	BaseEvent
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	LastInput string `json:"last_input"`
}

// BatchCompleteEvent summarizes a batch.
type BatchCompleteEvent struct {
	BaseEvent
	SuccessfulCount           int     `json:"successful_count"`
	FailedCount               int     `json:"failed_count"`
	TotalFiles                int     `json:"total_files"`
	TotalSizeReductionPercent float64 `json:"total_size_reduction_percent"`
}

// eventReporter adapts EventHandler to the Reporter interface.
type eventReporter struct {
	handler EventHandler
}

// NewEventReporter returns a Reporter that forwards every event to handler.
func NewEventReporter(handler EventHandler) Reporter {
	return &eventReporter{handler: handler}
}

func (r *eventReporter) RunStarted(info reporter.RunStartInfo) {
	_ = r.handler(RunStartedEvent{
		BaseEvent: base(EventTypeRunStarted),
		RunID:     info.RunID,
		InputFile: info.Input,
		Name:      info.Name,
		SizeBytes: info.SizeBytes,
	})
}

func (r *eventReporter) MetadataProbed(s reporter.MetadataSummary) {
	_ = r.handler(MetadataEvent{
		BaseEvent:       base(EventTypeMetadata),
		RunID:           s.RunID,
		InputFile:       s.Input,
		DurationSeconds: s.Duration,
		Width:           s.Width,
		Height:          s.Height,
		FrameRate:       s.FrameRate,
		Codec:           s.Codec,
	})
}

func (r *eventReporter) stage(eventType string, u reporter.StageUpdate) {
	_ = r.handler(StageEvent{
		BaseEvent:      base(eventType),
		RunID:          u.RunID,
		InputFile:      u.Input,
		Stage:          u.Stage,
		Percent:        u.Percent,
		ElapsedSeconds: u.Elapsed.Seconds(),
		Output:         u.Output,
	})
}

func (r *eventReporter) StageStarted(u reporter.StageUpdate)  { r.stage(EventTypeStageStarted, u) }
func (r *eventReporter) StageProgress(u reporter.StageUpdate) { r.stage(EventTypeStageProgress, u) }

func (r *eventReporter) StageComplete(u reporter.StageUpdate) {
	u.Percent = 100
	r.stage(EventTypeStageComplete, u)
}

func (r *eventReporter) ValidationComplete(s reporter.ValidationSummary) {
	steps := make([]ValidationStep, len(s.Steps))
	for i, step := range s.Steps {
		steps[i] = ValidationStep{
			Step:    step.Name,
			Passed:  step.Passed,
			Details: step.Details,
		}
	}
	_ = r.handler(ValidationCompleteEvent{
		BaseEvent:        base(EventTypeValidationComplete),
		RunID:            s.RunID,
		InputFile:        s.Input,
		ValidationPassed: s.Passed,
		ValidationSteps:  steps,
	})
}

func (r *eventReporter) RunComplete(o reporter.RunOutcome) {
	_ = r.handler(RunCompleteEvent{
		BaseEvent:            base(EventTypeRunComplete),
		RunID:                o.RunID,
		InputFile:            o.Input,
		CompressedPath:       o.CompressedPath,
		ThumbnailPath:        o.ThumbnailPath,
		PreviewPath:          o.PreviewPath,
		OriginalSize:         o.OriginalSize,
		CompressedSize:       o.CompressedSize,
		SizeReductionPercent: util.CalculateSizeReduction(o.OriginalSize, o.CompressedSize),
	})
}

func (r *eventReporter) RunFailed(f reporter.RunFailure) {
	_ = r.handler(RunFailedEvent{
		BaseEvent:      base(EventTypeRunFailed),
		RunID:          f.RunID,
		InputFile:      f.Input,
		State:          f.State,
		Kind:           f.Kind,
		Message:        f.Message,
		DiagnosticTail: f.DiagnosticTail,
	})
}

func (r *eventReporter) Warning(message string) {
	_ = r.handler(WarningEvent{
		BaseEvent: base(EventTypeWarning),
		Message:   message,
	})
}

func (r *eventReporter) BatchStarted(info reporter.BatchStartInfo) {
	_ = r.handler(BatchStartedEvent{
		BaseEvent:   base(EventTypeBatchStarted),
		TotalFiles:  info.TotalFiles,
		FileList:    info.FileList,
		Concurrency: info.Concurrency,
	})
}

func (r *eventReporter) BatchProgress(p reporter.BatchProgress) {
	_ = r.handler(BatchProgressEvent{
		BaseEvent: base(EventTypeBatchProgress),
		Completed: p.Completed,
		Total:     p.Total,
		Succeeded: p.Succeeded,
		Failed:    p.Failed,
		LastInput: p.LastInput,
	})
}

func (r *eventReporter) BatchComplete(s reporter.BatchSummary) {
	_ = r.handler(BatchCompleteEvent{
		BaseEvent:                 base(EventTypeBatchComplete),
		SuccessfulCount:           s.SuccessfulCount,
		FailedCount:               s.FailedCount,
		TotalFiles:                s.TotalFiles,
		TotalSizeReductionPercent: util.CalculateSizeReduction(s.TotalOriginalSize, s.TotalCompressedSize),
	})
}
