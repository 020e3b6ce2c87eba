package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/five82/gallerypipe/internal/util"
)

// JSONReporter outputs one JSON object per line (NDJSON).
type JSONReporter struct {
	writer io.Writer
	mu     sync.Mutex
	// lastBucket throttles stage_progress to 5% steps per run and stage.
	lastBucket map[string]int
}

const progressBucketSize = 5

// NewJSONReporter creates a new JSON reporter that writes to stdout.
func NewJSONReporter() *JSONReporter {
	return NewJSONReporterWithWriter(os.Stdout)
}

// NewJSONReporterWithWriter creates a JSON reporter with a custom writer.
func NewJSONReporterWithWriter(w io.Writer) *JSONReporter {
	return &JSONReporter{
		writer:     w,
		lastBucket: make(map[string]int),
	}
}

func (r *JSONReporter) timestamp() int64 {
	return time.Now().Unix()
}

func (r *JSONReporter) write(v map[string]any) {
	v["timestamp"] = r.timestamp()

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintln(r.writer, string(data))
}

func (r *JSONReporter) RunStarted(info RunStartInfo) {
	r.write(map[string]any{
		"type":       "run_started",
		"run_id":     info.RunID,
		"input_file": info.Input,
		"name":       info.Name,
		"size_bytes": info.SizeBytes,
	})
}

func (r *JSONReporter) MetadataProbed(summary MetadataSummary) {
	r.write(map[string]any{
		"type":             "metadata",
		"run_id":           summary.RunID,
		"input_file":       summary.Input,
		"duration_seconds": summary.Duration,
		"width":            summary.Width,
		"height":           summary.Height,
		"frame_rate":       summary.FrameRate,
		"codec":            summary.Codec,
		"bitrate_bps":      summary.BitrateBps,
	})
}

func (r *JSONReporter) StageStarted(update StageUpdate) {
	r.mu.Lock()
	r.lastBucket[update.RunID+"/"+update.Stage] = -1
	r.mu.Unlock()

	r.write(map[string]any{
		"type":       "stage_started",
		"run_id":     update.RunID,
		"input_file": update.Input,
		"stage":      update.Stage,
	})
}

func (r *JSONReporter) StageProgress(update StageUpdate) {
	key := update.RunID + "/" + update.Stage
	bucket := update.Percent / progressBucketSize

	r.mu.Lock()
	last, seen := r.lastBucket[key]
	if seen && bucket <= last && update.Percent < 100 {
		r.mu.Unlock()
		return
	}
	r.lastBucket[key] = bucket
	r.mu.Unlock()

	r.write(map[string]any{
		"type":       "stage_progress",
		"run_id":     update.RunID,
		"input_file": update.Input,
		"stage":      update.Stage,
		"percent":    update.Percent,
	})
}

func (r *JSONReporter) StageComplete(update StageUpdate) {
	r.mu.Lock()
	delete(r.lastBucket, update.RunID+"/"+update.Stage)
	r.mu.Unlock()

	r.write(map[string]any{
		"type":            "stage_complete",
		"run_id":          update.RunID,
		"input_file":      update.Input,
		"stage":           update.Stage,
		"output":          update.Output,
		"elapsed_seconds": update.Elapsed.Seconds(),
	})
}

func (r *JSONReporter) ValidationComplete(summary ValidationSummary) {
	steps := make([]map[string]any, len(summary.Steps))
	for i, step := range summary.Steps {
		steps[i] = map[string]any{
			"step":    step.Name,
			"passed":  step.Passed,
			"details": step.Details,
		}
	}

	r.write(map[string]any{
		"type":              "validation_complete",
		"run_id":            summary.RunID,
		"input_file":        summary.Input,
		"validation_passed": summary.Passed,
		"validation_steps":  steps,
	})
}

func (r *JSONReporter) RunComplete(outcome RunOutcome) {
	r.write(map[string]any{
		"type":                   "run_complete",
		"run_id":                 outcome.RunID,
		"input_file":             outcome.Input,
		"original_size":          outcome.OriginalSize,
		"compressed_size":        outcome.CompressedSize,
		"compressed_path":        outcome.CompressedPath,
		"thumbnail_path":         outcome.ThumbnailPath,
		"preview_path":           outcome.PreviewPath,
		"width":                  outcome.Width,
		"height":                 outcome.Height,
		"duration_seconds":       outcome.Elapsed.Seconds(),
		"size_reduction_percent": util.CalculateSizeReduction(outcome.OriginalSize, outcome.CompressedSize),
	})
}

func (r *JSONReporter) RunFailed(failure RunFailure) {
	r.write(map[string]any{
		"type":            "run_failed",
		"run_id":          failure.RunID,
		"input_file":      failure.Input,
		"state":           failure.State,
		"kind":            failure.Kind,
		"message":         failure.Message,
		"diagnostic_tail": failure.DiagnosticTail,
	})
}

func (r *JSONReporter) Warning(message string) {
	r.write(map[string]any{
		"type":    "warning",
		"message": message,
	})
}

func (r *JSONReporter) BatchStarted(info BatchStartInfo) {
	r.write(map[string]any{
		"type":        "batch_started",
		"total_files": info.TotalFiles,
		"file_list":   info.FileList,
		"concurrency": info.Concurrency,
	})
}

func (r *JSONReporter) BatchProgress(progress BatchProgress) {
	r.write(map[string]any{
		"type":       "batch_progress",
		"completed":  progress.Completed,
		"total":      progress.Total,
		"succeeded":  progress.Succeeded,
		"failed":     progress.Failed,
		"last_input": progress.LastInput,
	})
}

func (r *JSONReporter) BatchComplete(summary BatchSummary) {
	failures := make([]map[string]string, len(summary.Failures))
	for i, f := range summary.Failures {
		failures[i] = map[string]string{"input_file": f.Input, "message": f.Message}
	}

	r.write(map[string]any{
		"type":                         "batch_complete",
		"total_files":                  summary.TotalFiles,
		"successful_count":             summary.SuccessfulCount,
		"failed_count":                 summary.FailedCount,
		"total_original_size":          summary.TotalOriginalSize,
		"total_compressed_size":        summary.TotalCompressedSize,
		"total_duration_seconds":       int64(summary.TotalDuration.Seconds()),
		"total_size_reduction_percent": util.CalculateSizeReduction(summary.TotalOriginalSize, summary.TotalCompressedSize),
		"failures":                     failures,
	})
}
