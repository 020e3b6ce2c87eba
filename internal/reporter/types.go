// Package reporter provides progress reporting interfaces and implementations.
package reporter

import "time"

// RunStartInfo describes an input as a run begins.
type RunStartInfo struct {
	RunID     string
	Input     string
	Name      string
	SizeBytes int64
}

// MetadataSummary describes the probed input.
type MetadataSummary struct {
	RunID      string
	Input      string
	Duration   float64
	Width      int
	Height     int
	FrameRate  float64
	Codec      string
	BitrateBps int64
}

// StageUpdate reports a stage start, progress tick or completion.
type StageUpdate struct {
	RunID   string
	Input   string
	Stage   string
	Percent int
	// Elapsed and Output are set on completion.
	Elapsed time.Duration
	Output  string
}

// ValidationSummary contains validation results.
type ValidationSummary struct {
	RunID  string
	Input  string
	Passed bool
	Steps  []ValidationStep
}

// ValidationStep represents a single validation check.
type ValidationStep struct {
	Name    string
	Passed  bool
	Details string
}

// RunOutcome contains the artifacts of a completed run.
type RunOutcome struct {
	RunID          string
	Input          string
	OriginalSize   int64
	CompressedSize int64
	CompressedPath string
	ThumbnailPath  string
	PreviewPath    string
	Width          int
	Height         int
	Elapsed        time.Duration
}

// RunFailure describes a failed run.
type RunFailure struct {
	RunID          string
	Input          string
	State          string
	Kind           string
	Message        string
	DiagnosticTail string
}

// BatchStartInfo contains batch start metadata.
type BatchStartInfo struct {
	TotalFiles  int
	FileList    []string
	Concurrency int
}

// BatchProgress is reported each time a batch item finishes.
type BatchProgress struct {
	Completed int
	Total     int
	Succeeded int
	Failed    int
	LastInput string
}

// BatchSummary contains batch completion information.
type BatchSummary struct {
	TotalFiles          int
	SuccessfulCount     int
	FailedCount         int
	TotalOriginalSize   int64
	TotalCompressedSize int64
	TotalDuration       time.Duration
	Failures            []FileFailure
}

// FileFailure is one failed batch item.
type FileFailure struct {
	Input   string
	Message string
}
