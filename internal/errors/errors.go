// Package errors provides the error taxonomy shared by every pipeline stage.
package errors

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// KindToolUnavailable means ffmpeg or ffprobe could not be invoked.
	KindToolUnavailable ErrorKind = iota
	// KindInputTooLarge means the input exceeds the configured size limit.
	KindInputTooLarge
	// KindProbeFailure means the inspection tool exited non-zero.
	KindProbeFailure
	// KindParseFailure means structured tool output could not be decoded.
	KindParseFailure
	// KindEncodingFailure means the encoding tool exited non-zero or produced nothing.
	KindEncodingFailure
	// KindTimeout means a stage exceeded its deadline and was killed.
	KindTimeout
	// KindCancelled means the caller cancelled the run.
	KindCancelled
	// KindFileSystem means a filesystem operation failed.
	KindFileSystem
	// KindConfig represents configuration validation errors.
	KindConfig
	// KindNoFilesFound represents no suitable video files found.
	KindNoFilesFound
)

// String returns a string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindToolUnavailable:
		return "Tool unavailable"
	case KindInputTooLarge:
		return "Input too large"
	case KindProbeFailure:
		return "Probe failure"
	case KindParseFailure:
		return "Parse failure"
	case KindEncodingFailure:
		return "Encoding failure"
	case KindTimeout:
		return "Timeout exceeded"
	case KindCancelled:
		return "Operation cancelled"
	case KindFileSystem:
		return "File system error"
	case KindConfig:
		return "Configuration error"
	case KindNoFilesFound:
		return "No files found"
	default:
		return "Unknown error"
	}
}

// CommandError represents a non-zero exit from an external command.
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("command %s failed with exit code %d: %s", e.Command, e.ExitCode, lastLine(e.Stderr))
	}
	return fmt.Sprintf("command %s failed with exit code %d", e.Command, e.ExitCode)
}

// CoreError is the error type returned by pipeline stages.
//
// Only the fields relevant to Kind are populated: Stage for timeouts,
// Op and Path for filesystem errors, ExitCode and DiagnosticTail for
// probe and encoding failures.
type CoreError struct {
	Kind           ErrorKind
	Message        string
	Stage          string
	Op             string
	Path           string
	ExitCode       int
	DiagnosticTail string
	Underlying     error
}

func (e *CoreError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CoreError) Unwrap() error {
	return e.Underlying
}

// Is reports whether target matches this error's kind.
func (e *CoreError) Is(target error) bool {
	t, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewToolUnavailableError creates an error for a tool that cannot be started.
func NewToolUnavailableError(tool string, underlying error) *CoreError {
	return &CoreError{Kind: KindToolUnavailable, Message: fmt.Sprintf("%s is not available", tool), Underlying: underlying}
}

// NewInputTooLargeError creates an error for an input above the size limit.
func NewInputTooLargeError(path string, size, limit int64) *CoreError {
	return &CoreError{
		Kind:    KindInputTooLarge,
		Message: fmt.Sprintf("%s is %d bytes, limit is %d bytes", path, size, limit),
		Path:    path,
	}
}

// NewProbeFailureError creates an error for a non-zero exit from the inspection tool.
func NewProbeFailureError(path string, cmdErr *CommandError) *CoreError {
	return &CoreError{
		Kind:           KindProbeFailure,
		Message:        fmt.Sprintf("failed to probe %s", path),
		Path:           path,
		ExitCode:       cmdErr.ExitCode,
		DiagnosticTail: cmdErr.Stderr,
		Underlying:     cmdErr,
	}
}

// NewParseFailureError creates an error for undecodable tool output.
func NewParseFailureError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindParseFailure, Message: message, Underlying: underlying}
}

// NewEncodingFailureError creates an error for a failed encoder invocation.
func NewEncodingFailureError(stage string, cmdErr *CommandError) *CoreError {
	return &CoreError{
		Kind:           KindEncodingFailure,
		Message:        fmt.Sprintf("%s stage failed", stage),
		Stage:          stage,
		ExitCode:       cmdErr.ExitCode,
		DiagnosticTail: cmdErr.Stderr,
		Underlying:     cmdErr,
	}
}

// NewEmptyOutputError creates an encoding failure for a run that exited
// cleanly without producing output.
func NewEmptyOutputError(stage, path string) *CoreError {
	return &CoreError{
		Kind:    KindEncodingFailure,
		Message: fmt.Sprintf("%s stage produced no output", stage),
		Stage:   stage,
		Path:    path,
	}
}

// NewInvalidOutputError creates an encoding failure for output that exists
// but cannot be decoded.
func NewInvalidOutputError(stage, path string, underlying error) *CoreError {
	return &CoreError{
		Kind:       KindEncodingFailure,
		Message:    fmt.Sprintf("%s stage produced unreadable output", stage),
		Stage:      stage,
		Path:       path,
		Underlying: underlying,
	}
}

// NewTimeoutError creates an error for a stage that exceeded its deadline.
func NewTimeoutError(stage string, limit fmt.Stringer) *CoreError {
	return &CoreError{
		Kind:    KindTimeout,
		Message: fmt.Sprintf("%s stage exceeded %s", stage, limit),
		Stage:   stage,
	}
}

// NewCancelledError creates an error for caller-cancelled operations.
func NewCancelledError(stage string) *CoreError {
	msg := "operation was cancelled"
	if stage != "" {
		msg = fmt.Sprintf("%s stage was cancelled", stage)
	}
	return &CoreError{Kind: KindCancelled, Message: msg, Stage: stage}
}

// NewFileSystemError creates an error for a failed filesystem operation.
func NewFileSystemError(op, path string, underlying error) *CoreError {
	return &CoreError{
		Kind:       KindFileSystem,
		Message:    fmt.Sprintf("%s %s", op, path),
		Op:         op,
		Path:       path,
		Underlying: underlying,
	}
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindConfig, Message: message, Underlying: underlying}
}

// NewNoFilesFoundError creates an error for when no video files are found.
func NewNoFilesFoundError(dir string) *CoreError {
	return &CoreError{Kind: KindNoFilesFound, Message: fmt.Sprintf("no suitable video files found in %s", dir)}
}

// IsKind checks if the error has the specified kind.
func IsKind(err error, kind ErrorKind) bool {
	var coreErr *CoreError
	if errors.As(err, &coreErr) {
		return coreErr.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first CoreError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var coreErr *CoreError
	if errors.As(err, &coreErr) {
		return coreErr.Kind, true
	}
	return 0, false
}

// IsCancelled checks if the error is a cancellation error.
func IsCancelled(err error) bool {
	return IsKind(err, KindCancelled)
}

// IsTimeout checks if the error is a stage timeout.
func IsTimeout(err error) bool {
	return IsKind(err, KindTimeout)
}

// IsNoFilesFound checks if the error is a no-files-found error.
func IsNoFilesFound(err error) bool {
	return IsKind(err, KindNoFilesFound)
}

// WrapExitError converts an exec.ExitError into a CommandError. Any other
// error is returned as nil, false.
func WrapExitError(cmd string, err error, stderr string) (*CommandError, bool) {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return nil, false
	}
	return &CommandError{Command: cmd, ExitCode: exitErr.ExitCode(), Stderr: stderr}, true
}

func lastLine(s string) string {
	s = strings.TrimRight(s, "\n")
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
