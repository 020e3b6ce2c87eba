// Package deps checks that the external tools the pipeline shells out to
// can actually be invoked.
package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/five82/gallerypipe/internal/ffmpeg"
)

// DefaultTimeout bounds a version check.
const DefaultTimeout = 5 * time.Second

// ToolProbe runs a tool with -version as a pre-flight check.
type ToolProbe struct {
	Path    string
	Timeout time.Duration
}

// NewToolProbe returns a ToolProbe for path. A non-positive timeout uses
// DefaultTimeout.
func NewToolProbe(path string, timeout time.Duration) *ToolProbe {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ToolProbe{Path: path, Timeout: timeout}
}

// IsAvailable reports whether the tool starts and exits 0 within the
// timeout. It never returns an error; spawn failures, non-zero exits,
// timeouts and cancellation all count as unavailable.
func (p *ToolProbe) IsAvailable(ctx context.Context) bool {
	_, err := p.Version(ctx)
	return err == nil
}

// Version runs the tool with -version and returns the first line it prints.
func (p *ToolProbe) Version(ctx context.Context) (string, error) {
	var stdout bytes.Buffer
	_, err := ffmpeg.Run(ctx, ffmpeg.Command{
		Tool:    p.Path,
		Args:    ffmpeg.VersionArgs(),
		Stage:   "tool check",
		Timeout: p.Timeout,
		Stdout:  &stdout,
	})
	if err != nil {
		return "", err
	}

	scanner := bufio.NewScanner(&stdout)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	return "", nil
}

// Requirement defines an external tool the pipeline relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
}

// Status reports the availability of a tool.
type Status struct {
	Name        string
	Command     string
	Description string
	Available   bool
	Version     string
	Detail      string
}

// CheckTools resolves each requirement on PATH and runs its version check.
func CheckTools(ctx context.Context, requirements []Requirement, timeout time.Duration) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}

		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Command = resolved

		version, err := NewToolProbe(resolved, timeout).Version(ctx)
		if err != nil {
			status.Detail = err.Error()
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Version = version
		results = append(results, status)
	}
	return results
}
