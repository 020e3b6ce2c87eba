package util

import (
	"os"
	"runtime"
	"strconv"
)

// WorkersEnv overrides the default batch worker count.
const WorkersEnv = "GALLERYPIPE_WORKERS"

// SystemInfo contains information about the host system.
type SystemInfo struct {
	Hostname string
	NumCPU   int
	OS       string
	Arch     string
}

// GetSystemInfo collects system information.
func GetSystemInfo() SystemInfo {
	hostname, _ := os.Hostname()
	return SystemInfo{
		Hostname: hostname,
		NumCPU:   runtime.NumCPU(),
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
	}
}

// DefaultConcurrency returns the number of pipeline workers to run.
//
// Every worker drives an ffmpeg process that is itself multi-threaded, so
// the count is GOMAXPROCS capped at limit. A positive integer in
// GALLERYPIPE_WORKERS replaces the computed value, still capped at limit
// when limit > 0. The result is never below 1.
func DefaultConcurrency(limit int) int {
	count := runtime.GOMAXPROCS(0)

	if v := os.Getenv(WorkersEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			count = n
		}
	}

	if limit > 0 && count > limit {
		count = limit
	}
	return max(count, 1)
}
