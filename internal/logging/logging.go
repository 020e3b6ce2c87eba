package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// LogFile is a timestamped run log on disk.
type LogFile struct {
	file     *os.File
	filePath string
}

// Setup creates a timestamped log file in logDir.
// Returns nil if logging is disabled (noLog=true).
func Setup(logDir string, noLog bool) (*LogFile, error) {
	if noLog {
		return nil, nil
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("gallerypipe_%s.log", timestamp)
	filePath := filepath.Join(logDir, filename)

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file %s: %w", filePath, err)
	}

	return &LogFile{file: file, filePath: filePath}, nil
}

// Close closes the log file.
func (l *LogFile) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// FilePath returns the path to the log file.
func (l *LogFile) FilePath() string {
	if l == nil {
		return ""
	}
	return l.filePath
}

// Writer returns an io.Writer that writes to the log file.
func (l *LogFile) Writer() io.Writer {
	if l == nil || l.file == nil {
		return io.Discard
	}
	return l.file
}
