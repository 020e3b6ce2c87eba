// Package discovery expands command-line arguments into video file lists.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	coreerrors "github.com/five82/gallerypipe/internal/errors"
	"github.com/five82/gallerypipe/internal/util"
)

// DiscoveryLogger defines the interface for discovery logging.
type DiscoveryLogger interface {
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}

// DiscoveryResult contains the results of file discovery with metadata.
type DiscoveryResult struct {
	Files        []string
	SkippedCount int
}

// FindVideoFiles finds video files in the given directory.
// Returns files sorted alphabetically by filename.
func FindVideoFiles(inputDir string) (*DiscoveryResult, error) {
	info, err := os.Stat(inputDir)
	if err != nil {
		return nil, coreerrors.NewFileSystemError("stat", inputDir, err)
	}
	if !info.IsDir() {
		return nil, coreerrors.NewFileSystemError("read", inputDir, fmt.Errorf("%s is not a directory", inputDir))
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, coreerrors.NewFileSystemError("read directory", inputDir, err)
	}

	result := &DiscoveryResult{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		// Skip hidden files
		if strings.HasPrefix(name, ".") {
			continue
		}

		fullPath := filepath.Join(inputDir, name)
		if util.IsVideoFile(fullPath) {
			result.Files = append(result.Files, fullPath)
		} else {
			result.SkippedCount++
		}
	}

	if len(result.Files) == 0 {
		return nil, coreerrors.NewNoFilesFoundError(inputDir)
	}

	sort.Slice(result.Files, func(i, j int) bool {
		return strings.ToLower(filepath.Base(result.Files[i])) < strings.ToLower(filepath.Base(result.Files[j]))
	})

	return result, nil
}

// Expand resolves each argument: directories become their video files,
// anything else is kept as given. Duplicates are dropped, first wins.
func Expand(args []string, logger DiscoveryLogger) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if !seen[abs] {
			seen[abs] = true
			files = append(files, path)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			add(arg)
			continue
		}

		result, err := FindVideoFiles(arg)
		if err != nil {
			return nil, err
		}
		if logger != nil {
			logDiscoveredFiles(arg, result, logger)
		}
		for _, f := range result.Files {
			add(f)
		}
	}

	if len(files) == 0 {
		return nil, coreerrors.NewNoFilesFoundError(strings.Join(args, ", "))
	}
	return files, nil
}

// logDiscoveredFiles logs the first 5 discovered files plus a count.
func logDiscoveredFiles(dir string, result *DiscoveryResult, logger DiscoveryLogger) {
	logger.Info("found video files", "dir", dir, "count", len(result.Files), "skipped", result.SkippedCount)

	maxToLog := min(5, len(result.Files))
	for i := range maxToLog {
		logger.Debug("discovered", "file", filepath.Base(result.Files[i]))
	}

	if len(result.Files) > 5 {
		logger.Debug("discovered more", "remaining", len(result.Files)-5)
	}
}
