package processing

import (
	"os"
	"path/filepath"

	coreerrors "github.com/five82/gallerypipe/internal/errors"
)

// Artifact subdirectories of a run directory.
const (
	compressedDir = "compressed"
	thumbnailsDir = "thumbnails"
	previewsDir   = "previews"
)

// workDir is the namespace of one run: <root>/<runID>. Directories are
// created on first use. Every path handed out by claim is recorded before
// anything writes to it, so rollback also catches partial files.
type workDir struct {
	path     string
	created  []string
	produced []string
}

func newWorkDir(root, runID string) *workDir {
	return &workDir{path: filepath.Join(root, runID)}
}

// claim reserves name inside subdir (or the run directory itself when
// subdir is empty) and returns its path.
func (w *workDir) claim(subdir, name string) (string, error) {
	dir := w.path
	if subdir != "" {
		dir = filepath.Join(w.path, subdir)
	}
	if err := w.ensure(w.path); err != nil {
		return "", err
	}
	if err := w.ensure(dir); err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)
	w.produced = append(w.produced, path)
	return path, nil
}

func (w *workDir) ensure(dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return coreerrors.NewFileSystemError("create directory", dir, err)
	}
	w.created = append(w.created, dir)
	return nil
}

// cleanupFailure is a path rollback could not remove.
type cleanupFailure struct {
	Path string
	Err  error
}

// rollback removes every claimed file, newest first, then every directory
// it created that is now empty. It never stops early.
func (w *workDir) rollback() []cleanupFailure {
	var failures []cleanupFailure

	for i := len(w.produced) - 1; i >= 0; i-- {
		path := w.produced[i]
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			failures = append(failures, cleanupFailure{Path: path, Err: err})
		}
	}
	w.produced = nil

	for i := len(w.created) - 1; i >= 0; i-- {
		dir := w.created[i]
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				failures = append(failures, cleanupFailure{Path: dir, Err: err})
			}
			continue
		}
		if len(entries) > 0 {
			continue
		}
		if err := os.Remove(dir); err != nil && !os.IsNotExist(err) {
			failures = append(failures, cleanupFailure{Path: dir, Err: err})
		}
	}
	w.created = nil

	return failures
}
