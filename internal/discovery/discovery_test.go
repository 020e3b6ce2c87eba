package discovery

import (
	"path/filepath"
	"testing"

	coreerrors "github.com/five82/gallerypipe/internal/errors"
	"github.com/five82/gallerypipe/internal/testsupport"
)

type recordingLogger struct {
	infos  int
	debugs int
}

func (l *recordingLogger) Info(string, ...any)  { l.infos++ }
func (l *recordingLogger) Debug(string, ...any) { l.debugs++ }

func TestFindVideoFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.MOV", "a.mp4", "notes.txt", ".hidden.mp4"} {
		testsupport.WriteFile(t, filepath.Join(dir, name), 10)
	}
	testsupport.WriteFile(t, filepath.Join(dir, "sub", "c.mp4"), 10)

	result, err := FindVideoFiles(dir)
	if err != nil {
		t.Fatalf("FindVideoFiles() error = %v", err)
	}

	want := []string{filepath.Join(dir, "a.mp4"), filepath.Join(dir, "b.MOV")}
	if len(result.Files) != len(want) {
		t.Fatalf("files = %v, want %v", result.Files, want)
	}
	for i := range want {
		if result.Files[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, result.Files[i], want[i])
		}
	}
	if result.SkippedCount != 1 {
		t.Errorf("SkippedCount = %d, want 1", result.SkippedCount)
	}
}

func TestFindVideoFilesErrors(t *testing.T) {
	empty := t.TempDir()
	if _, err := FindVideoFiles(empty); !coreerrors.IsNoFilesFound(err) {
		t.Errorf("empty dir error = %v, want NoFilesFound", err)
	}

	if _, err := FindVideoFiles(filepath.Join(empty, "missing")); !coreerrors.IsKind(err, coreerrors.KindFileSystem) {
		t.Errorf("missing dir error = %v, want FileSystemError", err)
	}

	file := filepath.Join(empty, "clip.mp4")
	testsupport.WriteFile(t, file, 10)
	if _, err := FindVideoFiles(file); !coreerrors.IsKind(err, coreerrors.KindFileSystem) {
		t.Errorf("file argument error = %v, want FileSystemError", err)
	}
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.mp4", "b.mkv"} {
		testsupport.WriteFile(t, filepath.Join(dir, name), 10)
	}
	single := filepath.Join(t.TempDir(), "upload.bin")
	testsupport.WriteFile(t, single, 10)

	logger := &recordingLogger{}
	files, err := Expand([]string{single, dir, filepath.Join(dir, "a.mp4")}, logger)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}

	want := []string{single, filepath.Join(dir, "a.mp4"), filepath.Join(dir, "b.mkv")}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, files[i], want[i])
		}
	}
	if logger.infos != 1 || logger.debugs != 2 {
		t.Errorf("logged %d infos, %d debugs", logger.infos, logger.debugs)
	}

	if _, err := Expand(nil, nil); !coreerrors.IsNoFilesFound(err) {
		t.Errorf("Expand(nil) error = %v, want NoFilesFound", err)
	}
}
