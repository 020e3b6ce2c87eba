package validation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/five82/gallerypipe/internal/ffprobe"
	"github.com/five82/gallerypipe/internal/media"
	"github.com/five82/gallerypipe/internal/testsupport"
)

// mockAnalyzer implements MediaAnalyzer for testing.
type mockAnalyzer struct {
	videos    map[string]media.MediaMetadata
	probeErr  map[string]error
	imageW    int
	imageH    int
	imageErr  error
	probeHits []string
}

func (m *mockAnalyzer) Probe(_ context.Context, path string) (media.MediaMetadata, error) {
	m.probeHits = append(m.probeHits, path)
	if err := m.probeErr[path]; err != nil {
		return media.MediaMetadata{}, err
	}
	return m.videos[path], nil
}

func (m *mockAnalyzer) ImageSize(string) (int, int, error) {
	return m.imageW, m.imageH, m.imageErr
}

func ptr[T any](v T) *T { return &v }

func fullOptions() Options {
	return Options{
		ExpectedCodec:           "h264",
		ExpectedDimensions:      &[2]int{1920, 1080},
		ExpectedDuration:        ptr(10.0),
		ExpectedPreviewDuration: ptr(10.0),
		ThumbnailBound:          &[2]int{400, 300},
	}
}

var allArtifacts = Artifacts{Compressed: "c.mp4", Thumbnail: "t.jpg", Preview: "p.mp4"}

func TestValidateWithAnalyzer_AllPass(t *testing.T) {
	mock := &mockAnalyzer{
		videos: map[string]media.MediaMetadata{
			"c.mp4": {Width: 1920, Height: 1080, DurationSecs: 10.02, CodecName: "h264"},
			"p.mp4": {Width: 640, Height: 360, DurationSecs: 9.97, CodecName: "h264"},
		},
		imageW: 400,
		imageH: 225,
	}

	result, err := ValidateWithAnalyzer(context.Background(), mock, allArtifacts, fullOptions())
	if err != nil {
		t.Fatalf("ValidateWithAnalyzer() error = %v", err)
	}
	if !result.IsValid() {
		t.Errorf("IsValid() = false, failures: %v", result.GetFailures())
	}
	if len(result.GetValidationSteps()) != 5 {
		t.Errorf("expected 5 steps, got %d", len(result.GetValidationSteps()))
	}
	if result.ActualDimensions == nil || *result.ActualDimensions != [2]int{1920, 1080} {
		t.Errorf("ActualDimensions = %v", result.ActualDimensions)
	}
}

func TestValidateWithAnalyzer_Mismatches(t *testing.T) {
	tests := []struct {
		name     string
		mock     *mockAnalyzer
		wantStep string
	}{
		{
			name: "wrong codec",
			mock: &mockAnalyzer{videos: map[string]media.MediaMetadata{
				"c.mp4": {Width: 1920, Height: 1080, DurationSecs: 10, CodecName: "mpeg4"},
				"p.mp4": {DurationSecs: 10},
			}, imageW: 400, imageH: 225},
			wantStep: "Video codec",
		},
		{
			name: "wrong dimensions",
			mock: &mockAnalyzer{videos: map[string]media.MediaMetadata{
				"c.mp4": {Width: 1280, Height: 720, DurationSecs: 10, CodecName: "h264"},
				"p.mp4": {DurationSecs: 10},
			}, imageW: 400, imageH: 225},
			wantStep: "Dimensions",
		},
		{
			name: "truncated encode",
			mock: &mockAnalyzer{videos: map[string]media.MediaMetadata{
				"c.mp4": {Width: 1920, Height: 1080, DurationSecs: 7.5, CodecName: "h264"},
				"p.mp4": {DurationSecs: 10},
			}, imageW: 400, imageH: 225},
			wantStep: "Video duration",
		},
		{
			name: "short preview",
			mock: &mockAnalyzer{videos: map[string]media.MediaMetadata{
				"c.mp4": {Width: 1920, Height: 1080, DurationSecs: 10, CodecName: "h264"},
				"p.mp4": {DurationSecs: 4},
			}, imageW: 400, imageH: 225},
			wantStep: "Preview duration",
		},
		{
			name: "unreadable preview",
			mock: &mockAnalyzer{videos: map[string]media.MediaMetadata{
				"c.mp4": {Width: 1920, Height: 1080, DurationSecs: 10, CodecName: "h264"},
			}, probeErr: map[string]error{"p.mp4": errors.New("moov atom not found")}, imageW: 400, imageH: 225},
			wantStep: "Preview duration",
		},
		{
			name: "oversized thumbnail",
			mock: &mockAnalyzer{videos: map[string]media.MediaMetadata{
				"c.mp4": {Width: 1920, Height: 1080, DurationSecs: 10, CodecName: "h264"},
				"p.mp4": {DurationSecs: 10},
			}, imageW: 1920, imageH: 1080},
			wantStep: "Thumbnail size",
		},
		{
			name: "unreadable thumbnail",
			mock: &mockAnalyzer{videos: map[string]media.MediaMetadata{
				"c.mp4": {Width: 1920, Height: 1080, DurationSecs: 10, CodecName: "h264"},
				"p.mp4": {DurationSecs: 10},
			}, imageErr: errors.New("unexpected EOF")},
			wantStep: "Thumbnail size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValidateWithAnalyzer(context.Background(), tt.mock, allArtifacts, fullOptions())
			if err != nil {
				t.Fatalf("ValidateWithAnalyzer() error = %v", err)
			}
			if result.IsValid() {
				t.Fatal("IsValid() = true, want false")
			}
			failures := result.GetFailures()
			if len(failures) != 1 || !strings.HasPrefix(failures[0], tt.wantStep+":") {
				t.Errorf("failures = %v, want only %q", failures, tt.wantStep)
			}
		})
	}
}

func TestValidateWithAnalyzer_CompressedProbeError(t *testing.T) {
	mock := &mockAnalyzer{probeErr: map[string]error{"c.mp4": errors.New("boom")}}

	if _, err := ValidateWithAnalyzer(context.Background(), mock, allArtifacts, fullOptions()); err == nil {
		t.Fatal("expected an error when the compressed copy cannot be probed")
	}
}

func TestValidateWithAnalyzer_SkipsUnrequestedChecks(t *testing.T) {
	mock := &mockAnalyzer{}

	result, err := ValidateWithAnalyzer(context.Background(), mock, Artifacts{}, Options{})
	if err != nil {
		t.Fatalf("ValidateWithAnalyzer() error = %v", err)
	}
	if !result.IsValid() {
		t.Errorf("empty validation should pass, failures: %v", result.GetFailures())
	}
	if len(mock.probeHits) != 0 {
		t.Errorf("nothing should be probed, got %v", mock.probeHits)
	}
}

func TestValidateDuration(t *testing.T) {
	tests := []struct {
		actual, expected float64
		want             bool
	}{
		{10, 10, true},
		{10.9, 10, true},
		{9, 10, true},
		{8.9, 10, false},
		{12, 10, false},
	}
	for _, tt := range tests {
		if got, _ := validateDuration(tt.actual, tt.expected); got != tt.want {
			t.Errorf("validateDuration(%g, %g) = %v, want %v", tt.actual, tt.expected, got, tt.want)
		}
	}
}

func TestDefaultAnalyzer(t *testing.T) {
	tools := testsupport.NewFakeTools(t, testsupport.DefaultFakeOptions())
	dir := t.TempDir()

	thumb := filepath.Join(dir, "thumbnails", "clip.bmp")
	if err := os.MkdirAll(filepath.Dir(thumb), 0o755); err != nil {
		t.Fatal(err)
	}
	testsupport.WriteBMP(t, thumb, 400, 225)

	analyzer := NewDefaultAnalyzer(ffprobe.New(tools.FFprobe, 5*time.Second))
	result, err := ValidateWithAnalyzer(context.Background(), analyzer, Artifacts{
		Compressed: filepath.Join(dir, "compressed", "clip.mp4"),
		Thumbnail:  thumb,
		Preview:    filepath.Join(dir, "previews", "clip.mp4"),
	}, fullOptions())
	if err != nil {
		t.Fatalf("ValidateWithAnalyzer() error = %v", err)
	}
	if !result.IsValid() {
		t.Errorf("IsValid() = false, failures: %v", result.GetFailures())
	}
}
