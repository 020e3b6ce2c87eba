package gallerypipe

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/five82/gallerypipe/internal/config"
	"github.com/five82/gallerypipe/internal/logging"
	"github.com/five82/gallerypipe/internal/testsupport"
)

func TestNewAppliesOptions(t *testing.T) {
	pipe, err := New(
		WithMaxDimensions(1280, 720),
		WithCodec(CodecH265),
		WithQuality(QualityLow),
		WithTargetBitrate("1M"),
		WithPreview(2, 4),
		WithConcurrency(3),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	opts := pipe.Options()
	if opts.MaxWidth != 1280 || opts.MaxHeight != 720 {
		t.Errorf("dimensions = %dx%d", opts.MaxWidth, opts.MaxHeight)
	}
	if opts.Codec != CodecH265 || opts.Quality != QualityLow || opts.TargetBitrate != "1M" {
		t.Errorf("options = %+v", opts)
	}
	if opts.PreviewStartSecs != 2 || opts.PreviewDurationSecs != 4 {
		t.Errorf("preview window = %g+%g", opts.PreviewStartSecs, opts.PreviewDurationSecs)
	}
	if pipe.config.Concurrency != 3 {
		t.Errorf("concurrency = %d", pipe.config.Concurrency)
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
		want error
	}{
		{"zero dimensions", WithMaxDimensions(0, 720), config.ErrInvalidDimensions},
		{"bad bitrate", WithTargetBitrate("fast"), config.ErrInvalidBitrate},
		{"unknown codec", WithCodec("vp9"), config.ErrInvalidCodec},
		{"negative offset", WithThumbnailOffset(-1), config.ErrInvalidOffset},
		{"no concurrency", WithConcurrency(0), config.ErrInvalidConcurrency},
		{"empty tool path", WithToolPaths("", "ffprobe"), config.ErrMissingToolPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opt)
			if !errors.Is(err, tt.want) {
				t.Fatalf("New() error = %v, want %v", err, tt.want)
			}
			if !IsKind(err, KindConfig) {
				t.Errorf("error kind should be Config: %v", err)
			}
		})
	}
}

func TestWithConfigCopies(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Options.FrameRate = 24

	pipe, err := New(WithConfig(cfg), WithFrameRate(25))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if pipe.Options().FrameRate != 25 {
		t.Errorf("later options should win, got %d", pipe.Options().FrameRate)
	}
	if cfg.Options.FrameRate != 24 {
		t.Error("WithConfig must not modify the caller's config")
	}
}

func newTestPipeline(t *testing.T, fake testsupport.FakeOptions, opts ...Option) *Pipeline {
	t.Helper()
	tools := testsupport.NewFakeTools(t, fake)
	base := []Option{
		WithToolPaths(tools.FFmpeg, tools.FFprobe),
		WithWorkRoot(filepath.Join(t.TempDir(), "work")),
		WithLogger(logging.Discard().Logger),
	}
	pipe, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return pipe
}

// eventLog records events from concurrent handlers.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) handle(ev Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	return nil
}

func (l *eventLog) types() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	types := make([]string, len(l.events))
	for i, ev := range l.events {
		types[i] = ev.Type()
	}
	return types
}

func (l *eventLog) count(eventType string) int {
	n := 0
	for _, typ := range l.types() {
		if typ == eventType {
			n++
		}
	}
	return n
}

func TestProcessEmitsEvents(t *testing.T) {
	pipe := newTestPipeline(t, testsupport.DefaultFakeOptions())
	input := filepath.Join(t.TempDir(), "upload")
	testsupport.WriteFile(t, input, 4096)

	var log eventLog
	result, err := pipe.Process(context.Background(), input, "beach day.mov", log.handle)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if filepath.Base(result.Compressed.Path) != "beach_day.mp4" {
		t.Errorf("compressed path = %s", result.Compressed.Path)
	}

	types := log.types()
	if len(types) == 0 || types[0] != EventTypeRunStarted || types[len(types)-1] != EventTypeRunComplete {
		t.Fatalf("event order = %v", types)
	}
	if got := log.count(EventTypeStageComplete); got != 4 {
		t.Errorf("stage_complete events = %d, want 4", got)
	}
	if log.count(EventTypeMetadata) != 1 || log.count(EventTypeValidationComplete) != 1 {
		t.Errorf("events = %v", types)
	}

	log.mu.Lock()
	defer log.mu.Unlock()
	for _, ev := range log.events {
		if ev.Timestamp() == 0 {
			t.Errorf("%s has no timestamp", ev.Type())
		}
		if done, ok := ev.(RunCompleteEvent); ok {
			if done.RunID != result.RunID || done.ThumbnailPath != result.Thumbnail.Path {
				t.Errorf("run_complete = %+v", done)
			}
		}
	}
}

func TestProcessFailureEvent(t *testing.T) {
	fake := testsupport.DefaultFakeOptions()
	fake.FailStage = testsupport.StagePreview
	pipe := newTestPipeline(t, fake)
	input := filepath.Join(t.TempDir(), "clip.mov")
	testsupport.WriteFile(t, input, 4096)

	var log eventLog
	_, err := pipe.Process(context.Background(), input, "", log.handle)
	if !IsKind(err, KindEncodingFailure) {
		t.Fatalf("Process() error = %v, want EncodingFailure", err)
	}
	var runErr *RunError
	if !errors.As(err, &runErr) || runErr.State.String() != "ExtractingPreview" {
		t.Errorf("error = %v, want failure in ExtractingPreview", err)
	}

	log.mu.Lock()
	defer log.mu.Unlock()
	last, ok := log.events[len(log.events)-1].(RunFailedEvent)
	if !ok {
		t.Fatalf("last event = %T, want RunFailedEvent", log.events[len(log.events)-1])
	}
	if last.Kind != KindEncodingFailure.String() || last.DiagnosticTail == "" {
		t.Errorf("run_failed = %+v", last)
	}
}

func TestProcessBatch(t *testing.T) {
	fake := testsupport.DefaultFakeOptions()
	fake.ProbeFailPattern = "*broken*"
	pipe := newTestPipeline(t, fake, WithConcurrency(2), WithValidation(false))

	dir := t.TempDir()
	var inputs []Input
	for _, name := range []string{"one.mov", "broken.mov", "two.mov"} {
		path := filepath.Join(dir, name)
		testsupport.WriteFile(t, path, 4096)
		inputs = append(inputs, Input{Path: path})
	}

	var log eventLog
	summary := pipe.ProcessBatch(context.Background(), inputs, log.handle)
	if summary.Succeeded != 2 || summary.Failed != 1 {
		t.Fatalf("summary = %d ok, %d failed", summary.Succeeded, summary.Failed)
	}
	if summary.Errors[0].Index != 1 || !IsKind(summary.Errors[0].Err, KindProbeFailure) {
		t.Errorf("errors = %+v", summary.Errors)
	}

	if log.count(EventTypeBatchStarted) != 1 || log.count(EventTypeBatchComplete) != 1 {
		t.Errorf("batch events = %v", log.types())
	}
	if got := log.count(EventTypeBatchProgress); got != 3 {
		t.Errorf("batch_progress events = %d, want 3", got)
	}
	if log.count(EventTypeValidationComplete) != 0 {
		t.Error("validation was disabled")
	}
}

func TestProcessBatchWithOptions(t *testing.T) {
	pipe := newTestPipeline(t, testsupport.DefaultFakeOptions(), WithValidation(false))

	dir := t.TempDir()
	var inputs []Input
	for _, name := range []string{"one.mov", "two.mov"} {
		path := filepath.Join(dir, name)
		testsupport.WriteFile(t, path, 4096)
		inputs = append(inputs, Input{Path: path})
	}

	opts := pipe.Options()
	opts.MaxWidth, opts.MaxHeight = 640, 360
	summary := pipe.ProcessBatchWithOptions(context.Background(), inputs, opts, nil)
	if summary.Succeeded != 2 {
		t.Fatalf("summary = %d ok, %d failed: %+v", summary.Succeeded, summary.Failed, summary.Errors)
	}
	for i, result := range summary.Results {
		if result.Compressed.Width != 640 || result.Compressed.Height != 360 {
			t.Errorf("result %d compressed to %dx%d, want 640x360", i, result.Compressed.Width, result.Compressed.Height)
		}
	}

	bad := pipe.Options()
	bad.FrameRate = 0
	summary = pipe.ProcessBatchWithOptions(context.Background(), inputs, bad, nil)
	if summary.Failed != 2 {
		t.Fatalf("invalid options: %d failed, want 2", summary.Failed)
	}
	if !IsKind(summary.Errors[0].Err, KindConfig) {
		t.Errorf("error = %v, want a config error", summary.Errors[0].Err)
	}
}

func TestWithLoggerAcceptsSlog(t *testing.T) {
	var buf syncBuffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	pipe := newTestPipeline(t, testsupport.DefaultFakeOptions(), WithLogger(logger), WithValidation(false))

	input := filepath.Join(t.TempDir(), "clip.mov")
	testsupport.WriteFile(t, input, 4096)
	if _, err := pipe.Process(context.Background(), input, "", nil); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "run completed") || !strings.Contains(out, "run_id=") {
		t.Errorf("run should log through the supplied logger:\n%s", out)
	}
}

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestToolsAvailable(t *testing.T) {
	pipe := newTestPipeline(t, testsupport.DefaultFakeOptions())
	ctx := context.Background()
	if !pipe.ToolsAvailable(ctx) {
		t.Error("fake tools should be available")
	}

	statuses := pipe.CheckTools(ctx)
	if len(statuses) != 2 {
		t.Fatalf("statuses = %+v", statuses)
	}
	for _, st := range statuses {
		if !st.Available || st.Version == "" {
			t.Errorf("%s status = %+v", st.Name, st)
		}
	}

	missing, err := New(
		WithToolPaths(filepath.Join(t.TempDir(), "no-ffmpeg"), "ffprobe"),
		WithTimeouts(Timeouts{
			ToolCheck: time.Second,
			Probe:     time.Second,
			Encode:    time.Second,
			Thumbnail: time.Second,
			Preview:   time.Second,
		}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if missing.ToolsAvailable(ctx) {
		t.Error("a missing ffmpeg should make tools unavailable")
	}
}
