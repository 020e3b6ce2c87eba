// Package gallerypipe turns an uploaded video into the three artifacts a
// media gallery serves: a size-normalized compressed copy, a still
// thumbnail and a short preview clip.
//
// Each input runs through a sequential pipeline of ffprobe and ffmpeg
// invocations with per-stage timeouts. A failed run removes every file it
// produced before returning. Batches run on a bounded worker pool and a
// failing input never stops the others.
//
// Basic usage:
//
//	pipe, err := gallerypipe.New(
//	    gallerypipe.WithQuality(gallerypipe.QualityHigh),
//	    gallerypipe.WithWorkRoot("/var/lib/gallery/work"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := pipe.Process(ctx, "/tmp/upload-1234", "holiday.mov", nil)
//	if err != nil {
//	    // fall back to storing the original
//	}
//	fmt.Println(result.Compressed.Path, result.Thumbnail.Path, result.Preview.Path)
package gallerypipe

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/gallerypipe/internal/config"
	"github.com/five82/gallerypipe/internal/deps"
	"github.com/five82/gallerypipe/internal/discovery"
	coreerrors "github.com/five82/gallerypipe/internal/errors"
	"github.com/five82/gallerypipe/internal/logging"
	"github.com/five82/gallerypipe/internal/media"
	"github.com/five82/gallerypipe/internal/processing"
	"github.com/five82/gallerypipe/internal/reporter"
)

// Re-export configuration types
type (
	Codec             = config.Codec
	Quality           = config.Quality
	ProcessingOptions = config.Options
	Timeouts          = config.Timeouts
	Config            = config.Config
)

const (
	CodecH264 = config.CodecH264
	CodecH265 = config.CodecH265

	QualityHigh   = config.QualityHigh
	QualityMedium = config.QualityMedium
	QualityLow    = config.QualityLow
)

// ParseCodec converts "h264" or "h265" (and common aliases) to a Codec.
func ParseCodec(s string) (Codec, error) {
	return config.ParseCodec(s)
}

// ParseQuality converts "high", "medium" or "low" to a Quality.
func ParseQuality(s string) (Quality, error) {
	return config.ParseQuality(s)
}

// Re-export result types
type (
	Input           = processing.Input
	ProcessedResult = processing.ProcessedResult
	BatchSummary    = processing.BatchSummary
	ItemError       = processing.ItemError
	RunError        = processing.RunError
	State           = processing.State
	Artifact        = media.Artifact
	MediaMetadata   = media.MediaMetadata
	Stage           = media.Stage
	ProgressEvent   = media.ProgressEvent
	ToolStatus      = deps.Status
)

// Reporter receives every pipeline event. See NewEventReporter for the
// EventHandler based alternative.
type Reporter = reporter.Reporter

// Observer receives run and stage outcomes, e.g. for metrics.
type Observer = processing.Observer

// ItemProgressFunc receives per-input progress during a batch.
type ItemProgressFunc = processing.ItemProgressFunc

// Error taxonomy
type (
	ErrorKind = coreerrors.ErrorKind
	CoreError = coreerrors.CoreError
)

const (
	KindToolUnavailable = coreerrors.KindToolUnavailable
	KindInputTooLarge   = coreerrors.KindInputTooLarge
	KindProbeFailure    = coreerrors.KindProbeFailure
	KindParseFailure    = coreerrors.KindParseFailure
	KindEncodingFailure = coreerrors.KindEncodingFailure
	KindTimeout         = coreerrors.KindTimeout
	KindCancelled       = coreerrors.KindCancelled
	KindFileSystem      = coreerrors.KindFileSystem
	KindConfig          = coreerrors.KindConfig
	KindNoFilesFound    = coreerrors.KindNoFilesFound
)

// IsKind reports whether err carries the given error kind.
func IsKind(err error, kind ErrorKind) bool {
	return coreerrors.IsKind(err, kind)
}

// Pipeline is the main entry point. It is safe for concurrent use; every
// call gets its own run namespace.
type Pipeline struct {
	config   *config.Config
	logger   *logging.Logger
	observer Observer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// New creates a Pipeline with the given options applied over the defaults.
func New(opts ...Option) (*Pipeline, error) {
	p := &Pipeline{config: config.NewConfig()}

	for _, opt := range opts {
		opt(p)
	}

	if err := p.config.Validate(); err != nil {
		return nil, coreerrors.NewConfigError("invalid configuration", err)
	}
	if p.logger == nil {
		p.logger = logging.Global()
	}
	return p, nil
}

// WithConfig replaces the whole configuration, e.g. one loaded from a
// TOML file. Options applied after it still take effect.
func WithConfig(cfg *Config) Option {
	return func(p *Pipeline) {
		copied := *cfg
		p.config = &copied
	}
}

// WithMaxDimensions bounds the compressed copy.
func WithMaxDimensions(width, height int) Option {
	return func(p *Pipeline) {
		p.config.Options.MaxWidth = width
		p.config.Options.MaxHeight = height
	}
}

// WithTargetBitrate caps the compressed copy's bitrate, e.g. "2M" or "800k".
func WithTargetBitrate(bitrate string) Option {
	return func(p *Pipeline) {
		p.config.Options.TargetBitrate = bitrate
	}
}

// WithFrameRate caps the compressed copy's frame rate.
func WithFrameRate(fps int) Option {
	return func(p *Pipeline) {
		p.config.Options.FrameRate = fps
	}
}

// WithCodec selects the compressed copy's codec.
func WithCodec(codec Codec) Option {
	return func(p *Pipeline) {
		p.config.Options.Codec = codec
	}
}

// WithQuality selects the compressed copy's quality preset.
func WithQuality(quality Quality) Option {
	return func(p *Pipeline) {
		p.config.Options.Quality = quality
	}
}

// WithThumbnailOffset sets where the thumbnail frame is taken from.
// Offsets past the end of the input fall back to the first frame.
func WithThumbnailOffset(seconds float64) Option {
	return func(p *Pipeline) {
		p.config.Options.ThumbnailOffsetSecs = seconds
	}
}

// WithPreview sets the preview clip window.
func WithPreview(startSeconds, durationSeconds float64) Option {
	return func(p *Pipeline) {
		p.config.Options.PreviewStartSecs = startSeconds
		p.config.Options.PreviewDurationSecs = durationSeconds
	}
}

// WithConcurrency sets how many inputs a batch processes at once.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		p.config.Concurrency = n
	}
}

// WithMaxInputBytes rejects inputs above the given size.
func WithMaxInputBytes(n int64) Option {
	return func(p *Pipeline) {
		p.config.MaxInputBytes = n
	}
}

// WithTimeouts sets the per-stage timeouts.
func WithTimeouts(t Timeouts) Option {
	return func(p *Pipeline) {
		p.config.Timeouts = t
	}
}

// WithToolPaths sets the ffmpeg and ffprobe executables.
func WithToolPaths(ffmpeg, ffprobe string) Option {
	return func(p *Pipeline) {
		p.config.FFmpegPath = ffmpeg
		p.config.FFprobePath = ffprobe
	}
}

// WithWorkRoot sets the directory under which each run gets its own
// <run id> directory.
func WithWorkRoot(dir string) Option {
	return func(p *Pipeline) {
		p.config.WorkRoot = dir
	}
}

// WithStageOriginal copies each input into its run directory before
// processing.
func WithStageOriginal(enable bool) Option {
	return func(p *Pipeline) {
		p.config.StageOriginal = enable
	}
}

// WithValidation enables or disables post-run artifact checks.
func WithValidation(enable bool) Option {
	return func(p *Pipeline) {
		p.config.ValidateOutputs = enable
	}
}

// WithLogger sets the structured logger. The global logger is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logging.Wrap(logger)
	}
}

// WithMetrics routes run and stage outcomes to obs.
func WithMetrics(obs Observer) Option {
	return func(p *Pipeline) {
		p.observer = obs
	}
}

// Options returns the default per-run processing options.
func (p *Pipeline) Options() ProcessingOptions {
	return p.config.Options
}

func (p *Pipeline) env(rep Reporter) processing.Env {
	return processing.Env{
		Config:   p.config,
		Stages:   processing.NewStages(p.config),
		Reporter: rep,
		Observer: p.observer,
		Logger:   p.logger,
	}
}

// Process runs one input through the pipeline with the default options.
// name is the original filename; an empty name uses the base of path.
func (p *Pipeline) Process(ctx context.Context, path, name string, handler EventHandler) (*ProcessedResult, error) {
	return p.ProcessWithOptions(ctx, path, name, p.config.Options, handler)
}

// ProcessWithOptions runs one input with per-run options.
func (p *Pipeline) ProcessWithOptions(ctx context.Context, path, name string, opts ProcessingOptions, handler EventHandler) (*ProcessedResult, error) {
	var rep Reporter
	if handler != nil {
		rep = NewEventReporter(handler)
	}
	return p.ProcessWithReporter(ctx, path, name, opts, rep)
}

// ProcessWithReporter runs one input using a custom Reporter. This
// provides direct access to all pipeline events, unlike Process which
// uses the EventHandler abstraction.
func (p *Pipeline) ProcessWithReporter(ctx context.Context, path, name string, opts ProcessingOptions, rep Reporter) (*ProcessedResult, error) {
	runner := processing.NewRunner(p.env(rep))
	return runner.Run(ctx, Input{Path: path, Name: name}, opts, nil)
}

// ProcessBatch runs every input with the default options. Failures are
// collected in the summary, never returned.
func (p *Pipeline) ProcessBatch(ctx context.Context, inputs []Input, handler EventHandler) BatchSummary {
	return p.ProcessBatchWithOptions(ctx, inputs, p.config.Options, handler)
}

// ProcessBatchWithOptions runs every input with opts.
func (p *Pipeline) ProcessBatchWithOptions(ctx context.Context, inputs []Input, opts ProcessingOptions, handler EventHandler) BatchSummary {
	var rep Reporter
	if handler != nil {
		rep = NewEventReporter(handler)
	}
	return p.ProcessBatchWithReporter(ctx, inputs, opts, rep, nil)
}

// ProcessBatchWithReporter runs every input with opts using a custom
// Reporter. onItemProgress, when set, receives each item's progress as it
// happens.
func (p *Pipeline) ProcessBatchWithReporter(ctx context.Context, inputs []Input, opts ProcessingOptions, rep Reporter, onItemProgress ItemProgressFunc) BatchSummary {
	return processing.RunBatch(ctx, p.env(rep), inputs, opts, onItemProgress)
}

// ToolsAvailable reports whether ffmpeg and ffprobe can both be invoked.
// Callers typically store the original unmodified when it is false.
func (p *Pipeline) ToolsAvailable(ctx context.Context) bool {
	for _, path := range []string{p.config.FFmpegPath, p.config.FFprobePath} {
		if !deps.NewToolProbe(path, p.config.Timeouts.ToolCheck).IsAvailable(ctx) {
			return false
		}
	}
	return true
}

// CheckTools resolves ffmpeg and ffprobe and reports their versions.
func (p *Pipeline) CheckTools(ctx context.Context) []ToolStatus {
	return deps.CheckTools(ctx, []deps.Requirement{
		{Name: "FFmpeg", Command: p.config.FFmpegPath, Description: "Encodes the compressed copy, thumbnail and preview"},
		{Name: "FFprobe", Command: p.config.FFprobePath, Description: "Reads input and artifact metadata"},
	}, p.config.Timeouts.ToolCheck)
}

// FindVideos expands files and directories into a list of inputs.
// Directories contribute the video files they contain.
func FindVideos(args []string) ([]string, error) {
	return discovery.Expand(args, logging.Global())
}

// NewTimestamp returns the current Unix time for event timestamps.
func NewTimestamp() int64 {
	return time.Now().Unix()
}
