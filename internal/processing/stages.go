package processing

import (
	"context"

	"github.com/five82/gallerypipe/internal/config"
	"github.com/five82/gallerypipe/internal/deps"
	"github.com/five82/gallerypipe/internal/encode"
	"github.com/five82/gallerypipe/internal/ffprobe"
	"github.com/five82/gallerypipe/internal/media"
	"github.com/five82/gallerypipe/internal/thumbnail"
	"github.com/five82/gallerypipe/internal/validation"
)

// ToolChecker reports whether an external tool can be invoked.
type ToolChecker interface {
	IsAvailable(ctx context.Context) bool
}

// Tool is a named pre-flight check.
type Tool struct {
	Name    string
	Checker ToolChecker
}

// MetadataProber reads MediaMetadata from an input.
type MetadataProber interface {
	Probe(ctx context.Context, path string) (media.MediaMetadata, error)
}

// VideoEncoder produces the compressed copy and the preview clip.
type VideoEncoder interface {
	Encode(ctx context.Context, req encode.Request, onProgress media.ProgressFunc) (media.Artifact, error)
	ExtractClip(ctx context.Context, req encode.ClipRequest, onProgress media.ProgressFunc) (media.Artifact, error)
}

// FrameExtractor produces the thumbnail.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, req thumbnail.Request, onProgress media.ProgressFunc) (media.Artifact, error)
}

// Stages bundles the implementations a Runner drives. A nil Analyzer
// disables output validation.
type Stages struct {
	Tools    []Tool
	Prober   MetadataProber
	Encoder  VideoEncoder
	Frames   FrameExtractor
	Analyzer validation.MediaAnalyzer
}

// NewStages builds the ffmpeg/ffprobe-backed stages described by cfg.
func NewStages(cfg *config.Config) Stages {
	prober := ffprobe.New(cfg.FFprobePath, cfg.Timeouts.Probe)

	stages := Stages{
		Tools: []Tool{
			{Name: "ffmpeg", Checker: deps.NewToolProbe(cfg.FFmpegPath, cfg.Timeouts.ToolCheck)},
			{Name: "ffprobe", Checker: deps.NewToolProbe(cfg.FFprobePath, cfg.Timeouts.ToolCheck)},
		},
		Prober:  prober,
		Encoder: &encode.Encoder{
			FFmpegPath:     cfg.FFmpegPath,
			Timeout:        cfg.Timeouts.Encode,
			PreviewTimeout: cfg.Timeouts.Preview,
		},
		Frames:  thumbnail.New(cfg.FFmpegPath, cfg.Timeouts.Thumbnail, cfg.ThumbnailMaxWidth, cfg.ThumbnailMaxHeight),
	}
	if cfg.ValidateOutputs {
		stages.Analyzer = validation.NewDefaultAnalyzer(prober)
	}
	return stages
}
