// Package encode runs the ffmpeg re-encodes of the pipeline: the
// size-normalized compressed copy and the short preview clip.
package encode

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/five82/gallerypipe/internal/config"
	coreerrors "github.com/five82/gallerypipe/internal/errors"
	"github.com/five82/gallerypipe/internal/ffmpeg"
	"github.com/five82/gallerypipe/internal/media"
	"github.com/five82/gallerypipe/internal/util"
)

// Encoder invokes ffmpeg for re-encoding stages.
type Encoder struct {
	FFmpegPath string
	// Timeout bounds the compressed encode.
	Timeout time.Duration
	// PreviewTimeout bounds the preview clip. Zero falls back to Timeout.
	PreviewTimeout time.Duration
}

// New returns an Encoder whose invocations are killed after timeout.
func New(ffmpegPath string, timeout time.Duration) *Encoder {
	return &Encoder{FFmpegPath: ffmpegPath, Timeout: timeout, PreviewTimeout: timeout}
}

// Request describes one compressed-copy encode.
type Request struct {
	Input   string
	Output  string
	Source  media.MediaMetadata
	Options config.Options
}

// PlanEncode returns the ffmpeg arguments for req: fit within the maximum
// dimensions without upscaling, quality preset CRF (raised for 4K sources),
// bitrate cap, and a frame-rate cap applied only when the source is faster.
func PlanEncode(req Request) (ffmpeg.EncodeArgs, error) {
	opts := req.Options
	maxRate, err := util.ParseBitrate(opts.TargetBitrate)
	if err != nil {
		return ffmpeg.EncodeArgs{}, coreerrors.NewConfigError("invalid target bitrate", err)
	}

	width, height := ffmpeg.FitWithin(req.Source.Width, req.Source.Height, opts.MaxWidth, opts.MaxHeight, true)
	quality := config.GetQualityValues(opts.Codec, opts.Quality)
	encoder := opts.Codec.Encoder()

	args := ffmpeg.EncodeArgs{
		Input:       req.Input,
		Output:      req.Output,
		Width:       width,
		Height:      height,
		Encoder:     encoder,
		CRF:         quality.CRFForPixels(req.Source.Pixels()),
		Preset:      quality.Preset,
		CodecParams: ffmpeg.GOPParams(encoder, min(req.Source.FrameRate, float64(opts.FrameRate))),
		MaxRateBps:  maxRate,
		Audio:       true,
	}
	if opts.FrameRate > 0 && req.Source.FrameRate > float64(opts.FrameRate) {
		args.FrameRate = opts.FrameRate
	}
	if opts.Codec == config.CodecH265 {
		args.Tag = "hvc1"
	}
	return args, nil
}

// Encode produces the compressed copy. Progress for media.StageEncode is
// delivered through onProgress as the encode advances, ending at 100.
//
// A non-zero ffmpeg exit, or a clean exit that leaves no output, is an
// EncodingFailure. The output path may hold a partial file on failure; the
// caller owns its removal.
func (e *Encoder) Encode(ctx context.Context, req Request, onProgress media.ProgressFunc) (media.Artifact, error) {
	args, err := PlanEncode(req)
	if err != nil {
		return media.Artifact{}, err
	}

	size, err := e.run(ctx, media.StageEncode, e.Timeout, ffmpeg.BuildEncodeArgs(args), req.Output, 0, onProgress)
	if err != nil {
		return media.Artifact{}, err
	}

	return media.Artifact{
		Path:         req.Output,
		Width:        args.Width,
		Height:       args.Height,
		SizeBytes:    size,
		DurationSecs: media.Seconds(req.Source.DurationSecs),
	}, nil
}

// run executes one ffmpeg re-encode and returns the size of the output.
// A positive knownTotal replaces the input duration for progress.
func (e *Encoder) run(ctx context.Context, stage media.Stage, timeout time.Duration, args []string, output string, knownTotal float64, onProgress media.ProgressFunc) (int64, error) {
	parser := ffmpeg.NewProgressParser(knownTotal)
	_, err := ffmpeg.Run(ctx, ffmpeg.Command{
		Tool:    e.FFmpegPath,
		Args:    args,
		Stage:   stage.String(),
		Timeout: timeout,
		OnLine:  parser.Lines(stage, onProgress),
	})
	if err != nil {
		var cmdErr *coreerrors.CommandError
		if errors.As(err, &cmdErr) {
			return 0, coreerrors.NewEncodingFailureError(stage.String(), cmdErr)
		}
		return 0, err
	}

	info, err := os.Stat(output)
	if err != nil || info.Size() == 0 {
		return 0, coreerrors.NewEmptyOutputError(stage.String(), output)
	}

	onProgress.Emit(stage, 100)
	return info.Size(), nil
}
