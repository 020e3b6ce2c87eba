// Package thumbnail extracts a single still frame from a video and saves it
// as a bounded JPEG.
package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"image"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"

	"github.com/five82/gallerypipe/internal/config"
	coreerrors "github.com/five82/gallerypipe/internal/errors"
	"github.com/five82/gallerypipe/internal/ffmpeg"
	"github.com/five82/gallerypipe/internal/logging"
	"github.com/five82/gallerypipe/internal/media"
	"github.com/five82/gallerypipe/internal/util"
)

// Extractor pulls frames with ffmpeg and scales them with imaging.
type Extractor struct {
	FFmpegPath string
	Timeout    time.Duration
	MaxWidth   int
	MaxHeight  int
}

// New returns an Extractor bounded to maxWidth x maxHeight.
func New(ffmpegPath string, timeout time.Duration, maxWidth, maxHeight int) *Extractor {
	return &Extractor{FFmpegPath: ffmpegPath, Timeout: timeout, MaxWidth: maxWidth, MaxHeight: maxHeight}
}

// Request describes one frame extraction.
type Request struct {
	Input      string
	Output     string
	OffsetSecs float64
	Source     media.MediaMetadata
}

// ClampOffset keeps offset inside [0, durationSecs). Offsets at or past the
// end of the input fall back to 0. An unknown duration (0) leaves a
// non-negative offset unchanged.
func ClampOffset(offset, durationSecs float64) float64 {
	if offset < 0 {
		return 0
	}
	if durationSecs > 0 && offset >= durationSecs {
		return 0
	}
	return offset
}

// ExtractFrame writes one frame of req.Input, scaled to fit the extractor's
// bound without upscaling, as a JPEG at req.Output.
//
// When ffmpeg exits cleanly but delivers no frame at a non-zero offset, the
// extraction is retried once from the start of the input. Both attempts
// share the extractor's timeout.
func (x *Extractor) ExtractFrame(ctx context.Context, req Request, onProgress media.ProgressFunc) (media.Artifact, error) {
	offset := ClampOffset(req.OffsetSecs, req.Source.DurationSecs)

	var deadline time.Time
	if x.Timeout > 0 {
		deadline = time.Now().Add(x.Timeout)
	}

	frame, err := x.grab(ctx, req.Input, offset, deadline)
	if err != nil {
		return media.Artifact{}, err
	}
	if len(frame) == 0 && offset > 0 {
		logging.Debug("no frame at offset, retrying from start", "input", req.Input, "offset", util.FormatSeconds(offset))
		if frame, err = x.grab(ctx, req.Input, 0, deadline); err != nil {
			return media.Artifact{}, err
		}
	}
	if len(frame) == 0 {
		return media.Artifact{}, coreerrors.NewEmptyOutputError(media.StageThumbnail.String(), req.Output)
	}

	img, err := bmp.Decode(bytes.NewReader(frame))
	if err != nil {
		return media.Artifact{}, coreerrors.NewInvalidOutputError(media.StageThumbnail.String(), req.Output, err)
	}

	thumb := fit(img, x.MaxWidth, x.MaxHeight)
	bounds := img.Bounds()
	quality := config.ThumbnailQualityForPixels(bounds.Dx() * bounds.Dy())
	if err := imaging.Save(thumb, req.Output, imaging.JPEGQuality(quality)); err != nil {
		return media.Artifact{}, coreerrors.NewFileSystemError("write thumbnail", req.Output, err)
	}

	size, err := util.GetFileSize(req.Output)
	if err != nil {
		return media.Artifact{}, coreerrors.NewFileSystemError("stat thumbnail", req.Output, err)
	}

	onProgress.Emit(media.StageThumbnail, 100)
	tb := thumb.Bounds()
	return media.Artifact{
		Path:      req.Output,
		Width:     tb.Dx(),
		Height:    tb.Dy(),
		SizeBytes: size,
	}, nil
}

// grab returns the BMP bytes ffmpeg writes for the frame at offset. A zero
// deadline means no time limit.
func (x *Extractor) grab(ctx context.Context, input string, offset float64, deadline time.Time) ([]byte, error) {
	stage := media.StageThumbnail.String()
	var timeout time.Duration
	if !deadline.IsZero() {
		if timeout = time.Until(deadline); timeout <= 0 {
			return nil, coreerrors.NewTimeoutError(stage, x.Timeout)
		}
	}

	var stdout bytes.Buffer
	_, err := ffmpeg.Run(ctx, ffmpeg.Command{
		Tool:    x.FFmpegPath,
		Args:    ffmpeg.BuildFrameArgs(input, offset),
		Stage:   stage,
		Timeout: timeout,
		Stdout:  &stdout,
	})
	if err != nil {
		var cmdErr *coreerrors.CommandError
		if errors.As(err, &cmdErr) {
			return nil, coreerrors.NewEncodingFailureError(stage, cmdErr)
		}
		if coreerrors.IsTimeout(err) {
			return nil, coreerrors.NewTimeoutError(stage, x.Timeout)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// fit scales img down to the bound, leaving smaller frames untouched.
func fit(img image.Image, maxWidth, maxHeight int) image.Image {
	b := img.Bounds()
	w, h := ffmpeg.FitWithin(b.Dx(), b.Dy(), maxWidth, maxHeight, false)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}
