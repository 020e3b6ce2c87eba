package encode

import (
	"context"

	"github.com/five82/gallerypipe/internal/config"
	"github.com/five82/gallerypipe/internal/ffmpeg"
	"github.com/five82/gallerypipe/internal/media"
)

// previewEncoder is fixed so previews play everywhere, whatever codec the
// compressed copy uses.
const previewEncoder = "libx264"

// ClipRequest describes one preview clip extraction.
type ClipRequest struct {
	Input        string
	Output       string
	StartSecs    float64
	DurationSecs float64
	Source       media.MediaMetadata
	MaxWidth     int
	MaxHeight    int
}

// ClipWindow clips a requested [start, start+duration) window to a source
// of sourceSecs. A start at or past the end of the source restarts at 0.
// An unknown source duration (0) leaves the request unchanged.
func ClipWindow(start, duration, sourceSecs float64) (float64, float64) {
	start = max(start, 0)
	if sourceSecs <= 0 {
		return start, duration
	}
	if start >= sourceSecs {
		start = 0
	}
	return start, min(duration, sourceSecs-start)
}

// PlanClip returns the ffmpeg arguments for req.
func PlanClip(req ClipRequest) ffmpeg.EncodeArgs {
	start, length := ClipWindow(req.StartSecs, req.DurationSecs, req.Source.DurationSecs)
	width, height := ffmpeg.FitWithin(req.Source.Width, req.Source.Height, req.MaxWidth, req.MaxHeight, true)

	return ffmpeg.EncodeArgs{
		Input:        req.Input,
		Output:       req.Output,
		StartSecs:    start,
		DurationSecs: length,
		Width:        width,
		Height:       height,
		Encoder:      previewEncoder,
		CRF:          config.PreviewCRF,
		Preset:       config.PreviewPreset,
		CodecParams:  ffmpeg.GOPParams(previewEncoder, req.Source.FrameRate),
	}
}

// ExtractClip produces the silent preview clip. Progress for
// media.StagePreview is measured against the clip length, not the input.
func (e *Encoder) ExtractClip(ctx context.Context, req ClipRequest, onProgress media.ProgressFunc) (media.Artifact, error) {
	args := PlanClip(req)

	timeout := e.PreviewTimeout
	if timeout <= 0 {
		timeout = e.Timeout
	}

	size, err := e.run(ctx, media.StagePreview, timeout, ffmpeg.BuildEncodeArgs(args), req.Output, args.DurationSecs, onProgress)
	if err != nil {
		return media.Artifact{}, err
	}

	return media.Artifact{
		Path:         req.Output,
		Width:        args.Width,
		Height:       args.Height,
		SizeBytes:    size,
		DurationSecs: media.Seconds(args.DurationSecs),
	}, nil
}
