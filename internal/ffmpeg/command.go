package ffmpeg

import (
	"fmt"

	"github.com/five82/gallerypipe/internal/util"
)

// AudioBitrate is the AAC bitrate for the compressed copy.
const AudioBitrate = "128k"

// EncodeArgs describes a scaled re-encode of the first video stream.
type EncodeArgs struct {
	Input  string
	Output string

	// StartSecs seeks before decoding when positive.
	StartSecs float64
	// DurationSecs limits the output length when positive.
	DurationSecs float64

	Width  int
	Height int

	Encoder     string
	CRF         int
	Preset      string
	CodecParams string
	// Tag overrides the stream tag, e.g. hvc1 so Apple players accept HEVC.
	Tag string

	// MaxRateBps caps the video bitrate when positive.
	MaxRateBps int64
	// FrameRate forces the output rate when positive.
	FrameRate int

	// Audio keeps the first audio stream (if any) as AAC.
	Audio bool
}

// BuildEncodeArgs returns the ffmpeg arguments for a.
func BuildEncodeArgs(a EncodeArgs) []string {
	args := []string{"-hide_banner", "-nostdin", "-y"}

	if a.StartSecs > 0 {
		args = append(args, "-ss", util.FormatSeconds(a.StartSecs))
	}
	args = append(args, "-i", a.Input)
	if a.DurationSecs > 0 {
		args = append(args, "-t", util.FormatSeconds(a.DurationSecs))
	}

	args = append(args, "-map", "0:v:0")
	if a.Audio {
		args = append(args, "-map", "0:a:0?")
	}

	if vf := NewVideoFilterChain().AddScale(a.Width, a.Height).Build(); vf != "" {
		args = append(args, "-vf", vf)
	}

	args = append(args,
		"-c:v", a.Encoder,
		"-preset", a.Preset,
		"-crf", fmt.Sprintf("%d", a.CRF),
		"-pix_fmt", "yuv420p",
	)
	if a.MaxRateBps > 0 {
		args = append(args,
			"-maxrate", fmt.Sprintf("%d", a.MaxRateBps),
			"-bufsize", fmt.Sprintf("%d", a.MaxRateBps*2),
		)
	}
	if a.FrameRate > 0 {
		args = append(args, "-r", fmt.Sprintf("%d", a.FrameRate))
	}
	if flag := ParamsFlag(a.Encoder); flag != "" && a.CodecParams != "" {
		args = append(args, flag, a.CodecParams)
	}
	if a.Tag != "" {
		args = append(args, "-tag:v", a.Tag)
	}

	if a.Audio {
		args = append(args, "-c:a", "aac", "-b:a", AudioBitrate)
	} else {
		args = append(args, "-an")
	}

	return append(args, "-movflags", "+faststart", a.Output)
}

// BuildFrameArgs returns ffmpeg arguments that write one BMP frame taken at
// offsetSecs to stdout.
func BuildFrameArgs(input string, offsetSecs float64) []string {
	args := []string{"-hide_banner", "-nostdin"}
	if offsetSecs > 0 {
		args = append(args, "-ss", util.FormatSeconds(offsetSecs))
	}
	return append(args,
		"-i", input,
		"-frames:v", "1",
		"-an",
		"-f", "image2pipe",
		"-vcodec", "bmp",
		"-",
	)
}

// VersionArgs asks a tool to print its version and exit.
func VersionArgs() []string {
	return []string{"-version"}
}
