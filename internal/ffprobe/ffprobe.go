// Package ffprobe extracts media metadata using ffprobe.
package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	coreerrors "github.com/five82/gallerypipe/internal/errors"
	"github.com/five82/gallerypipe/internal/ffmpeg"
	"github.com/five82/gallerypipe/internal/media"
)

// DefaultFrameRate is used when a stream has no usable frame-rate field.
const DefaultFrameRate = 30.0

// stageName labels probe timeouts and cancellations.
const stageName = "probe"

// ffprobeOutput represents the JSON output from ffprobe.
type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
	Size     string `json:"size"`
	BitRate  string `json:"bit_rate"`
}

type ffprobeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	BitRate      string `json:"bit_rate"`
}

// Prober runs ffprobe against media files.
type Prober struct {
	Path    string
	Timeout time.Duration
}

// New returns a Prober for the ffprobe binary at path.
func New(path string, timeout time.Duration) *Prober {
	return &Prober{Path: path, Timeout: timeout}
}

// Probe returns the metadata of the first video stream in inputPath.
//
// A non-zero exit is a ProbeFailure; undecodable output, a missing video
// stream or missing dimensions are a ParseFailure. Timeouts and
// cancellation kill ffprobe and return the matching error kind.
func (p *Prober) Probe(ctx context.Context, inputPath string) (media.MediaMetadata, error) {
	var stdout bytes.Buffer
	_, err := ffmpeg.Run(ctx, ffmpeg.Command{
		Tool: p.Path,
		Args: []string{
			"-v", "error",
			"-print_format", "json",
			"-show_format",
			"-show_streams",
			inputPath,
		},
		Stage:   stageName,
		Timeout: p.Timeout,
		Stdout:  &stdout,
	})
	if err != nil {
		var cmdErr *coreerrors.CommandError
		if errors.As(err, &cmdErr) {
			return media.MediaMetadata{}, coreerrors.NewProbeFailureError(inputPath, cmdErr)
		}
		return media.MediaMetadata{}, err
	}

	probe, err := parseFFprobeOutput(stdout.Bytes())
	if err != nil {
		return media.MediaMetadata{}, err
	}
	return extractMetadata(probe, inputPath)
}

// parseFFprobeOutput decodes ffprobe's JSON document.
func parseFFprobeOutput(data []byte) (*ffprobeOutput, error) {
	var result ffprobeOutput
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, coreerrors.NewParseFailureError("failed to decode ffprobe output", err)
	}
	return &result, nil
}

// extractMetadata builds MediaMetadata from the first video stream.
// Missing numeric fields become 0, except width and height.
func extractMetadata(probe *ffprobeOutput, path string) (media.MediaMetadata, error) {
	var video *ffprobeStream
	for i := range probe.Streams {
		if probe.Streams[i].CodecType == "video" {
			video = &probe.Streams[i]
			break
		}
	}
	if video == nil {
		return media.MediaMetadata{}, coreerrors.NewParseFailureError(fmt.Sprintf("no video stream found in %s", path), nil)
	}
	if video.Width <= 0 || video.Height <= 0 {
		return media.MediaMetadata{}, coreerrors.NewParseFailureError(
			fmt.Sprintf("video stream in %s has no dimensions (%dx%d)", path, video.Width, video.Height), nil)
	}

	meta := media.MediaMetadata{
		DurationSecs: parseFloat(probe.Format.Duration),
		Width:        video.Width,
		Height:       video.Height,
		FrameRate:    DefaultFrameRate,
		BitrateBps:   parseInt(probe.Format.BitRate),
		CodecName:    video.CodecName,
		SizeBytes:    parseInt(probe.Format.Size),
	}
	if meta.BitrateBps == 0 {
		meta.BitrateBps = parseInt(video.BitRate)
	}
	for _, field := range []string{video.RFrameRate, video.AvgFrameRate} {
		if fps, ok := parseFrameRate(field); ok {
			meta.FrameRate = fps
			break
		}
	}

	return meta, nil
}

// parseFrameRate parses a "num/den" rational (or a plain number).
func parseFrameRate(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	d := 1.0
	if found {
		d, err = strconv.ParseFloat(den, 64)
		if err != nil {
			return 0, false
		}
	}
	if n <= 0 || d <= 0 {
		return 0, false
	}
	return n / d, true
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func parseInt(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
