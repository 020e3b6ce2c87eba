// Package config provides configuration types and defaults for gallerypipe.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/five82/gallerypipe/internal/util"
)

// Default constants
const (
	// DefaultMaxWidth and DefaultMaxHeight bound the compressed copy.
	DefaultMaxWidth  = 1920
	DefaultMaxHeight = 1080

	// DefaultTargetBitrate caps the compressed copy's bitrate.
	DefaultTargetBitrate = "2M"

	// DefaultFrameRate is the highest frame rate kept in the compressed copy.
	DefaultFrameRate = 30

	// DefaultThumbnailOffsetSecs is where the still frame is taken from.
	DefaultThumbnailOffsetSecs = 1.0

	// DefaultPreviewDurationSecs is the length of the preview clip.
	DefaultPreviewDurationSecs = 10.0

	// Thumbnail and preview bounds.
	DefaultThumbnailMaxWidth  = 400
	DefaultThumbnailMaxHeight = 300
	DefaultPreviewMaxWidth    = 640
	DefaultPreviewMaxHeight   = 480

	// DefaultMaxInputBytes rejects uploads above 500 MB.
	DefaultMaxInputBytes int64 = 500 * 1024 * 1024

	// Stage timeouts.
	DefaultToolCheckTimeout = 5 * time.Second
	DefaultProbeTimeout     = 30 * time.Second
	DefaultEncodeTimeout    = 30 * time.Minute
	DefaultThumbnailTimeout = 2 * time.Minute
	DefaultPreviewTimeout   = 5 * time.Minute

	// DefaultMaxConcurrency caps the default batch worker count.
	DefaultMaxConcurrency = 2

	// MaxFrameRate is the highest accepted frame-rate setting.
	MaxFrameRate = 240
)

// Codec selects the video encoder for the compressed copy.
type Codec string

const (
	CodecH264 Codec = "h264"
	CodecH265 Codec = "h265"
)

// ParseCodec parses a string into a Codec.
func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(s) {
	case "h264", "avc", "x264":
		return CodecH264, nil
	case "h265", "hevc", "x265":
		return CodecH265, nil
	default:
		return "", fmt.Errorf("%w: '%s', valid options: h264, h265", ErrInvalidCodec, s)
	}
}

// String returns the string representation of the codec.
func (c Codec) String() string {
	return string(c)
}

// Encoder returns the ffmpeg encoder name.
func (c Codec) Encoder() string {
	if c == CodecH265 {
		return "libx265"
	}
	return "libx264"
}

// ProbeName returns the codec_name ffprobe reports for this codec.
func (c Codec) ProbeName() string {
	if c == CodecH265 {
		return "hevc"
	}
	return "h264"
}

// Options are the per-run processing options supplied by the caller.
type Options struct {
	MaxWidth            int
	MaxHeight           int
	TargetBitrate       string
	FrameRate           int
	Codec               Codec
	Quality             Quality
	ThumbnailOffsetSecs float64
	PreviewStartSecs    float64
	PreviewDurationSecs float64
}

// DefaultOptions returns the default processing options.
func DefaultOptions() Options {
	return Options{
		MaxWidth:            DefaultMaxWidth,
		MaxHeight:           DefaultMaxHeight,
		TargetBitrate:       DefaultTargetBitrate,
		FrameRate:           DefaultFrameRate,
		Codec:               CodecH264,
		Quality:             QualityMedium,
		ThumbnailOffsetSecs: DefaultThumbnailOffsetSecs,
		PreviewDurationSecs: DefaultPreviewDurationSecs,
	}
}

// Timeouts bounds each subprocess-backed stage.
type Timeouts struct {
	ToolCheck time.Duration
	Probe     time.Duration
	Encode    time.Duration
	Thumbnail time.Duration
	Preview   time.Duration
}

// DefaultTimeouts returns the default stage timeouts.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		ToolCheck: DefaultToolCheckTimeout,
		Probe:     DefaultProbeTimeout,
		Encode:    DefaultEncodeTimeout,
		Thumbnail: DefaultThumbnailTimeout,
		Preview:   DefaultPreviewTimeout,
	}
}

// Config holds all configuration for a pipeline.
type Config struct {
	Options  Options
	Timeouts Timeouts

	// External tools
	FFmpegPath  string
	FFprobePath string

	// WorkRoot is the parent of every per-run working directory.
	WorkRoot string

	// Fixed bounds for derived artifacts
	ThumbnailMaxWidth  int
	ThumbnailMaxHeight int
	PreviewMaxWidth    int
	PreviewMaxHeight   int

	// Limits
	MaxInputBytes int64
	Concurrency   int

	// StageOriginal copies the input into <run>/<name> before probing.
	StageOriginal bool

	// ValidateOutputs probes finished artifacts and reports mismatches.
	ValidateOutputs bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Options:            DefaultOptions(),
		Timeouts:           DefaultTimeouts(),
		FFmpegPath:         "ffmpeg",
		FFprobePath:        "ffprobe",
		WorkRoot:           filepath.Join(os.TempDir(), "gallerypipe"),
		ThumbnailMaxWidth:  DefaultThumbnailMaxWidth,
		ThumbnailMaxHeight: DefaultThumbnailMaxHeight,
		PreviewMaxWidth:    DefaultPreviewMaxWidth,
		PreviewMaxHeight:   DefaultPreviewMaxHeight,
		MaxInputBytes:      DefaultMaxInputBytes,
		Concurrency:        util.DefaultConcurrency(DefaultMaxConcurrency),
		ValidateOutputs:    true,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	o := c.Options
	if o.MaxWidth <= 0 || o.MaxHeight <= 0 {
		return fmt.Errorf("%w: max dimensions must be positive, got %dx%d", ErrInvalidDimensions, o.MaxWidth, o.MaxHeight)
	}
	if c.ThumbnailMaxWidth <= 0 || c.ThumbnailMaxHeight <= 0 {
		return fmt.Errorf("%w: thumbnail bound must be positive, got %dx%d", ErrInvalidDimensions, c.ThumbnailMaxWidth, c.ThumbnailMaxHeight)
	}
	if c.PreviewMaxWidth <= 0 || c.PreviewMaxHeight <= 0 {
		return fmt.Errorf("%w: preview bound must be positive, got %dx%d", ErrInvalidDimensions, c.PreviewMaxWidth, c.PreviewMaxHeight)
	}

	if _, err := util.ParseBitrate(o.TargetBitrate); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBitrate, err)
	}

	if o.FrameRate <= 0 || o.FrameRate > MaxFrameRate {
		return fmt.Errorf("%w: must be 1-%d, got %d", ErrInvalidFrameRate, MaxFrameRate, o.FrameRate)
	}

	if _, err := ParseCodec(string(o.Codec)); err != nil {
		return err
	}
	if _, err := ParseQuality(string(o.Quality)); err != nil {
		return err
	}

	for _, v := range []float64{o.ThumbnailOffsetSecs, o.PreviewStartSecs, o.PreviewDurationSecs} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: offsets must be finite, got %g", ErrInvalidOffset, v)
		}
	}
	if o.ThumbnailOffsetSecs < 0 || o.PreviewStartSecs < 0 {
		return fmt.Errorf("%w: offsets must not be negative", ErrInvalidOffset)
	}
	if o.PreviewDurationSecs <= 0 {
		return fmt.Errorf("%w: preview duration must be positive, got %g", ErrInvalidOffset, o.PreviewDurationSecs)
	}

	if c.MaxInputBytes <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidInputLimit, c.MaxInputBytes)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidConcurrency, c.Concurrency)
	}

	t := c.Timeouts
	for name, d := range map[string]time.Duration{
		"tool_check": t.ToolCheck,
		"probe":      t.Probe,
		"encode":     t.Encode,
		"thumbnail":  t.Thumbnail,
		"preview":    t.Preview,
	} {
		if d <= 0 {
			return fmt.Errorf("%w: %s timeout must be positive", ErrInvalidTimeout, name)
		}
	}

	if c.FFmpegPath == "" || c.FFprobePath == "" {
		return ErrMissingToolPath
	}
	if c.WorkRoot == "" {
		return ErrMissingWorkRoot
	}

	return nil
}
