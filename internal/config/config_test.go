package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.Options.MaxWidth != 1920 || cfg.Options.MaxHeight != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Options.MaxWidth, cfg.Options.MaxHeight)
	}
	if cfg.Options.TargetBitrate != "2M" {
		t.Errorf("expected TargetBitrate=2M, got %s", cfg.Options.TargetBitrate)
	}
	if cfg.Options.FrameRate != 30 {
		t.Errorf("expected FrameRate=30, got %d", cfg.Options.FrameRate)
	}
	if cfg.Options.Codec != CodecH264 || cfg.Options.Quality != QualityMedium {
		t.Errorf("expected h264/medium, got %s/%s", cfg.Options.Codec, cfg.Options.Quality)
	}
	if cfg.Options.ThumbnailOffsetSecs != 1 || cfg.Options.PreviewDurationSecs != 10 {
		t.Errorf("unexpected thumbnail/preview defaults: %+v", cfg.Options)
	}
	if cfg.MaxInputBytes != 500*1024*1024 {
		t.Errorf("expected 500MB limit, got %d", cfg.MaxInputBytes)
	}
	if cfg.Timeouts.Encode != 30*time.Minute || cfg.Timeouts.ToolCheck != 5*time.Second {
		t.Errorf("unexpected timeouts: %+v", cfg.Timeouts)
	}
	if cfg.Concurrency < 1 || cfg.Concurrency > DefaultMaxConcurrency {
		t.Errorf("expected concurrency in [1,%d], got %d", DefaultMaxConcurrency, cfg.Concurrency)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name         string
		modify       func(*Config)
		wantSentinel error
	}{
		{
			name:   "default config is valid",
			modify: func(c *Config) {},
		},
		{
			name:         "zero max width",
			modify:       func(c *Config) { c.Options.MaxWidth = 0 },
			wantSentinel: ErrInvalidDimensions,
		},
		{
			name:         "negative thumbnail bound",
			modify:       func(c *Config) { c.ThumbnailMaxHeight = -1 },
			wantSentinel: ErrInvalidDimensions,
		},
		{
			name:         "garbage bitrate",
			modify:       func(c *Config) { c.Options.TargetBitrate = "fast" },
			wantSentinel: ErrInvalidBitrate,
		},
		{
			name:   "kilobit bitrate",
			modify: func(c *Config) { c.Options.TargetBitrate = "800k" },
		},
		{
			name:         "frame rate 0",
			modify:       func(c *Config) { c.Options.FrameRate = 0 },
			wantSentinel: ErrInvalidFrameRate,
		},
		{
			name:         "unknown codec",
			modify:       func(c *Config) { c.Options.Codec = "vp9" },
			wantSentinel: ErrInvalidCodec,
		},
		{
			name:         "unknown quality",
			modify:       func(c *Config) { c.Options.Quality = "ultra" },
			wantSentinel: ErrInvalidQuality,
		},
		{
			name:         "negative thumbnail offset",
			modify:       func(c *Config) { c.Options.ThumbnailOffsetSecs = -1 },
			wantSentinel: ErrInvalidOffset,
		},
		{
			name:         "empty preview",
			modify:       func(c *Config) { c.Options.PreviewDurationSecs = 0 },
			wantSentinel: ErrInvalidOffset,
		},
		{
			name:         "NaN thumbnail offset",
			modify:       func(c *Config) { c.Options.ThumbnailOffsetSecs = math.NaN() },
			wantSentinel: ErrInvalidOffset,
		},
		{
			name:         "infinite preview start",
			modify:       func(c *Config) { c.Options.PreviewStartSecs = math.Inf(1) },
			wantSentinel: ErrInvalidOffset,
		},
		{
			name:         "infinite preview duration",
			modify:       func(c *Config) { c.Options.PreviewDurationSecs = math.Inf(1) },
			wantSentinel: ErrInvalidOffset,
		},
		{
			name:         "zero input limit",
			modify:       func(c *Config) { c.MaxInputBytes = 0 },
			wantSentinel: ErrInvalidInputLimit,
		},
		{
			name:         "zero concurrency",
			modify:       func(c *Config) { c.Concurrency = 0 },
			wantSentinel: ErrInvalidConcurrency,
		},
		{
			name:         "zero encode timeout",
			modify:       func(c *Config) { c.Timeouts.Encode = 0 },
			wantSentinel: ErrInvalidTimeout,
		},
		{
			name:         "empty ffprobe path",
			modify:       func(c *Config) { c.FFprobePath = "" },
			wantSentinel: ErrMissingToolPath,
		},
		{
			name:         "empty work root",
			modify:       func(c *Config) { c.WorkRoot = "" },
			wantSentinel: ErrMissingWorkRoot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.modify(cfg)
			err := cfg.Validate()

			if tt.wantSentinel == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantSentinel) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantSentinel)
			}
		})
	}
}

func TestParseCodec(t *testing.T) {
	tests := []struct {
		input   string
		want    Codec
		wantErr bool
	}{
		{"h264", CodecH264, false},
		{"H264", CodecH264, false},
		{"hevc", CodecH265, false},
		{"x265", CodecH265, false},
		{"av1", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCodec(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCodec(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCodec(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	if CodecH265.Encoder() != "libx265" || CodecH264.Encoder() != "libx264" {
		t.Error("unexpected encoder names")
	}
	if CodecH265.ProbeName() != "hevc" {
		t.Errorf("CodecH265.ProbeName() = %s", CodecH265.ProbeName())
	}
}

func TestQualityValuesOrdering(t *testing.T) {
	speed := map[string]int{"veryfast": 0, "fast": 1, "medium": 2, "slow": 3}

	for _, codec := range []Codec{CodecH264, CodecH265} {
		high := GetQualityValues(codec, QualityHigh)
		medium := GetQualityValues(codec, QualityMedium)
		low := GetQualityValues(codec, QualityLow)

		if !(high.CRF < medium.CRF && medium.CRF < low.CRF) {
			t.Errorf("%s: CRF should increase from high to low, got %d/%d/%d", codec, high.CRF, medium.CRF, low.CRF)
		}
		if !(speed[high.Preset] > speed[medium.Preset] && speed[medium.Preset] > speed[low.Preset]) {
			t.Errorf("%s: presets should get faster from high to low, got %s/%s/%s", codec, high.Preset, medium.Preset, low.Preset)
		}
	}
}

func TestAdaptiveQuality(t *testing.T) {
	v := GetQualityValues(CodecH264, QualityMedium)

	if got := v.CRFForPixels(1920 * 1080); got != v.CRF {
		t.Errorf("HD source CRF = %d, want %d", got, v.CRF)
	}
	if got := v.CRFForPixels(3840 * 2160); got != v.CRF+LargeSourceCRFOffset {
		t.Errorf("4K source CRF = %d, want %d", got, v.CRF+LargeSourceCRFOffset)
	}
	if got := (QualityValues{CRF: 50}).CRFForPixels(7680 * 4320); got != MaxCRF {
		t.Errorf("CRF should be capped at %d, got %d", MaxCRF, got)
	}

	if ThumbnailQualityForPixels(1280*720) != ThumbnailJPEGQuality {
		t.Error("small frames should use the default JPEG quality")
	}
	if ThumbnailQualityForPixels(1920*1080) <= ThumbnailQualityForPixels(3840*2160) {
		t.Error("large frames should get a lower JPEG quality")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gallerypipe.toml")
	content := `
ffmpeg_path = "/opt/ffmpeg/bin/ffmpeg"
concurrency = 3
max_input_mb = 100

[encode]
codec = "hevc"
quality = "high"
target_bitrate = "4M"

[thumbnail]
offset_seconds = 2.5

[preview]
duration_seconds = 6.0

[timeouts]
encode_seconds = 600
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewConfig()
	if err := LoadFile(path, cfg); err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	if cfg.FFmpegPath != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("FFmpegPath = %s", cfg.FFmpegPath)
	}
	if cfg.FFprobePath != "ffprobe" {
		t.Errorf("FFprobePath should keep its default, got %s", cfg.FFprobePath)
	}
	if cfg.Concurrency != 3 {
		t.Errorf("Concurrency = %d, want 3", cfg.Concurrency)
	}
	if cfg.MaxInputBytes != 100*1024*1024 {
		t.Errorf("MaxInputBytes = %d", cfg.MaxInputBytes)
	}
	if cfg.Options.Codec != CodecH265 || cfg.Options.Quality != QualityHigh {
		t.Errorf("codec/quality = %s/%s", cfg.Options.Codec, cfg.Options.Quality)
	}
	if cfg.Options.TargetBitrate != "4M" {
		t.Errorf("TargetBitrate = %s", cfg.Options.TargetBitrate)
	}
	if cfg.Options.ThumbnailOffsetSecs != 2.5 || cfg.Options.PreviewDurationSecs != 6 {
		t.Errorf("offsets = %g/%g", cfg.Options.ThumbnailOffsetSecs, cfg.Options.PreviewDurationSecs)
	}
	if cfg.Timeouts.Encode != 10*time.Minute {
		t.Errorf("Encode timeout = %v", cfg.Timeouts.Encode)
	}
	if cfg.Timeouts.Probe != DefaultProbeTimeout {
		t.Errorf("Probe timeout should keep its default, got %v", cfg.Timeouts.Probe)
	}
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name         string
		content      string
		wantSentinel error
	}{
		{name: "unknown key", content: "colour = \"blue\"\n"},
		{name: "bad codec", content: "[encode]\ncodec = \"vp9\"\n", wantSentinel: ErrInvalidCodec},
		{name: "invalid value", content: "concurrency = 0\n", wantSentinel: ErrInvalidConcurrency},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "cfg"+string(rune('a'+i))+".toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			err := LoadFile(path, NewConfig())
			if err == nil {
				t.Fatal("LoadFile() should fail")
			}
			if tt.wantSentinel != nil && !errors.Is(err, tt.wantSentinel) {
				t.Errorf("LoadFile() error = %v, want %v", err, tt.wantSentinel)
			}
		})
	}

	if err := LoadFile(filepath.Join(dir, "missing.toml"), NewConfig()); err == nil {
		t.Error("LoadFile() should fail for a missing file")
	}
}
