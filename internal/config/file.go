package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// fileConfig mirrors the TOML file layout. Pointer fields distinguish
// "absent" from zero so a file only overrides the keys it sets.
type fileConfig struct {
	FFmpegPath      *string `toml:"ffmpeg_path"`
	FFprobePath     *string `toml:"ffprobe_path"`
	WorkRoot        *string `toml:"work_root"`
	MaxInputMB      *int64  `toml:"max_input_mb"`
	Concurrency     *int    `toml:"concurrency"`
	StageOriginal   *bool   `toml:"stage_original"`
	ValidateOutputs *bool   `toml:"validate_outputs"`

	Encode struct {
		MaxWidth      *int    `toml:"max_width"`
		MaxHeight     *int    `toml:"max_height"`
		TargetBitrate *string `toml:"target_bitrate"`
		FrameRate     *int    `toml:"frame_rate"`
		Codec         *string `toml:"codec"`
		Quality       *string `toml:"quality"`
	} `toml:"encode"`

	Thumbnail struct {
		OffsetSeconds *float64 `toml:"offset_seconds"`
		MaxWidth      *int     `toml:"max_width"`
		MaxHeight     *int     `toml:"max_height"`
	} `toml:"thumbnail"`

	Preview struct {
		StartSeconds    *float64 `toml:"start_seconds"`
		DurationSeconds *float64 `toml:"duration_seconds"`
		MaxWidth        *int     `toml:"max_width"`
		MaxHeight       *int     `toml:"max_height"`
	} `toml:"preview"`

	Timeouts struct {
		ToolCheckSeconds *int `toml:"tool_check_seconds"`
		ProbeSeconds     *int `toml:"probe_seconds"`
		EncodeSeconds    *int `toml:"encode_seconds"`
		ThumbnailSeconds *int `toml:"thumbnail_seconds"`
		PreviewSeconds   *int `toml:"preview_seconds"`
	} `toml:"timeouts"`
}

// LoadFile overlays the TOML file at path onto cfg and validates the result.
func LoadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	var fc fileConfig
	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := fc.apply(cfg); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return cfg.Validate()
}

func (fc *fileConfig) apply(cfg *Config) error {
	setString(&cfg.FFmpegPath, fc.FFmpegPath)
	setString(&cfg.FFprobePath, fc.FFprobePath)
	setString(&cfg.WorkRoot, fc.WorkRoot)
	if fc.MaxInputMB != nil {
		cfg.MaxInputBytes = *fc.MaxInputMB * 1024 * 1024
	}
	setInt(&cfg.Concurrency, fc.Concurrency)
	if fc.StageOriginal != nil {
		cfg.StageOriginal = *fc.StageOriginal
	}
	if fc.ValidateOutputs != nil {
		cfg.ValidateOutputs = *fc.ValidateOutputs
	}

	o := &cfg.Options
	setInt(&o.MaxWidth, fc.Encode.MaxWidth)
	setInt(&o.MaxHeight, fc.Encode.MaxHeight)
	setString(&o.TargetBitrate, fc.Encode.TargetBitrate)
	setInt(&o.FrameRate, fc.Encode.FrameRate)
	if fc.Encode.Codec != nil {
		codec, err := ParseCodec(*fc.Encode.Codec)
		if err != nil {
			return err
		}
		o.Codec = codec
	}
	if fc.Encode.Quality != nil {
		quality, err := ParseQuality(*fc.Encode.Quality)
		if err != nil {
			return err
		}
		o.Quality = quality
	}

	setFloat(&o.ThumbnailOffsetSecs, fc.Thumbnail.OffsetSeconds)
	setInt(&cfg.ThumbnailMaxWidth, fc.Thumbnail.MaxWidth)
	setInt(&cfg.ThumbnailMaxHeight, fc.Thumbnail.MaxHeight)

	setFloat(&o.PreviewStartSecs, fc.Preview.StartSeconds)
	setFloat(&o.PreviewDurationSecs, fc.Preview.DurationSeconds)
	setInt(&cfg.PreviewMaxWidth, fc.Preview.MaxWidth)
	setInt(&cfg.PreviewMaxHeight, fc.Preview.MaxHeight)

	t := &cfg.Timeouts
	setSeconds(&t.ToolCheck, fc.Timeouts.ToolCheckSeconds)
	setSeconds(&t.Probe, fc.Timeouts.ProbeSeconds)
	setSeconds(&t.Encode, fc.Timeouts.EncodeSeconds)
	setSeconds(&t.Thumbnail, fc.Timeouts.ThumbnailSeconds)
	setSeconds(&t.Preview, fc.Timeouts.PreviewSeconds)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setSeconds(dst *time.Duration, v *int) {
	if v != nil {
		*dst = time.Duration(*v) * time.Second
	}
}
