package config

import "errors"

// Sentinel errors for configuration validation.
var (
	// ErrInvalidCodec indicates an unknown codec name was provided.
	ErrInvalidCodec = errors.New("invalid codec")

	// ErrInvalidQuality indicates an unknown quality name was provided.
	ErrInvalidQuality = errors.New("invalid quality")

	// ErrInvalidDimensions indicates a non-positive dimension bound.
	ErrInvalidDimensions = errors.New("invalid dimensions")

	// ErrInvalidBitrate indicates a bitrate string that cannot be parsed.
	ErrInvalidBitrate = errors.New("invalid bitrate")

	// ErrInvalidFrameRate indicates a frame rate outside the accepted range.
	ErrInvalidFrameRate = errors.New("frame rate out of range")

	// ErrInvalidOffset indicates a negative seek offset or empty preview length.
	ErrInvalidOffset = errors.New("invalid offset")

	// ErrInvalidInputLimit indicates a non-positive input size limit.
	ErrInvalidInputLimit = errors.New("invalid input size limit")

	// ErrInvalidConcurrency indicates a non-positive worker count.
	ErrInvalidConcurrency = errors.New("invalid concurrency")

	// ErrInvalidTimeout indicates a non-positive stage timeout.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrMissingToolPath indicates an empty ffmpeg or ffprobe path.
	ErrMissingToolPath = errors.New("tool path must not be empty")

	// ErrMissingWorkRoot indicates an empty working directory root.
	ErrMissingWorkRoot = errors.New("work root must not be empty")
)
