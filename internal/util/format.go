// Package util provides utility functions for formatting and common operations.
package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	KiB = 1024
	MiB = KiB * 1024
	GiB = MiB * 1024
)

// FormatBytes formats bytes with appropriate binary units (B, KiB, MiB, GiB).
func FormatBytes(bytes int64) string {
	bf := float64(bytes)
	switch {
	case bf >= GiB:
		return fmt.Sprintf("%.2f GiB", bf/GiB)
	case bf >= MiB:
		return fmt.Sprintf("%.2f MiB", bf/MiB)
	case bf >= KiB:
		return fmt.Sprintf("%.2f KiB", bf/KiB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatDuration formats seconds as HH:MM:SS.
func FormatDuration(seconds float64) string {
	if seconds < 0 || seconds != seconds { // NaN check
		return "??:??:??"
	}

	totalSecs := int64(seconds)
	hours := totalSecs / 3600
	minutes := (totalSecs % 3600) / 60
	secs := totalSecs % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}

// FormatSeconds renders seconds the way ffmpeg accepts them for -ss and -t.
func FormatSeconds(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}

// ParseFFmpegTime parses FFmpeg time string (HH:MM:SS.MS) to seconds.
func ParseFFmpegTime(timeStr string) (float64, bool) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 3 {
		return 0, false
	}

	hours, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, false
	}

	minutes, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, false
	}

	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, false
	}

	if hours < 0 || minutes < 0 || seconds < 0 {
		return 0, false
	}

	return hours*3600 + minutes*60 + seconds, true
}

var bitrateRegex = regexp.MustCompile(`^(\d+(?:\.\d+)?)([kKmM]?)$`)

// ParseBitrate parses an ffmpeg-style bitrate ("2M", "800k", "1500000")
// into bits per second.
func ParseBitrate(s string) (int64, error) {
	m := bitrateRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("unrecognised bitrate %q", s)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("unrecognised bitrate %q: %w", s, err)
	}

	switch strings.ToLower(m[2]) {
	case "k":
		value *= 1000
	case "m":
		value *= 1000 * 1000
	}

	bps := int64(value)
	if bps <= 0 {
		return 0, fmt.Errorf("bitrate %q must be positive", s)
	}
	return bps, nil
}

// CalculateSizeReduction calculates the percentage size reduction.
// Returns positive values for size reduction, negative for size increase.
func CalculateSizeReduction(inputSize, outputSize int64) float64 {
	if inputSize <= 0 {
		return 0
	}
	return (float64(inputSize) - float64(outputSize)) / float64(inputSize) * 100
}
