package validation

import (
	"context"
	"fmt"
	"math"
)

// durationToleranceSecs is the maximum allowed difference between an
// artifact's probed duration and the expected one.
const durationToleranceSecs = 1.0

// Artifacts names the files to validate. Empty paths skip their checks.
type Artifacts struct {
	Compressed string
	Thumbnail  string
	Preview    string
}

// Options contains the expected artifact properties. Nil fields skip their
// checks.
type Options struct {
	ExpectedCodec           string
	ExpectedDimensions      *[2]int
	ExpectedDuration        *float64
	ExpectedPreviewDuration *float64
	ThumbnailBound          *[2]int
}

// validateDimensions checks that dimensions match expected values.
func validateDimensions(actualW, actualH, expectedW, expectedH int) (bool, string) {
	if actualW == expectedW && actualH == expectedH {
		return true, fmt.Sprintf("Dimensions match: %dx%d", actualW, actualH)
	}
	return false, fmt.Sprintf("Dimension mismatch: got %dx%d, expected %dx%d",
		actualW, actualH, expectedW, expectedH)
}

// validateDuration checks that duration is within acceptable tolerance.
func validateDuration(actual, expected float64) (bool, string) {
	diff := math.Abs(actual - expected)

	if diff <= durationToleranceSecs {
		return true, fmt.Sprintf("Duration matches (%.1fs)", actual)
	}
	return false, fmt.Sprintf("Duration mismatch: got %.1fs, expected %.1fs (diff: %.1fs)",
		actual, expected, diff)
}

// validateBound checks that an image fits inside a bounding box.
func validateBound(w, h, maxW, maxH int) (bool, string) {
	if w > 0 && h > 0 && w <= maxW && h <= maxH {
		return true, fmt.Sprintf("%dx%d within %dx%d", w, h, maxW, maxH)
	}
	return false, fmt.Sprintf("%dx%d exceeds %dx%d", w, h, maxW, maxH)
}

// ValidateWithAnalyzer probes the artifacts and compares them with opts.
// Only a failure to probe the compressed copy is returned as an error;
// every other problem is recorded as a failed step.
func ValidateWithAnalyzer(ctx context.Context, analyzer MediaAnalyzer, artifacts Artifacts, opts Options) (*Result, error) {
	result := &Result{
		IsCodecCorrect:           true,
		IsDimensionsCorrect:      true,
		IsDurationCorrect:        true,
		IsPreviewDurationCorrect: true,
		IsThumbnailBounded:       true,
		CodecMessage:             "Codec validation skipped",
		DimensionsMessage:        "Dimension validation skipped",
		DurationMessage:          "Duration validation skipped",
		PreviewMessage:           "Preview validation skipped",
		ThumbnailMessage:         "Thumbnail validation skipped",
	}

	if artifacts.Compressed != "" {
		compressed, err := analyzer.Probe(ctx, artifacts.Compressed)
		if err != nil {
			return nil, fmt.Errorf("failed to probe compressed output: %w", err)
		}

		result.CodecName = compressed.CodecName
		if opts.ExpectedCodec != "" {
			result.IsCodecCorrect = compressed.CodecName == opts.ExpectedCodec
			result.CodecMessage = formatCodecDetails(compressed.CodecName, opts.ExpectedCodec, result.IsCodecCorrect)
		}

		if opts.ExpectedDimensions != nil {
			result.ActualDimensions = &[2]int{compressed.Width, compressed.Height}
			result.ExpectedDimensions = opts.ExpectedDimensions
			result.IsDimensionsCorrect, result.DimensionsMessage = validateDimensions(
				compressed.Width, compressed.Height,
				opts.ExpectedDimensions[0], opts.ExpectedDimensions[1],
			)
		}

		if opts.ExpectedDuration != nil {
			actual := compressed.DurationSecs
			result.ActualDuration = &actual
			result.ExpectedDuration = opts.ExpectedDuration
			result.IsDurationCorrect, result.DurationMessage = validateDuration(actual, *opts.ExpectedDuration)
		}
	}

	if artifacts.Preview != "" && opts.ExpectedPreviewDuration != nil {
		preview, err := analyzer.Probe(ctx, artifacts.Preview)
		if err != nil {
			result.IsPreviewDurationCorrect = false
			result.PreviewMessage = "Failed to probe preview: " + err.Error()
		} else {
			result.IsPreviewDurationCorrect, result.PreviewMessage = validateDuration(
				preview.DurationSecs, *opts.ExpectedPreviewDuration)
		}
	}

	if artifacts.Thumbnail != "" && opts.ThumbnailBound != nil {
		w, h, err := analyzer.ImageSize(artifacts.Thumbnail)
		if err != nil {
			result.IsThumbnailBounded = false
			result.ThumbnailMessage = "Failed to read thumbnail: " + err.Error()
		} else {
			result.IsThumbnailBounded, result.ThumbnailMessage = validateBound(
				w, h, opts.ThumbnailBound[0], opts.ThumbnailBound[1])
		}
	}

	return result, nil
}
