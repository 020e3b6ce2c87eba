package validation

import "fmt"

// Result contains the overall validation result.
type Result struct {
	IsCodecCorrect           bool
	IsDimensionsCorrect      bool
	IsDurationCorrect        bool
	IsPreviewDurationCorrect bool
	IsThumbnailBounded       bool

	// Details
	CodecName          string
	ActualDimensions   *[2]int
	ExpectedDimensions *[2]int
	ActualDuration     *float64
	ExpectedDuration   *float64
	CodecMessage       string
	DimensionsMessage  string
	DurationMessage    string
	PreviewMessage     string
	ThumbnailMessage   string
}

// ValidationStep represents a single validation check.
type ValidationStep struct {
	Name    string
	Passed  bool
	Details string
}

// IsValid returns true if all validation checks passed.
func (r *Result) IsValid() bool {
	return r.IsCodecCorrect &&
		r.IsDimensionsCorrect &&
		r.IsDurationCorrect &&
		r.IsPreviewDurationCorrect &&
		r.IsThumbnailBounded
}

// GetValidationSteps returns all validation steps with results.
func (r *Result) GetValidationSteps() []ValidationStep {
	return []ValidationStep{
		{Name: "Video codec", Passed: r.IsCodecCorrect, Details: r.CodecMessage},
		{Name: "Dimensions", Passed: r.IsDimensionsCorrect, Details: r.DimensionsMessage},
		{Name: "Video duration", Passed: r.IsDurationCorrect, Details: r.DurationMessage},
		{Name: "Preview duration", Passed: r.IsPreviewDurationCorrect, Details: r.PreviewMessage},
		{Name: "Thumbnail size", Passed: r.IsThumbnailBounded, Details: r.ThumbnailMessage},
	}
}

// GetFailures returns descriptions of failed validation checks.
func (r *Result) GetFailures() []string {
	var failures []string
	for _, step := range r.GetValidationSteps() {
		if !step.Passed {
			failures = append(failures, step.Name+": "+step.Details)
		}
	}
	return failures
}

func formatCodecDetails(actual, expected string, passed bool) string {
	if passed {
		return "Codec is " + actual
	}
	if actual != "" {
		return fmt.Sprintf("Expected %s, got %s", expected, actual)
	}
	return "Unknown codec"
}
