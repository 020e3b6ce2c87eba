package config

import (
	"fmt"
	"strings"
)

// Quality selects a compression-effort/speed trade-off.
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

const (
	// MaxCRF is the highest CRF accepted by libx264 and libx265.
	MaxCRF = 51

	// UHDPixelThreshold is the source frame area from which the compressed
	// copy gets LargeSourceCRFOffset added to its CRF.
	UHDPixelThreshold = 3840 * 2160

	// LargeSourceCRFOffset is the extra compression applied to 4K sources.
	LargeSourceCRFOffset = 2

	// PreviewCRF and PreviewPreset are used for the disposable preview clip.
	PreviewCRF    = 30
	PreviewPreset = "veryfast"

	// Thumbnail JPEG qualities, lowered for large source frames.
	ThumbnailJPEGQuality      = 85
	ThumbnailJPEGQualityLarge = 80

	// LargeFramePixelThreshold is the frame area above which thumbnails use
	// ThumbnailJPEGQualityLarge.
	LargeFramePixelThreshold = 2_000_000
)

// ParseQuality parses a string into a Quality.
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(s) {
	case "high":
		return QualityHigh, nil
	case "medium":
		return QualityMedium, nil
	case "low":
		return QualityLow, nil
	default:
		return "", fmt.Errorf("%w: '%s', valid options: high, medium, low", ErrInvalidQuality, s)
	}
}

// String returns the string representation of the quality.
func (q Quality) String() string {
	return string(q)
}

// QualityValues is the encoder parameter pair a Quality maps to.
type QualityValues struct {
	CRF    int
	Preset string
}

// GetQualityValues returns the encoder values for a codec and quality.
// High always uses a lower CRF and a slower preset than Low.
func GetQualityValues(codec Codec, q Quality) QualityValues {
	if codec == CodecH265 {
		switch q {
		case QualityHigh:
			return QualityValues{CRF: 22, Preset: "slow"}
		case QualityLow:
			return QualityValues{CRF: 32, Preset: "fast"}
		default:
			return QualityValues{CRF: 28, Preset: "medium"}
		}
	}

	switch q {
	case QualityHigh:
		return QualityValues{CRF: 18, Preset: "slow"}
	case QualityLow:
		return QualityValues{CRF: 28, Preset: "veryfast"}
	default:
		return QualityValues{CRF: 23, Preset: "medium"}
	}
}

// CRFForPixels returns the CRF for a source of the given frame area.
func (v QualityValues) CRFForPixels(pixels int) int {
	if pixels >= UHDPixelThreshold {
		return min(v.CRF+LargeSourceCRFOffset, MaxCRF)
	}
	return v.CRF
}

// ThumbnailQualityForPixels returns the JPEG quality for a frame of the given area.
func ThumbnailQualityForPixels(pixels int) int {
	if pixels > LargeFramePixelThreshold {
		return ThumbnailJPEGQualityLarge
	}
	return ThumbnailJPEGQuality
}
