// Package validation checks finished artifacts against what the pipeline
// asked ffmpeg to produce.
package validation

import (
	"context"

	"github.com/five82/gallerypipe/internal/media"
)

// MediaAnalyzer provides media analysis capabilities for validation.
// This interface allows validation logic to be tested without external tools.
type MediaAnalyzer interface {
	// Probe returns the metadata of a video artifact.
	Probe(ctx context.Context, path string) (media.MediaMetadata, error)

	// ImageSize returns the pixel dimensions of a still image.
	ImageSize(path string) (width, height int, err error)
}
