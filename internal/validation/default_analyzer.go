package validation

import (
	"github.com/disintegration/imaging"

	"github.com/five82/gallerypipe/internal/ffprobe"
)

// DefaultAnalyzer implements MediaAnalyzer with ffprobe for videos and
// imaging for stills.
type DefaultAnalyzer struct {
	*ffprobe.Prober
}

// NewDefaultAnalyzer creates a DefaultAnalyzer backed by prober.
func NewDefaultAnalyzer(prober *ffprobe.Prober) *DefaultAnalyzer {
	return &DefaultAnalyzer{Prober: prober}
}

// ImageSize decodes the image at path and returns its bounds.
func (a *DefaultAnalyzer) ImageSize(path string) (int, int, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}
