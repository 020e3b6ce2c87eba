package ffmpeg

import (
	"fmt"
	"math"
	"strings"
)

// VideoFilterChain builds video filter chains.
type VideoFilterChain struct {
	filters []string
}

// NewVideoFilterChain creates a new empty filter chain.
func NewVideoFilterChain() *VideoFilterChain {
	return &VideoFilterChain{}
}

// AddScale adds a scale filter to the chain. Non-positive sizes are ignored.
func (c *VideoFilterChain) AddScale(width, height int) *VideoFilterChain {
	if width > 0 && height > 0 {
		c.filters = append(c.filters, fmt.Sprintf("scale=%d:%d:flags=lanczos", width, height))
	}
	return c
}

// Build builds the filter chain into a single filter string.
// Returns empty string if no filters are present.
func (c *VideoFilterChain) Build() string {
	if len(c.filters) == 0 {
		return ""
	}
	return strings.Join(c.filters, ",")
}

// FitWithin returns the largest size no bigger than maxW x maxH that keeps
// the source aspect ratio. Sources already inside the bound keep their size.
// With even set both sides are rounded down to even numbers, which 4:2:0
// encoders require.
func FitWithin(srcW, srcH, maxW, maxH int, even bool) (int, int) {
	if srcW <= 0 || srcH <= 0 || maxW <= 0 || maxH <= 0 {
		return 0, 0
	}

	w, h := srcW, srcH
	if srcW > maxW || srcH > maxH {
		scale := math.Min(float64(maxW)/float64(srcW), float64(maxH)/float64(srcH))
		w = min(int(math.Round(float64(srcW)*scale)), maxW)
		h = min(int(math.Round(float64(srcH)*scale)), maxH)
	}

	minSide := 1
	if even {
		w -= w % 2
		h -= h % 2
		minSide = 2
	}
	return max(w, minSide), max(h, minSide)
}
