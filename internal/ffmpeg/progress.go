package ffmpeg

import (
	"math"
	"regexp"

	"github.com/five82/gallerypipe/internal/media"
	"github.com/five82/gallerypipe/internal/util"
)

var (
	durationRegex = regexp.MustCompile(`Duration:\s*(\d{2,}:\d{2}:\d{2}(?:\.\d+)?)`)
	timeRegex     = regexp.MustCompile(`time=\s*(\d{2,}:\d{2}:\d{2}(?:\.\d+)?)`)
)

// ProgressParser turns ffmpeg diagnostic lines into percent-complete values.
//
// The first "Duration:" marker fixes the total; later "time=" markers yield
// a percentage that is reported only when it rises above the last reported
// value. Without a total no percentages are produced.
type ProgressParser struct {
	totalSecs float64
	fixed     bool
	last      int
}

// NewProgressParser returns a parser. A positive knownTotal is used instead
// of the stream's Duration marker, for runs that only cover part of the input.
func NewProgressParser(knownTotal float64) *ProgressParser {
	p := &ProgressParser{}
	if knownTotal > 0 {
		p.totalSecs = knownTotal
		p.fixed = true
	}
	return p
}

// Total returns the cached total duration, if one has been seen.
func (p *ProgressParser) Total() (float64, bool) {
	return p.totalSecs, p.totalSecs > 0
}

// Feed consumes one line and returns a new percentage when it increased.
func (p *ProgressParser) Feed(line string) (int, bool) {
	if !p.fixed && p.totalSecs <= 0 {
		if m := durationRegex.FindStringSubmatch(line); m != nil {
			if secs, ok := util.ParseFFmpegTime(m[1]); ok && secs > 0 {
				p.totalSecs = secs
			}
		}
	}

	if p.totalSecs <= 0 {
		return 0, false
	}

	m := timeRegex.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	current, ok := util.ParseFFmpegTime(m[1])
	if !ok {
		return 0, false
	}

	pct := PercentOf(current, p.totalSecs)
	if pct <= p.last {
		return 0, false
	}
	p.last = pct
	return pct, true
}

// Lines adapts the parser to Command.OnLine, emitting increases for stage.
func (p *ProgressParser) Lines(stage media.Stage, onProgress media.ProgressFunc) func(string) {
	return func(line string) {
		if pct, ok := p.Feed(line); ok {
			onProgress.Emit(stage, pct)
		}
	}
}

// PercentOf returns round(100*current/total) clamped to [0, 100].
func PercentOf(current, total float64) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(100 * current / total))
	return max(0, min(pct, 100))
}
