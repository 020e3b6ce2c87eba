// Package media holds the data model passed between pipeline stages.
package media

// MediaMetadata describes a probed input. It is produced once per input
// and never mutated afterwards.
type MediaMetadata struct {
	DurationSecs float64
	Width        int
	Height       int
	FrameRate    float64
	BitrateBps   int64
	CodecName    string
	SizeBytes    int64
}

// Pixels returns the frame area.
func (m MediaMetadata) Pixels() int {
	return m.Width * m.Height
}

// Artifact is one derived output file.
type Artifact struct {
	Path      string
	Width     int
	Height    int
	SizeBytes int64
	// DurationSecs is nil for still images.
	DurationSecs *float64
}

// Duration returns the artifact duration, or 0 for still images.
func (a Artifact) Duration() float64 {
	if a.DurationSecs == nil {
		return 0
	}
	return *a.DurationSecs
}

// Seconds returns a pointer to s for Artifact.DurationSecs.
func Seconds(s float64) *float64 {
	return &s
}

// Stage identifies the subprocess-backed unit of work a progress event belongs to.
type Stage int

const (
	StageProbe Stage = iota
	StageEncode
	StageThumbnail
	StagePreview
)

func (s Stage) String() string {
	switch s {
	case StageProbe:
		return "probe"
	case StageEncode:
		return "encode"
	case StageThumbnail:
		return "thumbnail"
	case StagePreview:
		return "preview"
	default:
		return "unknown"
	}
}

// ProgressEvent reports percent-complete for one stage.
type ProgressEvent struct {
	Stage   Stage
	Percent int
}

// ProgressFunc receives progress events. A nil ProgressFunc is valid and
// discards events.
type ProgressFunc func(ProgressEvent)

// Emit calls f if it is non-nil.
func (f ProgressFunc) Emit(stage Stage, percent int) {
	if f != nil {
		f(ProgressEvent{Stage: stage, Percent: percent})
	}
}
