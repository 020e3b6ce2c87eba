package processing

// State is a step of a pipeline run.
type State int

const (
	StatePending State = iota
	StateProbingTools
	StateProbingMetadata
	StateEncoding
	StateExtractingThumbnail
	StateExtractingPreview
	StateValidating
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateProbingTools:
		return "ProbingTools"
	case StateProbingMetadata:
		return "ProbingMetadata"
	case StateEncoding:
		return "Encoding"
	case StateExtractingThumbnail:
		return "ExtractingThumbnail"
	case StateExtractingPreview:
		return "ExtractingPreview"
	case StateValidating:
		return "Validating"
	case StateCompleted:
		return "Completed"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}
