package model

// Priority is the triage label produced by message analysis.
type Priority string

const (
	PriorityHigh    Priority = "High Priority"
	PriorityNormal  Priority = "Normal"
	PriorityLow     Priority = "Low Priority"
	PriorityUnknown Priority = "Unknown"
)

// MaxSuggestedReplies caps the quick replies kept from an analysis.
const MaxSuggestedReplies = 3

// ParsePriority maps a provider label onto a Priority. Unrecognized labels
// become PriorityUnknown.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityHigh, PriorityNormal, PriorityLow, PriorityUnknown:
		return Priority(s)
	default:
		return PriorityUnknown
	}
}

// AnalysisResult is the AI triage of a single message. It is never stored on
// the message itself.
type AnalysisResult struct {
	Priority Priority
	Summary  string
	Replies  []string
}
