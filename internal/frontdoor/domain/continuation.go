package domain

// ContinuationState is the state of the "continue into the portal" flow.
type ContinuationState string

const (
	ContinuationIdle                 ContinuationState = "idle"
	ContinuationAwaitingConfirmation ContinuationState = "awaiting-confirmation"
	ContinuationRefreshing           ContinuationState = "refreshing"
	ContinuationCompleted            ContinuationState = "completed"
	ContinuationFailed               ContinuationState = "failed"
)

// continuationEdges is the complete transition table. Anything not listed
// here is an invariant violation.
var continuationEdges = map[ContinuationState][]ContinuationState{
	ContinuationIdle:                 {ContinuationAwaitingConfirmation},
	ContinuationAwaitingConfirmation: {ContinuationRefreshing, ContinuationIdle},
	ContinuationRefreshing:           {ContinuationCompleted, ContinuationFailed},
	ContinuationCompleted:            {ContinuationIdle},
	ContinuationFailed:               {ContinuationIdle},
}

// CanTransition reports whether s may move to next.
func (s ContinuationState) CanTransition(next ContinuationState) bool {
	for _, allowed := range continuationEdges[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the flow has finished.
func (s ContinuationState) IsTerminal() bool {
	return s == ContinuationCompleted || s == ContinuationFailed
}

// ParseContinuationState maps a stored value back to a state. Unknown or
// empty values read as idle.
func ParseContinuationState(v string) ContinuationState {
	switch s := ContinuationState(v); s {
	case ContinuationAwaitingConfirmation, ContinuationRefreshing, ContinuationCompleted, ContinuationFailed:
		return s
	default:
		return ContinuationIdle
	}
}
