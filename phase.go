package authflow

// phaseTransitions lists the moves a FormSession may make. Resolved sessions
// go back to submit_attempted or submitting on the next submit. A submitting
// session falls back to submit_attempted when the auth call panics.
var phaseTransitions = map[Phase]map[Phase]struct{}{
	PhasePristine: {
		PhaseSubmitAttempted: {},
		PhaseSubmitting:      {},
	},
	PhaseSubmitAttempted: {
		PhaseSubmitAttempted: {},
		PhaseSubmitting:      {},
	},
	PhaseSubmitting: {
		PhaseResolved:        {},
		PhaseSubmitAttempted: {},
	},
	PhaseResolved: {
		PhaseSubmitAttempted: {},
		PhaseSubmitting:      {},
	},
}

// CanTransition reports whether a session may move from one phase to another.
func CanTransition(from, to Phase) bool {
	if allowed, ok := phaseTransitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}
