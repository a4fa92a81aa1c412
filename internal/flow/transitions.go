package flow

// validTransitions contains the permitted moves between distinct states. Returning to IDLE is
// always allowed because opening the widget resets it.
var validTransitions = map[State][]State{
	StateIdle: {
		StateAskPurpose,
	},
	StateAskPurpose: {
		StateChoosingTime,
	},
	StateChoosingTime: {
		StateAskEmail,
		StateAskPurpose,
	},
	StateAskEmail: {
		StateAskName,
		StateAskPurpose,
	},
	StateAskName: {
		StateAskPhone,
		StateAskPurpose,
	},
	StateAskPhone: {
		StateChoosingTime,
		StateAskPurpose,
	},
}

// IsTransitionAllowed reports whether moving from one state to another is valid.
func IsTransitionAllowed(from, to State) bool {
	if to == StateIdle || from == to {
		return to.Valid()
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, state := range allowed {
		if state == to {
			return true
		}
	}

	return false
}

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe flow transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}
