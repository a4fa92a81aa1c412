// Package flow is the guided scheduling conversation: a pure transition function from
// (model, event) to (model, effects).
package flow

// State is the current step of the scheduling conversation.
type State string

const (
	// StateIdle is free chat; scheduling has not started or just finished.
	StateIdle State = "IDLE"
	// StateAskPurpose waits for the meeting purpose.
	StateAskPurpose State = "ASK_PURPOSE"
	// StateChoosingTime shows slots and waits for a chip to be chosen.
	StateChoosingTime State = "CHOOSING_TIME"
	// StateAskEmail waits for the invite email.
	StateAskEmail State = "ASK_EMAIL"
	// StateAskName waits for the invite name.
	StateAskName State = "ASK_NAME"
	// StateAskPhone waits for an optional phone number, then books.
	StateAskPhone State = "ASK_PHONE"
)

// States lists every state in flow order.
var States = []State{StateIdle, StateAskPurpose, StateChoosingTime, StateAskEmail, StateAskName, StateAskPhone}

// AwaitsAnswer reports whether free text in this state answers a guided question.
func (s State) AwaitsAnswer() bool {
	switch s {
	case StateAskPurpose, StateAskEmail, StateAskName, StateAskPhone:
		return true
	default:
		return false
	}
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	for _, st := range States {
		if st == s {
			return true
		}
	}
	return false
}

func (s State) String() string {
	return string(s)
}
