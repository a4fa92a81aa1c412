package flow

import "testing"

func TestIsTransitionAllowed(t *testing.T) {
	testCases := []struct {
		name     string
		from     State
		to       State
		expected bool
	}{
		{name: "idle to ask purpose", from: StateIdle, to: StateAskPurpose, expected: true},
		{name: "ask purpose to choosing time", from: StateAskPurpose, to: StateChoosingTime, expected: true},
		{name: "choosing time to ask email", from: StateChoosingTime, to: StateAskEmail, expected: true},
		{name: "ask email to ask name", from: StateAskEmail, to: StateAskName, expected: true},
		{name: "ask name to ask phone", from: StateAskName, to: StateAskPhone, expected: true},
		{name: "ask phone back to choosing time", from: StateAskPhone, to: StateChoosingTime, expected: true},
		{name: "ask phone to idle", from: StateAskPhone, to: StateIdle, expected: true},
		{name: "restart from ask name", from: StateAskName, to: StateAskPurpose, expected: true},
		{name: "staying put", from: StateAskEmail, to: StateAskEmail, expected: true},
		{name: "idle to ask email invalid", from: StateIdle, to: StateAskEmail, expected: false},
		{name: "ask purpose to ask phone invalid", from: StateAskPurpose, to: StateAskPhone, expected: false},
		{name: "ask email back to choosing time invalid", from: StateAskEmail, to: StateChoosingTime, expected: false},
		{name: "unknown state to ask purpose invalid", from: State("unknown"), to: StateAskPurpose, expected: false},
		{name: "any state to idle", from: State("whatever"), to: StateIdle, expected: true},
		{name: "unknown target invalid", from: StateIdle, to: State("nowhere"), expected: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if actual := IsTransitionAllowed(tc.from, tc.to); actual != tc.expected {
				t.Errorf("IsTransitionAllowed(%s -> %s) = %t, expected %t", tc.from, tc.to, actual, tc.expected)
			}
		})
	}
}

func TestState_AwaitsAnswer(t *testing.T) {
	awaiting := map[State]bool{
		StateIdle:         false,
		StateAskPurpose:   true,
		StateChoosingTime: false,
		StateAskEmail:     true,
		StateAskName:      true,
		StateAskPhone:     true,
	}

	for state, want := range awaiting {
		if got := state.AwaitsAnswer(); got != want {
			t.Errorf("%s.AwaitsAnswer() = %t, expected %t", state, got, want)
		}
	}
}
