package flow

import (
	"github.com/Proton-105/aadee-assistant/internal/availability"
	"github.com/Proton-105/aadee-assistant/internal/booking"
	"github.com/Proton-105/aadee-assistant/internal/transcript"
)

// Model is the whole view state of one widget.
type Model struct {
	State      State
	Transcript transcript.Transcript
	Slots      availability.Grouped
	PendingISO string
	Draft      booking.Draft
	// Epoch increases on every open; completions from older epochs are dropped.
	Epoch int
}

// ShowingSlots reports whether time chips are on screen.
func (m Model) ShowingSlots() bool {
	return !m.Slots.Empty()
}

// CanChoose reports whether iso is a chip the user may click right now.
func (m Model) CanChoose(iso string) bool {
	return m.State == StateChoosingTime && m.Slots.Contains(iso)
}

func (m Model) say(content string) Model {
	m.Transcript = m.Transcript.Append(transcript.Assistant(content))
	return m
}

func (m Model) echo(content string) Model {
	m.Transcript = m.Transcript.Append(transcript.User(content))
	return m
}
