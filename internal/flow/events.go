package flow

import (
	"github.com/Proton-105/aadee-assistant/internal/availability"
	"github.com/Proton-105/aadee-assistant/internal/booking"
)

// Event is an input to the transition function.
type Event interface {
	Name() string
}

// Opened resets the widget to a fresh greeting.
type Opened struct{}

// ScheduleRequested is the "Schedule a meeting" action.
type ScheduleRequested struct{}

// TextSubmitted is a line typed by the user.
type TextSubmitted struct {
	Text string
}

// SlotChosen is a click on a displayed time chip.
type SlotChosen struct {
	ISO string
}

// TimesRequested asks for availability again while choosing a time.
type TimesRequested struct{}

// AvailabilityLoaded completes a FetchAvailability effect.
type AvailabilityLoaded struct {
	Epoch int
	Slots availability.Grouped
	Err   error
}

// ReplyReceived completes a SendMessage effect.
type ReplyReceived struct {
	Epoch int
	Reply string
	Err   error
}

// BookingFinished completes a SubmitBooking effect.
type BookingFinished struct {
	Epoch  int
	Result booking.Result
}

func (Opened) Name() string             { return "opened" }
func (ScheduleRequested) Name() string  { return "schedule_requested" }
func (TextSubmitted) Name() string      { return "text_submitted" }
func (SlotChosen) Name() string         { return "slot_chosen" }
func (TimesRequested) Name() string     { return "times_requested" }
func (AvailabilityLoaded) Name() string { return "availability_loaded" }
func (ReplyReceived) Name() string      { return "reply_received" }
func (BookingFinished) Name() string    { return "booking_finished" }

// Effect is work the caller must perform and report back as an event carrying the same Epoch.
type Effect interface {
	EffectEpoch() int
}

// FetchAvailability loads slots for the next Days days.
type FetchAvailability struct {
	Epoch int
	Days  int
}

// SendMessage forwards free text to the chat endpoint.
type SendMessage struct {
	Epoch int
	Text  string
}

// SubmitBooking books StartISO with the collected draft.
type SubmitBooking struct {
	Epoch    int
	Draft    booking.Draft
	StartISO string
}

func (e FetchAvailability) EffectEpoch() int { return e.Epoch }
func (e SendMessage) EffectEpoch() int       { return e.Epoch }
func (e SubmitBooking) EffectEpoch() int     { return e.Epoch }
