package flow

import (
	"strings"

	"github.com/Proton-105/aadee-assistant/internal/i18n"
)

// Prompts are the assistant's lines. Templates use {time}, {email}, {link} and {days}.
type Prompts struct {
	Greeting          string
	AskPurpose        string
	ChooseTime        string
	NoTimes           string
	AvailabilityError string
	AskEmail          string
	InvalidEmail      string
	AskName           string
	AskPhone          string
	Booked            string
	BookingRejected   string
	BookingError      string
	ChatError         string
	ChatFallback      string
	SkipKeyword       string

	Placeholders map[State]string
}

// NewPrompts reads every line from tr.
func NewPrompts(tr i18n.Translator) Prompts {
	return Prompts{
		Greeting:          tr.T("flow.greeting"),
		AskPurpose:        tr.T("flow.ask_purpose"),
		ChooseTime:        tr.T("flow.choose_time"),
		NoTimes:           tr.T("flow.no_times"),
		AvailabilityError: tr.T("flow.availability_error"),
		AskEmail:          tr.T("flow.ask_email"),
		InvalidEmail:      tr.T("flow.invalid_email"),
		AskName:           tr.T("flow.ask_name"),
		AskPhone:          tr.T("flow.ask_phone"),
		Booked:            tr.T("flow.booked"),
		BookingRejected:   tr.T("flow.booking_rejected"),
		BookingError:      tr.T("flow.booking_error"),
		ChatError:         tr.T("flow.chat_error"),
		ChatFallback:      tr.T("flow.chat_fallback"),
		SkipKeyword:       tr.T("flow.skip_keyword"),
		Placeholders: map[State]string{
			StateIdle:         tr.T("placeholder.idle"),
			StateChoosingTime: tr.T("placeholder.idle"),
			StateAskPurpose:   tr.T("placeholder.ask_purpose"),
			StateAskEmail:     tr.T("placeholder.ask_email"),
			StateAskName:      tr.T("placeholder.ask_name"),
			StateAskPhone:     tr.T("placeholder.ask_phone"),
		},
	}
}

func fill(template string, vars ...string) string {
	return strings.NewReplacer(vars...).Replace(template)
}
