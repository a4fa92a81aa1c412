package flow

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Proton-105/aadee-assistant/internal/availability"
	"github.com/Proton-105/aadee-assistant/internal/booking"
	errors "github.com/Proton-105/aadee-assistant/internal/errors"
	"github.com/Proton-105/aadee-assistant/internal/transcript"
)

// ErrInvalidTransition indicates that a computed transition is not in the transition table.
var ErrInvalidTransition = errors.New("invalid state transition")

const defaultWindowDays = 14

// Config tunes a Machine.
type Config struct {
	Prompts Prompts
	// Location formats times in the user's zone.
	Location *time.Location
	// WindowDays is how far ahead availability is requested.
	WindowDays int
	// Intent overrides DefaultIntentPattern.
	Intent *regexp.Regexp
}

// Machine computes transitions. It holds no per-widget state and is safe to share.
type Machine struct {
	prompts Prompts
	loc     *time.Location
	days    int
	intent  *regexp.Regexp
	log     *slog.Logger
}

// NewMachine creates a Machine.
func NewMachine(cfg Config, log *slog.Logger) *Machine {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = defaultWindowDays
	}
	if cfg.Intent == nil {
		cfg.Intent = DefaultIntentPattern
	}

	return &Machine{
		prompts: cfg.Prompts,
		loc:     cfg.Location,
		days:    cfg.WindowDays,
		intent:  cfg.Intent,
		log:     log,
	}
}

// Placeholder is the input hint for state.
func (mc *Machine) Placeholder(state State) string {
	if p, ok := mc.prompts.Placeholders[state]; ok {
		return p
	}
	return mc.prompts.Placeholders[StateIdle]
}

// IsScheduleIntent reports whether free text asks to schedule.
func (mc *Machine) IsScheduleIntent(text string) bool {
	return mc.intent.MatchString(text)
}

// Transition applies ev to m. It returns the next model and the effects to run; events that do
// not apply in the current state leave the model untouched. A result outside the transition
// table is reported as ErrInvalidTransition and m is returned unchanged.
func (mc *Machine) Transition(m Model, ev Event) (Model, []Effect, error) {
	next, effects := mc.apply(m, ev)

	if !IsTransitionAllowed(m.State, next.State) {
		mc.log.Error("invalid flow transition",
			slog.String("from", string(m.State)),
			slog.String("to", string(next.State)),
			slog.String("event", ev.Name()),
		)
		return m, nil, fmt.Errorf("%w: %s -> %s on %s", ErrInvalidTransition, m.State, next.State, ev.Name())
	}

	if next.State != m.State {
		transitionRecorder(string(m.State), string(next.State))
	}

	return next, effects, nil
}

func (mc *Machine) apply(m Model, ev Event) (Model, []Effect) {
	switch e := ev.(type) {
	case Opened:
		return mc.open(m), nil
	case ScheduleRequested:
		return mc.startScheduling(m), nil
	case TextSubmitted:
		return mc.submitText(m, e.Text)
	case SlotChosen:
		return mc.chooseSlot(m, e.ISO), nil
	case TimesRequested:
		if m.State != StateChoosingTime {
			return m, nil
		}
		m.Slots = nil
		return m, []Effect{FetchAvailability{Epoch: m.Epoch, Days: mc.days}}
	case AvailabilityLoaded:
		if e.Epoch != m.Epoch {
			return m, nil
		}
		return mc.availabilityLoaded(m, e), nil
	case ReplyReceived:
		if e.Epoch != m.Epoch {
			return m, nil
		}
		return mc.replyReceived(m, e), nil
	case BookingFinished:
		if e.Epoch != m.Epoch {
			return m, nil
		}
		return mc.bookingFinished(m, e.Result), nil
	default:
		mc.log.Warn("unknown flow event", slog.String("event", fmt.Sprintf("%T", ev)))
		return m, nil
	}
}

func (mc *Machine) open(m Model) Model {
	return Model{
		State:      StateIdle,
		Transcript: transcript.Transcript{transcript.Assistant(mc.prompts.Greeting)},
		Epoch:      m.Epoch + 1,
	}
}

func (mc *Machine) startScheduling(m Model) Model {
	m.State = StateAskPurpose
	m.Slots = nil
	m.PendingISO = ""
	return m.say(mc.prompts.AskPurpose)
}

func (mc *Machine) submitText(m Model, raw string) (Model, []Effect) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return m, nil
	}

	m = m.echo(text)

	switch m.State {
	case StateAskPurpose:
		m.Draft.Purpose = text
		m.State = StateChoosingTime
		m.Slots = nil
		return m, []Effect{FetchAvailability{Epoch: m.Epoch, Days: mc.days}}

	case StateAskEmail:
		if !IsEmail(text) {
			return m.say(mc.prompts.InvalidEmail), nil
		}
		m.Draft.Email = text
		m.State = StateAskName
		return m.say(mc.prompts.AskName), nil

	case StateAskName:
		m.Draft.Name = text
		m.State = StateAskPhone
		return m.say(mc.prompts.AskPhone), nil

	case StateAskPhone:
		if IsSkip(text, mc.prompts.SkipKeyword) {
			m.Draft.Phone = ""
		} else {
			m.Draft.Phone = text
		}
		return m, []Effect{SubmitBooking{Epoch: m.Epoch, Draft: m.Draft, StartISO: m.PendingISO}}
	}

	if m.State == StateIdle && !m.ShowingSlots() && mc.IsScheduleIntent(text) {
		m.State = StateAskPurpose
		return m.say(mc.prompts.AskPurpose), nil
	}

	return m, []Effect{SendMessage{Epoch: m.Epoch, Text: text}}
}

func (mc *Machine) chooseSlot(m Model, iso string) Model {
	if !m.CanChoose(iso) {
		return m
	}

	m.PendingISO = iso
	m.Slots = nil
	m.State = StateAskEmail
	return m.say(fill(mc.prompts.AskEmail, "{time}", availability.FormatSlot(iso, mc.loc)))
}

func (mc *Machine) availabilityLoaded(m Model, e AvailabilityLoaded) Model {
	if m.State != StateChoosingTime {
		return m
	}

	switch {
	case e.Err != nil:
		m.Slots = nil
		return m.say(mc.prompts.AvailabilityError)
	case e.Slots.Empty():
		m.Slots = nil
		return m.say(fill(mc.prompts.NoTimes, "{days}", strconv.Itoa(mc.days)))
	default:
		m.Slots = e.Slots.Clone()
		return m.say(mc.prompts.ChooseTime)
	}
}

func (mc *Machine) replyReceived(m Model, e ReplyReceived) Model {
	switch {
	case e.Err != nil:
		return m.say(mc.prompts.ChatError)
	case strings.TrimSpace(e.Reply) == "":
		return m.say(mc.prompts.ChatFallback)
	default:
		return m.say(e.Reply)
	}
}

func (mc *Machine) bookingFinished(m Model, res booking.Result) Model {
	if m.State != StateAskPhone {
		return m
	}

	if res.Outcome == booking.OutcomeBooked {
		iso := m.PendingISO
		if iso == "" {
			iso = res.StartISO
		}
		m = m.say(fill(mc.prompts.Booked,
			"{time}", availability.FormatSlot(iso, mc.loc),
			"{email}", m.Draft.Email,
			"{link}", res.Link,
		))
		m.State = StateIdle
		m.Slots = nil
		m.PendingISO = ""
		m.Draft = booking.Draft{}
		return m
	}

	m.State = StateChoosingTime
	m.PendingISO = ""
	if res.Outcome == booking.OutcomeRejected {
		return m.say(mc.prompts.BookingRejected)
	}
	return m.say(mc.prompts.BookingError)
}
