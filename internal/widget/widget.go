// Package widget runs one scheduling conversation: it owns the view state, feeds user actions
// through the flow machine and performs the resulting effects.
package widget

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Proton-105/aadee-assistant/internal/availability"
	"github.com/Proton-105/aadee-assistant/internal/booking"
	errors "github.com/Proton-105/aadee-assistant/internal/errors"
	"github.com/Proton-105/aadee-assistant/internal/flow"
	"github.com/Proton-105/aadee-assistant/internal/session"
	"github.com/Proton-105/aadee-assistant/internal/transcript"
	"github.com/Proton-105/aadee-assistant/pkg/metrics"
)

// AvailabilityFetcher returns grouped slots for the next days.
type AvailabilityFetcher interface {
	Fetch(ctx context.Context, windowDays int) (availability.Grouped, error)
}

// Chatter forwards free text to the chat endpoint.
type Chatter interface {
	SendMessage(ctx context.Context, sessionID, text string) (string, error)
}

// BookingSubmitter books a collected draft.
type BookingSubmitter interface {
	Submit(ctx context.Context, draft booking.Draft, pendingISO, sessionID string) booking.Result
}

// Services are the collaborators a widget calls for effects.
type Services struct {
	Availability AvailabilityFetcher
	Chat         Chatter
	Booking      BookingSubmitter
	Errors       *errors.Handler
}

// Snapshot is a read-only copy of the widget's view state for rendering.
type Snapshot struct {
	SessionID    string                `json:"session_id"`
	State        flow.State            `json:"state"`
	Messages     []transcript.Message  `json:"messages"`
	Slots        availability.Grouped  `json:"slots"`
	ShowingSlots bool                  `json:"showing_slots"`
	PendingISO   string                `json:"pending_iso,omitempty"`
	Placeholder  string                `json:"placeholder"`
	CanShowTimes bool                  `json:"can_show_times"`
	Transcript   transcript.Transcript `json:"-"`
}

// Widget processes one event at a time; effects run inline and their completions are applied
// before the next user action is accepted.
type Widget struct {
	mu         sync.Mutex
	machine    *flow.Machine
	services   Services
	session    *session.Store
	frontend   string
	model      flow.Model
	lastActive time.Time
	now        func() time.Time
	log        *slog.Logger
}

// New creates a closed widget. The first action opens it.
func New(machine *flow.Machine, services Services, store *session.Store, frontend string, log *slog.Logger) *Widget {
	if log == nil {
		log = slog.Default()
	}
	if store == nil {
		store = session.NewStore(nil, "", log)
	}

	return &Widget{
		machine:  machine,
		services: services,
		session:  store,
		frontend: frontend,
		now:      time.Now,
		log:      log,
	}
}

// Open resets the conversation to a single greeting.
func (w *Widget) Open(ctx context.Context) Snapshot {
	return w.handle(ctx, flow.Opened{})
}

// ScheduleMeeting is the "Schedule a meeting" action.
func (w *Widget) ScheduleMeeting(ctx context.Context) Snapshot {
	return w.handle(ctx, flow.ScheduleRequested{})
}

// Send submits a line of text.
func (w *Widget) Send(ctx context.Context, text string) Snapshot {
	return w.handle(ctx, flow.TextSubmitted{Text: text})
}

// ShowTimes re-fetches availability while a time is being chosen.
func (w *Widget) ShowTimes(ctx context.Context) Snapshot {
	return w.handle(ctx, flow.TimesRequested{})
}

// ChooseTime picks a displayed slot. A slot that is not on screen is a state error.
func (w *Widget) ChooseTime(ctx context.Context, iso string) (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.ensureOpenLocked(ctx)
	if !w.model.CanChoose(iso) {
		return w.snapshotLocked(ctx), errors.NewStateError("slot " + iso + " is not selectable in " + string(w.model.State))
	}

	w.dispatchLocked(ctx, flow.SlotChosen{ISO: iso})
	return w.snapshotLocked(ctx), nil
}

// Snapshot returns the current view state.
func (w *Widget) Snapshot(ctx context.Context) Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.snapshotLocked(ctx)
}

// State returns the current flow state.
func (w *Widget) State() flow.State {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.model.State
}

// LastActive returns when the widget last handled an action.
func (w *Widget) LastActive() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.lastActive
}

// SessionID returns the persisted session identifier.
func (w *Widget) SessionID(ctx context.Context) string {
	return w.session.GetOrCreate(ctx)
}

func (w *Widget) handle(ctx context.Context, ev flow.Event) Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, opening := ev.(flow.Opened); !opening {
		w.ensureOpenLocked(ctx)
	}

	w.dispatchLocked(ctx, ev)
	return w.snapshotLocked(ctx)
}

func (w *Widget) ensureOpenLocked(ctx context.Context) {
	if w.model.Epoch == 0 {
		w.dispatchLocked(ctx, flow.Opened{})
	}
}

func (w *Widget) dispatchLocked(ctx context.Context, ev flow.Event) {
	start := w.now()
	w.lastActive = start
	defer func() {
		metrics.RecordEvent(ev.Name(), w.frontend, time.Since(start))
	}()

	queue := []flow.Event{ev}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		next, effects, err := w.machine.Transition(w.model, current)
		if err != nil {
			w.reportError(ctx, errors.NewStateError(err.Error()))
			continue
		}
		w.model = next

		for _, effect := range effects {
			if done, ok := w.perform(ctx, effect); ok {
				queue = append(queue, done)
			}
		}
	}
}

func (w *Widget) perform(ctx context.Context, effect flow.Effect) (flow.Event, bool) {
	sessionID := w.session.GetOrCreate(ctx)

	switch e := effect.(type) {
	case flow.FetchAvailability:
		slots, err := w.services.Availability.Fetch(ctx, e.Days)
		if err != nil {
			w.reportError(ctx, err)
		}
		return flow.AvailabilityLoaded{Epoch: e.Epoch, Slots: slots, Err: err}, true

	case flow.SendMessage:
		reply, err := w.services.Chat.SendMessage(ctx, sessionID, e.Text)
		if err != nil {
			w.reportError(ctx, err)
		}
		return flow.ReplyReceived{Epoch: e.Epoch, Reply: reply, Err: err}, true

	case flow.SubmitBooking:
		res := w.services.Booking.Submit(ctx, e.Draft, e.StartISO, sessionID)
		if res.Err != nil {
			w.reportError(ctx, res.Err)
		}
		return flow.BookingFinished{Epoch: e.Epoch, Result: res}, true

	default:
		w.log.Error("unknown flow effect", slog.String("effect", fmt.Sprintf("%T", effect)))
		return nil, false
	}
}

func (w *Widget) reportError(ctx context.Context, err error) {
	if w.services.Errors != nil {
		w.services.Errors.Handle(ctx, err)
		return
	}
	w.log.Warn("widget effect failed", slog.String("frontend", w.frontend), slog.Any("error", err))
}

func (w *Widget) snapshotLocked(ctx context.Context) Snapshot {
	m := w.model
	return Snapshot{
		SessionID:    w.session.GetOrCreate(ctx),
		State:        m.State,
		Messages:     m.Transcript.Messages(),
		Slots:        m.Slots.Clone(),
		ShowingSlots: m.ShowingSlots(),
		PendingISO:   m.PendingISO,
		Placeholder:  w.machine.Placeholder(m.State),
		CanShowTimes: m.State == flow.StateChoosingTime && !m.ShowingSlots(),
		Transcript:   m.Transcript,
	}
}
