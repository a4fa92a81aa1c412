// Package widgettest builds widgets over canned services for front end tests.
package widgettest

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Proton-105/aadee-assistant/internal/availability"
	"github.com/Proton-105/aadee-assistant/internal/booking"
	"github.com/Proton-105/aadee-assistant/internal/flow"
	"github.com/Proton-105/aadee-assistant/internal/i18n"
	"github.com/Proton-105/aadee-assistant/internal/session"
	"github.com/Proton-105/aadee-assistant/internal/widget"
)

// Slot is the single time offered by DefaultSlots.
const Slot = "2025-03-04T15:00:00Z"

// DefaultSlots offers Slot on Tuesday and one more time on Wednesday.
func DefaultSlots() availability.Grouped {
	return availability.Grouped{
		{Key: "2025-03-04", Slots: []string{Slot}},
		{Key: "2025-03-05", Slots: []string{"2025-03-05T10:00:00Z"}},
	}
}

// Stubs answers every widget effect with canned data and records what was asked.
type Stubs struct {
	mu              sync.Mutex
	Slots           availability.Grouped
	AvailabilityErr error
	Reply           string
	Result          booking.Result
	Messages        []string
	Drafts          []booking.Draft
}

// NewStubs returns stubs offering DefaultSlots and booking successfully.
func NewStubs() *Stubs {
	return &Stubs{
		Slots:  DefaultSlots(),
		Reply:  "We design logos and websites.",
		Result: booking.Result{Outcome: booking.OutcomeBooked, Link: "https://cal/x"},
	}
}

func (s *Stubs) Fetch(context.Context, int) (availability.Grouped, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Slots.Clone(), s.AvailabilityErr
}

func (s *Stubs) SendMessage(_ context.Context, _ string, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, text)
	return s.Reply, nil
}

func (s *Stubs) Submit(_ context.Context, draft booking.Draft, pendingISO, _ string) booking.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Drafts = append(s.Drafts, draft)
	res := s.Result
	res.StartISO = pendingISO
	return res
}

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Translator returns the embedded English catalog.
func Translator(t testing.TB) i18n.Translator {
	t.Helper()

	catalog, err := i18n.Load("en")
	require.NoError(t, err)
	return catalog.Translator("en")
}

// NewMachine builds an English machine formatting times in UTC.
func NewMachine(t testing.TB) *flow.Machine {
	t.Helper()

	return flow.NewMachine(flow.Config{
		Prompts:    flow.NewPrompts(Translator(t)),
		Location:   time.UTC,
		WindowDays: 14,
	}, Logger())
}

// NewRegistry returns a registry whose widgets all talk to stubs, each with its own in-memory
// session id.
func NewRegistry(t testing.TB, stubs *Stubs) *widget.Registry {
	t.Helper()

	machine := NewMachine(t)
	services := widget.Services{Availability: stubs, Chat: stubs, Booking: stubs}
	log := Logger()

	return widget.NewRegistry(func(profile string) *widget.Widget {
		store := session.NewStore(session.NewMemoryKV(), session.DefaultKey, log)
		return widget.New(machine, services, store, "test", log)
	}, log)
}
