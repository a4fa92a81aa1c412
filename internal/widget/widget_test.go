package widget

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/aadee-assistant/internal/availability"
	"github.com/Proton-105/aadee-assistant/internal/backend"
	"github.com/Proton-105/aadee-assistant/internal/booking"
	errors "github.com/Proton-105/aadee-assistant/internal/errors"
	"github.com/Proton-105/aadee-assistant/internal/flow"
	"github.com/Proton-105/aadee-assistant/internal/i18n"
	"github.com/Proton-105/aadee-assistant/internal/idempotency"
	"github.com/Proton-105/aadee-assistant/internal/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeBackend mimics the three chat endpoints and records booking bodies.
type fakeBackend struct {
	mu       sync.Mutex
	slots    []string
	bookLink string
	bookings []map[string]any
	messages []backend.MessageRequest
	reply    string
}

func (f *fakeBackend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/availability", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"slots": f.slots})
	})
	mux.HandleFunc("/api/chat/message", func(w http.ResponseWriter, r *http.Request) {
		var req backend.MessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.mu.Lock()
		f.messages = append(f.messages, req)
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"reply": f.reply})
	})
	mux.HandleFunc("/api/chat/book", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.bookings = append(f.bookings, body)
		f.mu.Unlock()
		if f.bookLink == "" {
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "calendar conflict"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"htmlLink": f.bookLink})
	})
	return mux
}

func newTestWidget(t *testing.T, fb *fakeBackend, kv session.KV) *Widget {
	t.Helper()

	srv := httptest.NewServer(fb.handler(t))
	t.Cleanup(srv.Close)

	log := testLogger()
	client := backend.NewClient(backend.Options{BaseURL: srv.URL}, log)

	catalog, err := i18n.Load("en")
	require.NoError(t, err)

	machine := flow.NewMachine(flow.Config{
		Prompts:    flow.NewPrompts(catalog.Translator("en")),
		Location:   time.UTC,
		WindowDays: 14,
	}, log)

	grouper := availability.NewGrouper(client, time.UTC, log).
		WithClock(func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) })

	services := Services{
		Availability: grouper,
		Chat:         client,
		Booking:      booking.NewSubmitter(client, idempotency.NewManager(idempotency.NewMemoryStore(), log), log),
		Errors:       errors.NewHandler(log, false),
	}

	return New(machine, services, session.NewStore(kv, session.DefaultKey, log), "test", log)
}

func TestWidget_BookingScenario(t *testing.T) {
	fb := &fakeBackend{
		slots:    []string{"2025-03-04T15:00:00Z", "2025-02-27T15:00:00Z", "2025-03-05T10:00:00Z"},
		bookLink: "https://cal/x",
	}
	kv := session.NewMemoryKV()
	w := newTestWidget(t, fb, kv)
	ctx := context.Background()

	snap := w.Open(ctx)
	assert.Equal(t, flow.StateIdle, snap.State)

	snap = w.ScheduleMeeting(ctx)
	assert.Equal(t, flow.StateAskPurpose, snap.State)
	assert.Equal(t, "Briefly describe the purpose…", snap.Placeholder)

	snap = w.Send(ctx, "logo design help")
	require.Equal(t, flow.StateChoosingTime, snap.State)
	require.True(t, snap.ShowingSlots)
	assert.Equal(t, []string{"2025-03-04", "2025-03-05"}, []string{snap.Slots[0].Key, snap.Slots[1].Key})

	snap, err := w.ChooseTime(ctx, "2025-03-04T15:00:00Z")
	require.NoError(t, err)
	assert.False(t, snap.ShowingSlots)

	w.Send(ctx, "a@b.com")
	w.Send(ctx, "Jane")
	snap = w.Send(ctx, "skip")

	assert.Equal(t, flow.StateIdle, snap.State)
	last := snap.Messages[len(snap.Messages)-1]
	assert.Contains(t, last.Content, "Tue, Mar 4, 3:00 PM")
	assert.Contains(t, last.Content, "https://cal/x")

	sessionID, err := kv.Get(ctx, session.DefaultKey)
	require.NoError(t, err)

	require.Len(t, fb.bookings, 1)
	assert.Equal(t, map[string]any{
		"session_id": sessionID,
		"start_iso":  "2025-03-04T15:00:00Z",
		"email":      "a@b.com",
		"name":       "Jane",
		"purpose":    "logo design help",
	}, fb.bookings[0])
}

func TestWidget_RebookingSameSlotSendsNewDetails(t *testing.T) {
	fb := &fakeBackend{slots: []string{"2025-03-04T15:00:00Z"}, bookLink: "https://cal/x"}
	w := newTestWidget(t, fb, session.NewMemoryKV())
	ctx := context.Background()

	for _, answers := range [][]string{
		{"logo design", "a@b.com", "Jane"},
		{"website rebuild", "a@b.com", "Bob"},
	} {
		w.Open(ctx)
		w.ScheduleMeeting(ctx)
		w.Send(ctx, answers[0])
		_, err := w.ChooseTime(ctx, "2025-03-04T15:00:00Z")
		require.NoError(t, err)
		w.Send(ctx, answers[1])
		w.Send(ctx, answers[2])
		snap := w.Send(ctx, "skip")
		require.Equal(t, flow.StateIdle, snap.State)
	}

	require.Len(t, fb.bookings, 2)
	assert.Equal(t, "Jane", fb.bookings[0]["name"])
	assert.Equal(t, "Bob", fb.bookings[1]["name"])
	assert.Equal(t, "website rebuild", fb.bookings[1]["purpose"])
}

func TestWidget_FailedBookingReturnsToChoosing(t *testing.T) {
	fb := &fakeBackend{slots: []string{"2025-03-04T15:00:00Z"}}
	w := newTestWidget(t, fb, nil)
	ctx := context.Background()

	w.ScheduleMeeting(ctx)
	w.Send(ctx, "intro")
	_, err := w.ChooseTime(ctx, "2025-03-04T15:00:00Z")
	require.NoError(t, err)
	w.Send(ctx, "a@b.com")
	w.Send(ctx, "Jane")
	snap := w.Send(ctx, "555")

	assert.Equal(t, flow.StateChoosingTime, snap.State)
	assert.Empty(t, snap.PendingISO)
	assert.True(t, snap.CanShowTimes)
	assert.Equal(t, "Booking failed. Please try another time.", snap.Messages[len(snap.Messages)-1].Content)

	snap = w.ShowTimes(ctx)
	assert.True(t, snap.ShowingSlots)

	fb.bookLink = "https://cal/y"
	_, err = w.ChooseTime(ctx, "2025-03-04T15:00:00Z")
	require.NoError(t, err)
	snap = w.Snapshot(ctx)
	assert.Equal(t, flow.StateAskEmail, snap.State)

	// The details are collected again, so the retry can correct any of them.
	w.Send(ctx, "c@d.com")
	w.Send(ctx, "Jane")
	snap = w.Send(ctx, "skip")
	assert.Equal(t, flow.StateIdle, snap.State)
	require.Len(t, fb.bookings, 2)
	assert.Equal(t, "c@d.com", fb.bookings[1]["email"])
	assert.NotContains(t, fb.bookings[1], "phone")
}

func TestWidget_ChooseUnknownSlot(t *testing.T) {
	w := newTestWidget(t, &fakeBackend{}, nil)

	snap, err := w.ChooseTime(context.Background(), "2025-03-04T15:00:00Z")

	assert.True(t, errors.HasCode(err, errors.CodeState))
	assert.Equal(t, flow.StateIdle, snap.State)
	assert.Len(t, snap.Messages, 1)
}

func TestWidget_FreeChat(t *testing.T) {
	fb := &fakeBackend{reply: ""}
	w := newTestWidget(t, fb, nil)
	ctx := context.Background()

	snap := w.Send(ctx, "what services do you offer?")

	require.Len(t, snap.Messages, 3)
	assert.Equal(t, "Thanks!", snap.Messages[2].Content)
	require.Len(t, fb.messages, 1)
	assert.Equal(t, snap.SessionID, fb.messages[0].SessionID)
	assert.Equal(t, "what services do you offer?", fb.messages[0].Text)
}

func TestWidget_ReopenClearsConversation(t *testing.T) {
	w := newTestWidget(t, &fakeBackend{slots: []string{"2025-03-04T15:00:00Z"}}, nil)
	ctx := context.Background()

	w.ScheduleMeeting(ctx)
	w.Send(ctx, "intro")
	sid := w.SessionID(ctx)

	w.Open(ctx)
	snap := w.Open(ctx)

	assert.Equal(t, flow.StateIdle, snap.State)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "Hi! How can I help you?", snap.Messages[0].Content)
	assert.Empty(t, snap.Slots)
	assert.Equal(t, sid, snap.SessionID)
}

func TestWidget_SnapshotJSON(t *testing.T) {
	w := newTestWidget(t, &fakeBackend{}, nil)

	data, err := json.Marshal(w.Open(context.Background()))
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(data), `"state":"IDLE"`))
	assert.True(t, strings.Contains(string(data), `"slots":{}`))
}

func TestRegistry(t *testing.T) {
	fb := &fakeBackend{}
	created := 0
	reg := NewRegistry(func(profile string) *Widget {
		created++
		return newTestWidget(t, fb, nil)
	}, testLogger())
	ctx := context.Background()

	a := reg.Get(ctx, "a")
	assert.Same(t, a, reg.Get(ctx, "a"))
	reg.Get(ctx, "b").ScheduleMeeting(ctx)

	assert.Equal(t, 2, created)
	assert.Equal(t, map[string]int{"IDLE": 1, "ASK_PURPOSE": 1}, reg.CountByState())

	assert.Equal(t, 0, reg.EvictIdle(time.Now(), time.Hour))
	assert.Equal(t, 2, reg.EvictIdle(time.Now().Add(2*time.Hour), time.Hour))
	assert.Equal(t, 0, reg.Len())

	reg.Get(ctx, "c")
	reg.Remove("c")
	assert.Equal(t, 0, reg.Len())

	w, fresh := reg.Acquire(ctx, "d")
	assert.True(t, fresh)
	assert.Equal(t, flow.StateIdle, w.State())
	again, fresh := reg.Acquire(ctx, "d")
	assert.False(t, fresh)
	assert.Same(t, w, again)
}
