package backend

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errors "github.com/Proton-105/aadee-assistant/internal/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc, breaker bool) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Options{BaseURL: srv.URL + "/", BreakerEnabled: breaker}, testLogger())
}

func TestClient_Availability(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/chat/availability", r.URL.Path)
		assert.Equal(t, "14", r.URL.Query().Get("days"))
		_, _ = w.Write([]byte(`{"slots":["2025-03-04T15:00:00Z"],"grouped":{"2025-03-04":["2025-03-04T15:00:00Z"]}}`))
	}, false)

	resp, err := c.Availability(context.Background(), 14)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-04T15:00:00Z"}, resp.Slots)
	require.Len(t, resp.Grouped, 1)
	assert.Equal(t, "2025-03-04", resp.Grouped[0].Key)
}

func TestClient_AvailabilityServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}, false)

	_, err := c.Availability(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeExternalAPI))
}

func TestClient_SendMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/message", r.URL.Path)

		var req MessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, MessageRequest{SessionID: "sid", Text: "hello"}, req)

		_, _ = w.Write([]byte(`{"reply":"Hi there"}`))
	}, false)

	reply, err := c.SendMessage(context.Background(), "sid", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there", reply)
}

func TestClient_Book(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		body     string
		wantLink string
		wantErr  bool
	}{
		{name: "booked", status: http.StatusOK, body: `{"htmlLink":"https://cal/x"}`, wantLink: "https://cal/x"},
		{name: "rejected body", status: http.StatusOK, body: `{"detail":"slot taken"}`},
		{name: "rejected status", status: http.StatusConflict, body: `{"detail":"slot taken"}`},
		{name: "empty body", status: http.StatusOK, body: ``},
		{name: "garbage", status: http.StatusOK, body: `<html>`, wantErr: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}, false)

			resp, err := c.Book(context.Background(), BookRequest{SessionID: "sid", StartISO: "2025-03-04T15:00:00Z", Email: "a@b.com"})
			if tc.wantErr {
				assert.True(t, errors.HasCode(err, errors.CodeExternalAPI))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantLink, resp.HTMLLink)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestBookRequest_OmitsEmptyOptionalFields(t *testing.T) {
	data, err := json.Marshal(BookRequest{SessionID: "sid", StartISO: "2025-03-04T15:00:00Z", Email: "a@b.com"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"session_id":"sid","start_iso":"2025-03-04T15:00:00Z","email":"a@b.com"}`, string(data))
}

func TestBookResponse_Reason(t *testing.T) {
	assert.Equal(t, "slot taken", BookResponse{Detail: "slot taken"}.Reason())
	assert.Equal(t, "bad", BookResponse{Error: "bad"}.Reason())
	assert.Equal(t, "status 409", BookResponse{StatusCode: 409}.Reason())
	assert.Equal(t, "missing htmlLink", BookResponse{}.Reason())
}

func TestClient_BreakerOpensOnRepeatedFailures(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}, true)

	for i := 0; i < 20; i++ {
		_, _ = c.SendMessage(context.Background(), "sid", "hi")
	}

	_, err := c.SendMessage(context.Background(), "sid", "hi")
	assert.ErrorIs(t, err, errors.ErrCircuitOpen)
	assert.Less(t, calls, 21)
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(Options{BaseURL: srv.URL}, testLogger())

	_, err := c.Book(context.Background(), BookRequest{})
	assert.True(t, errors.HasCode(err, errors.CodeExternalAPI))
	assert.Error(t, c.Ping(context.Background()))
}

func TestClient_Timeout(t *testing.T) {
	assert.Equal(t, defaultTimeout, NewClient(Options{}, testLogger()).httpClient.Timeout)

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := NewClient(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, testLogger())

	start := time.Now()
	_, err := c.SendMessage(context.Background(), "sid", "hi")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeExternalAPI))
	assert.Less(t, time.Since(start), 5*time.Second)
}
