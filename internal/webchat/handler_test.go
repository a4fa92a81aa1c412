package webchat

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/Proton-105/aadee-assistant/internal/flow"
	"github.com/Proton-105/aadee-assistant/internal/ratelimit"
	"github.com/Proton-105/aadee-assistant/internal/widget"
	"github.com/Proton-105/aadee-assistant/internal/widget/widgettest"
	"github.com/Proton-105/aadee-assistant/pkg/config"
)

type client struct {
	t    *testing.T
	conn *websocket.Conn
}

func newServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()

	if opts.Registry == nil {
		opts.Registry = widgettest.NewRegistry(t, widgettest.NewStubs())
	}
	if opts.Translator == nil {
		opts.Translator = widgettest.Translator(t)
	}

	srv := httptest.NewServer(NewHandler(opts, widgettest.Logger()).Router())
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, session, origin string) (*client, error) {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if session != "" {
		url += "?session=" + session
	}

	conn, err := websocket.Dial(url, "", origin)
	if err != nil {
		return nil, err
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &client{t: t, conn: conn}, nil
}

func connect(t *testing.T, srv *httptest.Server, session string) *client {
	t.Helper()

	c, err := dial(t, srv, session, "http://localhost/")
	require.NoError(t, err)
	return c
}

func (c *client) receive() OutboundMessage {
	c.t.Helper()

	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var out OutboundMessage
	require.NoError(c.t, websocket.JSON.Receive(c.conn, &out))
	return out
}

func (c *client) send(in InboundMessage) OutboundMessage {
	c.t.Helper()

	require.NoError(c.t, websocket.JSON.Send(c.conn, in))
	return c.receive()
}

func (c *client) snapshot(in InboundMessage) widget.Snapshot {
	c.t.Helper()

	out := c.send(in)
	require.Equal(c.t, TypeSnapshot, out.Type, out.Text)
	require.NotNil(c.t, out.Snapshot)
	return *out.Snapshot
}

// handshake reads the session and initial snapshot frames sent on connect.
func (c *client) handshake() (string, widget.Snapshot) {
	c.t.Helper()

	session := c.receive()
	require.Equal(c.t, TypeSession, session.Type)
	snap := c.receive()
	require.Equal(c.t, TypeSnapshot, snap.Type)
	require.NotNil(c.t, snap.Snapshot)
	return session.SessionID, *snap.Snapshot
}

func lastContent(snap widget.Snapshot) string {
	if len(snap.Messages) == 0 {
		return ""
	}
	return snap.Messages[len(snap.Messages)-1].Content
}

func TestWebChat_BookingConversation(t *testing.T) {
	stubs := widgettest.NewStubs()
	srv := newServer(t, Options{Registry: widgettest.NewRegistry(t, stubs)})
	c := connect(t, srv, "abc")

	session, snap := c.handshake()
	assert.Equal(t, "abc", session)
	assert.Equal(t, flow.StateIdle, snap.State)
	assert.Equal(t, "Hi! How can I help you?", lastContent(snap))

	snap = c.snapshot(InboundMessage{Type: TypeSchedule})
	assert.Equal(t, flow.StateAskPurpose, snap.State)

	snap = c.snapshot(InboundMessage{Type: TypeMessage, Text: "logo design help"})
	assert.Equal(t, flow.StateChoosingTime, snap.State)
	assert.True(t, snap.ShowingSlots)
	assert.True(t, snap.Slots.Contains(widgettest.Slot))

	snap = c.snapshot(InboundMessage{Type: TypeChoose, ISO: widgettest.Slot})
	assert.Equal(t, flow.StateAskEmail, snap.State)
	assert.Equal(t, widgettest.Slot, snap.PendingISO)

	for _, answer := range []string{"a@b.com", "Jane", "skip"} {
		snap = c.snapshot(InboundMessage{Type: TypeMessage, Text: answer})
	}

	assert.Equal(t, flow.StateIdle, snap.State)
	assert.Contains(t, lastContent(snap), "https://cal/x")
	require.Len(t, stubs.Drafts, 1)
	assert.Equal(t, "a@b.com", stubs.Drafts[0].Email)
}

func TestWebChat_Frames(t *testing.T) {
	testCases := []struct {
		name     string
		in       InboundMessage
		wantType string
		wantText string
	}{
		{name: "ping", in: InboundMessage{Type: TypePing}, wantType: TypePong},
		{
			name:     "slot not on screen",
			in:       InboundMessage{Type: TypeChoose, ISO: widgettest.Slot},
			wantType: TypeError,
			wantText: "That action is not available right now.",
		},
		{
			name:     "unknown frame",
			in:       InboundMessage{Type: "dance"},
			wantType: TypeError,
			wantText: "Invalid input. unknown frame type dance",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			c := connect(t, newServer(t, Options{}), "frames")
			c.handshake()

			out := c.send(tc.in)

			assert.Equal(t, tc.wantType, out.Type)
			assert.Equal(t, tc.wantText, out.Text)
			assert.Nil(t, out.Snapshot)
		})
	}
}

func TestWebChat_ReconnectResumes(t *testing.T) {
	srv := newServer(t, Options{})

	first := connect(t, srv, "resume")
	first.handshake()
	first.snapshot(InboundMessage{Type: TypeSchedule})
	require.NoError(t, first.conn.Close())

	second := connect(t, srv, "resume")
	_, snap := second.handshake()
	assert.Equal(t, flow.StateAskPurpose, snap.State)

	snap = second.snapshot(InboundMessage{Type: TypeOpen})
	assert.Equal(t, flow.StateIdle, snap.State)
	assert.Len(t, snap.Messages, 1)
}

func TestWebChat_GeneratesSession(t *testing.T) {
	c := connect(t, newServer(t, Options{}), "")

	session, _ := c.handshake()
	assert.Len(t, session, 36)
}

func TestWebChat_RateLimited(t *testing.T) {
	guard := ratelimit.NewGuard(ratelimit.NewMemoryLimiter(widgettest.Logger()), config.RateLimitConfig{
		Enabled: true,
		PerUser: config.RateLimitRule{Limit: 1, Window: time.Minute},
	}, widgettest.Logger())
	c := connect(t, newServer(t, Options{Guard: guard}), "busy")
	c.handshake()

	c.snapshot(InboundMessage{Type: TypeSchedule})
	out := c.send(InboundMessage{Type: TypeMessage, Text: "again"})

	assert.Equal(t, TypeError, out.Type)
	assert.Contains(t, out.Text, "Too many messages. Please wait")
	assert.Equal(t, TypePong, c.send(InboundMessage{Type: TypePing}).Type)
}

func TestWebChat_RejectsUnknownOrigin(t *testing.T) {
	srv := newServer(t, Options{AllowedOrigins: []string{"https://aadee.example"}})

	_, err := dial(t, srv, "x", "https://evil.example")
	assert.Error(t, err)

	c, err := dial(t, srv, "x", "https://aadee.example")
	require.NoError(t, err)
	session, _ := c.handshake()
	assert.Equal(t, "x", session)
}
