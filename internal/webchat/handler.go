// Package webchat serves the scheduling widget to browsers over a WebSocket.
package webchat

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	errors "github.com/Proton-105/aadee-assistant/internal/errors"
	"github.com/Proton-105/aadee-assistant/internal/i18n"
	"github.com/Proton-105/aadee-assistant/internal/middleware"
	"github.com/Proton-105/aadee-assistant/internal/ratelimit"
	"github.com/Proton-105/aadee-assistant/internal/widget"
	"github.com/Proton-105/aadee-assistant/pkg/logger"
)

// Inbound frame types.
const (
	TypeOpen     = "open"
	TypeMessage  = "message"
	TypeSchedule = "schedule"
	TypeChoose   = "choose"
	TypeTimes    = "times"
	TypePing     = "ping"
)

// Outbound frame types.
const (
	TypeSession  = "session"
	TypeSnapshot = "snapshot"
	TypePong     = "pong"
	TypeError    = "error"
)

// ProfilePrefix namespaces browser sessions in the widget registry.
const ProfilePrefix = "web:"

// InboundMessage is what the browser sends.
type InboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	ISO  string `json:"iso,omitempty"`
}

// OutboundMessage is what the browser receives.
type OutboundMessage struct {
	Type      string           `json:"type"`
	SessionID string           `json:"session_id,omitempty"`
	Snapshot  *widget.Snapshot `json:"snapshot,omitempty"`
	Text      string           `json:"text,omitempty"`
}

// Handler manages browser connections. Each connection drives the widget registered under its
// session.
type Handler struct {
	registry *widget.Registry
	guard    *ratelimit.Guard
	tr       i18n.Translator
	errs     *errors.Handler
	origins  []string
	log      *slog.Logger
}

// Options configures NewHandler.
type Options struct {
	Registry       *widget.Registry
	Guard          *ratelimit.Guard
	Translator     i18n.Translator
	Errors         *errors.Handler
	AllowedOrigins []string
}

// NewHandler creates a web chat handler.
func NewHandler(opts Options, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}

	return &Handler{
		registry: opts.Registry,
		guard:    opts.Guard,
		tr:       opts.Translator,
		errs:     opts.Errors,
		origins:  slices.Clone(opts.AllowedOrigins),
		log:      log,
	}
}

// Router mounts the chat socket behind CORS, correlation ids and request logging.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(logger.Middleware)
	r.Use(middleware.Logging(h.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.allowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Correlation-ID"},
		MaxAge:         300,
	}))

	r.Get("/ws", h.HandleWebSocket)
	return r
}

// HandleWebSocket upgrades the request and runs the conversation until the browser leaves.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	server := websocket.Server{
		Handshake: h.handshake,
		Handler: func(conn *websocket.Conn) {
			h.serveWS(conn, r)
		},
	}
	server.ServeHTTP(w, r)
}

func (h *Handler) handshake(cfg *websocket.Config, r *http.Request) error {
	origin := r.Header.Get("Origin")
	if !h.originAllowed(origin) {
		h.log.Warn("websocket origin rejected", slog.String("origin", origin))
		return errors.New("origin not allowed")
	}

	cfg.Origin, _ = websocket.Origin(cfg, r)
	return nil
}

func (h *Handler) allowedOrigins() []string {
	if len(h.origins) == 0 {
		return []string{"*"}
	}
	return h.origins
}

func (h *Handler) originAllowed(origin string) bool {
	for _, allowed := range h.allowedOrigins() {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	log := h.log.With(slog.String("session", sessionID), slog.String("correlation_id", logger.CorrelationIDFromContext(ctx)))
	w := h.registry.Get(ctx, ProfilePrefix+sessionID)

	if err := websocket.JSON.Send(conn, OutboundMessage{Type: TypeSession, SessionID: sessionID}); err != nil {
		log.Debug("send session failed", slog.Any("error", err))
		return
	}
	// A reconnect resumes the conversation; the registry opens new sessions with the greeting.
	snap := w.Snapshot(ctx)
	if err := websocket.JSON.Send(conn, OutboundMessage{Type: TypeSnapshot, Snapshot: &snap}); err != nil {
		return
	}

	log.Info("web chat connected")
	defer log.Info("web chat disconnected")

	for {
		var in InboundMessage
		if err := websocket.JSON.Receive(conn, &in); err != nil {
			return
		}

		out := h.dispatch(ctx, sessionID, w, in)
		if err := websocket.JSON.Send(conn, out); err != nil {
			log.Debug("send failed", slog.Any("error", err))
			return
		}
	}
}

// dispatch applies one inbound frame to the widget and returns the reply frame.
func (h *Handler) dispatch(ctx context.Context, sessionID string, w *widget.Widget, in InboundMessage) OutboundMessage {
	if in.Type == TypePing {
		return OutboundMessage{Type: TypePong}
	}

	if err := h.guard.Allow(ctx, ProfilePrefix+sessionID); err != nil {
		return OutboundMessage{Type: TypeError, Text: middleware.RateLimitMessage(h.tr, err)}
	}

	var snap widget.Snapshot
	switch in.Type {
	case TypeOpen:
		snap = w.Open(ctx)
	case TypeMessage:
		snap = w.Send(ctx, in.Text)
	case TypeSchedule:
		snap = w.ScheduleMeeting(ctx)
	case TypeTimes:
		snap = w.ShowTimes(ctx)
	case TypeChoose:
		var err error
		snap, err = w.ChooseTime(ctx, in.ISO)
		if err != nil {
			return h.errorFrame(ctx, err)
		}
	default:
		return h.errorFrame(ctx, errors.NewValidationError("unknown frame type "+in.Type))
	}

	return OutboundMessage{Type: TypeSnapshot, Snapshot: &snap}
}

func (h *Handler) errorFrame(ctx context.Context, err error) OutboundMessage {
	if h.errs != nil {
		msg, _ := h.errs.Handle(ctx, err)
		return OutboundMessage{Type: TypeError, Text: msg}
	}

	var appErr *errors.AppError
	if errors.As(err, &appErr) && appErr.UserMessage != "" {
		return OutboundMessage{Type: TypeError, Text: appErr.UserMessage}
	}
	return OutboundMessage{Type: TypeError, Text: err.Error()}
}
