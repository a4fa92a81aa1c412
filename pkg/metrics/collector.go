package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	widgetEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "widget_events_total",
			Help: "Total number of widget events processed labeled by event and front end",
		},
		[]string{"event", "frontend"},
	)
	eventDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "widget_event_duration_seconds",
			Help:    "Duration of widget event processing including backend calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"event"},
	)
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_state_transitions_total",
			Help: "Total number of scheduling flow state transitions",
		},
		[]string{"from", "to"},
	)
	backendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_requests_total",
			Help: "Total number of backend API requests labeled by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)
	backendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Backend API request latency distributions",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
	bookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_total",
			Help: "Total number of booking submissions labeled by outcome",
		},
		[]string{"outcome"},
	)
	breakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_circuit_state_changes_total",
			Help: "Circuit breaker state changes per backend endpoint",
		},
		[]string{"endpoint", "to"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by code and severity",
		},
		[]string{"code", "severity"},
	)
	botUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Total number of Telegram updates handled labeled by action and status",
		},
		[]string{"action", "status"},
	)
	botUpdateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_update_duration_seconds",
			Help:    "Telegram update handling latency distributions",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served labeled by method, route and status",
		},
		[]string{"method", "route", "status"},
	)
	activeWidgets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_widgets",
			Help: "Current number of open widgets",
		},
	)
	widgetsByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "widgets_by_state",
			Help: "Number of open widgets per flow state",
		},
		[]string{"state"},
	)
)

// RecordEvent counts a processed widget event and its duration.
func RecordEvent(event, frontend string, duration time.Duration) {
	if event == "" {
		event = "unknown"
	}
	if frontend == "" {
		frontend = "unknown"
	}

	widgetEventsTotal.WithLabelValues(event, frontend).Inc()
	eventDurationSeconds.WithLabelValues(event).Observe(duration.Seconds())
}

// RecordStateTransition tracks flow transitions.
func RecordStateTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	stateTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordBotUpdate counts a handled Telegram update and its duration.
func RecordBotUpdate(action, status string, duration time.Duration) {
	if action == "" {
		action = "unknown"
	}

	botUpdatesTotal.WithLabelValues(action, status).Inc()
	botUpdateDuration.WithLabelValues(action).Observe(duration.Seconds())
}

// RecordHTTPRequest counts a served HTTP request.
func RecordHTTPRequest(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}

	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// RecordBackendRequest counts a backend call; status is an HTTP code or "error".
func RecordBackendRequest(endpoint, status string, duration time.Duration) {
	backendRequestsTotal.WithLabelValues(endpoint, status).Inc()
	backendRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordBooking counts booking outcomes (booked, rejected, unreachable).
func RecordBooking(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}

	bookingsTotal.WithLabelValues(outcome).Inc()
}

// RecordBreakerChange counts circuit breaker transitions.
func RecordBreakerChange(endpoint, to string) {
	breakerStateChanges.WithLabelValues(endpoint, to).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(code, severity string) {
	if code == "" {
		code = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(code, severity).Inc()
}

// StateCounter reports how many open widgets sit in each flow state.
type StateCounter interface {
	CountByState() map[string]int
}

// StateCollector periodically gathers widget state counts and emits gauge metrics.
type StateCollector struct {
	source   StateCounter
	interval time.Duration
}

// NewStateCollector builds a metrics collector bound to the provided source.
func NewStateCollector(source StateCounter, interval time.Duration) *StateCollector {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return &StateCollector{source: source, interval: interval}
}

// Run polls the source until ctx is cancelled.
func (c *StateCollector) Run(ctx context.Context) {
	if c == nil || c.source == nil {
		return
	}

	for {
		c.collect()

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.interval):
		}
	}
}

func (c *StateCollector) collect() {
	counts := c.source.CountByState()

	total := 0
	widgetsByState.Reset()
	for state, count := range counts {
		if state == "" {
			state = "unknown"
		}
		widgetsByState.WithLabelValues(state).Set(float64(count))
		total += count
	}

	activeWidgets.Set(float64(total))
}
