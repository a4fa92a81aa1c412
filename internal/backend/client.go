// Package backend talks to the scheduling backend's chat, availability and booking endpoints.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Proton-105/aadee-assistant/internal/availability"
	errors "github.com/Proton-105/aadee-assistant/internal/errors"
	"github.com/Proton-105/aadee-assistant/pkg/metrics"
)

const (
	defaultTimeout = 10 * time.Second

	EndpointAvailability = "availability"
	EndpointMessage      = "message"
	EndpointBook         = "book"

	availabilityPath = "/api/chat/availability"
	messagePath      = "/api/chat/message"
	bookPath         = "/api/chat/book"
)

var tracer = otel.Tracer("aadee.internal.backend")

// Options configures the client.
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	BreakerEnabled bool
	HTTPClient     *http.Client
}

// Client calls the backend. Each endpoint has its own circuit breaker when enabled.
type Client struct {
	httpClient *http.Client
	baseURL    string
	breakers   map[string]*errors.CircuitBreaker
	log        *slog.Logger
}

// NewClient constructs a backend client.
func NewClient(opts Options, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		breakers:   make(map[string]*errors.CircuitBreaker),
		log:        log,
	}

	if opts.BreakerEnabled {
		for _, endpoint := range []string{EndpointAvailability, EndpointMessage, EndpointBook} {
			c.breakers[endpoint] = errors.NewCircuitBreaker(errors.BreakerSettings{
				Name: endpoint,
				OnStateChange: func(name string, from, to errors.State) {
					metrics.RecordBreakerChange(name, to.String())
					log.Warn("backend circuit breaker state changed",
						slog.String("endpoint", name),
						slog.String("from", from.String()),
						slog.String("to", to.String()),
					)
				},
			})
		}
	}

	return c
}

// Availability implements availability.Source.
func (c *Client) Availability(ctx context.Context, days int) (availability.Response, error) {
	q := url.Values{}
	q.Set("days", strconv.Itoa(days))

	var resp availability.Response
	if _, err := c.call(ctx, EndpointAvailability, http.MethodGet, availabilityPath+"?"+q.Encode(), nil, &resp, false); err != nil {
		return availability.Response{}, err
	}

	return resp, nil
}

// SendMessage forwards free text to the chat endpoint and returns the reply, which may be empty.
func (c *Client) SendMessage(ctx context.Context, sessionID, text string) (string, error) {
	var resp MessageResponse
	if _, err := c.call(ctx, EndpointMessage, http.MethodPost, messagePath, MessageRequest{SessionID: sessionID, Text: text}, &resp, false); err != nil {
		return "", err
	}

	return resp.Reply, nil
}

// Book submits a booking. Any HTTP response is decoded and returned; only transport and decoding
// failures are errors.
func (c *Client) Book(ctx context.Context, req BookRequest) (BookResponse, error) {
	var resp BookResponse
	status, err := c.call(ctx, EndpointBook, http.MethodPost, bookPath, req, &resp, true)
	if err != nil {
		return BookResponse{}, err
	}

	resp.StatusCode = status
	return resp, nil
}

// Ping reports whether the backend answers HTTP at all.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("backend returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) call(ctx context.Context, endpoint, method, path string, body, out any, anyStatus bool) (int, error) {
	ctx, span := tracer.Start(ctx, "backend."+endpoint)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("aadee.endpoint", endpoint),
	)

	var status int
	fn := func() error {
		var err error
		status, err = c.doJSON(ctx, endpoint, method, path, body, out, anyStatus)
		return err
	}

	var err error
	if cb, ok := c.breakers[endpoint]; ok {
		err = cb.Call(fn)
	} else {
		err = fn()
	}

	span.SetAttributes(attribute.Int("http.status_code", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return status, errors.NewExternalAPIError("chat."+endpoint, err)
	}

	return status, nil
}

func (c *Client) doJSON(ctx context.Context, endpoint, method, path string, body, out any, anyStatus bool) (int, error) {
	start := time.Now()
	status := 0
	defer func() {
		label := "error"
		if status != 0 {
			label = strconv.Itoa(status)
		}
		metrics.RecordBackendRequest(endpoint, label, time.Since(start))
	}()

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return status, fmt.Errorf("read response: %w", err)
	}

	if !anyStatus && (status < 200 || status > 299) {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		c.log.Warn("backend non-2xx response", slog.Int("status", status), slog.String("path", path), slog.String("body", msg))
		return status, fmt.Errorf("backend returned %d: %s", status, msg)
	}
	if status >= http.StatusInternalServerError {
		c.log.Warn("backend server error", slog.Int("status", status), slog.String("path", path))
	}

	if len(bytes.TrimSpace(respBody)) == 0 || out == nil {
		return status, nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return status, fmt.Errorf("decode response: %w", err)
	}

	return status, nil
}
