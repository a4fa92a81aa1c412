// Package booking packages a collected draft into a booking request and interprets the answer.
package booking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Proton-105/aadee-assistant/internal/backend"
	errors "github.com/Proton-105/aadee-assistant/internal/errors"
	"github.com/Proton-105/aadee-assistant/internal/idempotency"
	"github.com/Proton-105/aadee-assistant/pkg/metrics"
)

const defaultReplayTTL = 24 * time.Hour

// Draft accumulates the fields collected during the conversation.
type Draft struct {
	Purpose string `json:"purpose"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
}

// IsZero reports whether nothing has been collected.
func (d Draft) IsZero() bool {
	return d == Draft{}
}

// Outcome classifies a submission.
type Outcome string

const (
	OutcomeBooked      Outcome = "booked"
	OutcomeRejected    Outcome = "rejected"
	OutcomeUnreachable Outcome = "unreachable"
)

// Result is what the flow needs to continue after a submission.
type Result struct {
	Outcome  Outcome
	Link     string
	StartISO string
	Err      error
}

// Booker is the booking endpoint.
type Booker interface {
	Book(ctx context.Context, req backend.BookRequest) (backend.BookResponse, error)
}

// NewRequest builds the request body. Optional fields stay empty and are omitted on the wire.
func NewRequest(draft Draft, pendingISO, sessionID string) backend.BookRequest {
	return backend.BookRequest{
		SessionID: sessionID,
		StartISO:  pendingISO,
		Email:     strings.TrimSpace(draft.Email),
		Name:      strings.TrimSpace(draft.Name),
		Phone:     strings.TrimSpace(draft.Phone),
		Purpose:   strings.TrimSpace(draft.Purpose),
	}
}

// Submitter sends bookings. Only a resubmission of the identical request replays the earlier
// confirmation; any changed field is booked again.
type Submitter struct {
	booker    Booker
	idem      idempotency.Manager
	replayTTL time.Duration
	log       *slog.Logger
}

// NewSubmitter creates a Submitter. idem may be nil to disable de-duplication.
func NewSubmitter(booker Booker, idem idempotency.Manager, log *slog.Logger) *Submitter {
	if log == nil {
		log = slog.Default()
	}

	return &Submitter{booker: booker, idem: idem, replayTTL: defaultReplayTTL, log: log}
}

type rejection struct {
	resp backend.BookResponse
}

func (r *rejection) Error() string {
	return "booking rejected: " + r.resp.Reason()
}

// Submit books pendingISO for the draft. It never returns an error directly; failures are
// reported through Result.Outcome and Result.Err.
func (s *Submitter) Submit(ctx context.Context, draft Draft, pendingISO, sessionID string) Result {
	req := NewRequest(draft, pendingISO, sessionID)
	result := s.submit(ctx, req)
	result.StartISO = pendingISO

	metrics.RecordBooking(string(result.Outcome))

	attrs := []any{
		slog.String("session_id", sessionID),
		slog.String("start_iso", pendingISO),
		slog.String("email", req.Email),
		slog.String("outcome", string(result.Outcome)),
	}
	switch result.Outcome {
	case OutcomeBooked:
		s.log.Info("booking confirmed", attrs...)
	case OutcomeRejected:
		s.log.Warn("booking rejected", append(attrs, slog.Any("error", result.Err))...)
	default:
		s.log.Error("booking unreachable", append(attrs, slog.Any("error", result.Err))...)
	}

	return result
}

func (s *Submitter) submit(ctx context.Context, req backend.BookRequest) Result {
	if req.StartISO == "" {
		return Result{Outcome: OutcomeRejected, Err: errors.NewValidationError("no time selected")}
	}
	if req.Email == "" {
		return Result{Outcome: OutcomeRejected, Err: errors.NewValidationError("email is required")}
	}

	book := func(ctx context.Context) (any, error) {
		resp, err := s.booker.Book(ctx, req)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(resp.HTMLLink) == "" {
			return nil, &rejection{resp: resp}
		}
		return resp, nil
	}

	var (
		resp backend.BookResponse
		err  error
	)

	if s.idem == nil {
		var out any
		out, err = book(ctx)
		if err == nil {
			resp = out.(backend.BookResponse)
		}
	} else {
		key := idempotency.GenerateKey("booking", req.SessionID, req.StartISO, req.Email, req.Name, req.Phone, req.Purpose)
		var res *idempotency.Result
		res, err = s.idem.Execute(ctx, key, s.replayTTL, book)
		if err == nil {
			err = res.Decode(&resp)
			if res.FromCache {
				s.log.Info("replaying earlier booking confirmation", slog.String("start_iso", req.StartISO))
			}
		}
	}

	var rejected *rejection
	switch {
	case err == nil:
		return Result{Outcome: OutcomeBooked, Link: resp.HTMLLink}
	case errors.As(err, &rejected):
		return Result{Outcome: OutcomeRejected, Err: errors.NewBookingRejectedError(rejected.resp.Reason())}
	case errors.Is(err, idempotency.ErrRequestInProgress):
		return Result{Outcome: OutcomeUnreachable, Err: errors.NewExternalAPIError("chat.book", err)}
	default:
		var appErr *errors.AppError
		if !errors.As(err, &appErr) {
			err = errors.NewExternalAPIError("chat.book", err)
		}
		return Result{Outcome: OutcomeUnreachable, Err: err}
	}
}
