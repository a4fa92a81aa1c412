package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

const (
	CodeValidation      = "E100"
	CodeExternalAPI     = "E300"
	CodeBookingRejected = "E310"
	CodeState           = "E400"
	CodeRateLimit       = "E500"
	CodeInternal        = "E900"
)

type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	// RetryAfter is set in seconds on rate limit errors.
	RetryAfter  int
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        CodeValidation,
		Message:     msg,
		UserMessage: fmt.Sprintf("Invalid input. %s", msg),
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

// NewExternalAPIError marks a backend endpoint as unreachable: transport failure,
// unexpected status or an undecodable body.
func NewExternalAPIError(apiName string, cause error) *AppError {
	return &AppError{
		Code:        CodeExternalAPI,
		Message:     fmt.Sprintf("external API error: %s", apiName),
		UserMessage: "The service is temporarily unavailable. Please try again.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewBookingRejectedError reports a booking response that arrived but carried no calendar link.
func NewBookingRejectedError(reason string) *AppError {
	msg := "booking rejected"
	if reason != "" {
		msg = fmt.Sprintf("booking rejected: %s", reason)
	}

	return &AppError{
		Code:        CodeBookingRejected,
		Message:     msg,
		UserMessage: "That time could not be booked. Please try another time.",
		Severity:    SeverityMedium,
		Retryable:   true,
	}
}

func NewStateError(msg string) *AppError {
	return &AppError{
		Code:        CodeState,
		Message:     msg,
		UserMessage: "That action is not available right now.",
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        CodeRateLimit,
		Message:     fmt.Sprintf("rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("Too many messages. Please wait %d seconds.", retryAfter),
		Severity:    SeverityLow,
		Retryable:   false,
		RetryAfter:  retryAfter,
	}
}

// NewInternalError wraps failures that are bugs rather than user or backend problems.
func NewInternalError(cause error) *AppError {
	return &AppError{
		Code:        CodeInternal,
		Message:     "internal error",
		UserMessage: "⚠️ Something went wrong. Please try again later.",
		Severity:    SeverityCritical,
		Retryable:   false,
		cause:       cause,
	}
}

// HasCode reports whether err is an AppError carrying the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if As(err, &appErr) && appErr != nil {
		return appErr.Code == code
	}

	return false
}
