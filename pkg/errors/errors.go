package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies an application error and drives HTTP status mapping.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuthentication
	KindRateLimited
	KindUpstream
	KindReport
	KindNotFound
	KindInternal
)

// AppError is the single error type surfaced across service boundaries.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error

	// Rate-limit context, populated only for KindRateLimited so the
	// boundary can build a Retry-After hint.
	Limit  int
	Window time.Duration
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to its HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUpstream:
		return http.StatusServiceUnavailable
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func NewValidation(message string, err error) *AppError {
	return &AppError{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: message, Err: err}
}

func NewAuthentication(message string, err error) *AppError {
	return &AppError{Kind: KindAuthentication, Code: "AUTHENTICATION_ERROR", Message: message, Err: err}
}

func NewRateLimited(limit int, window time.Duration) *AppError {
	return &AppError{
		Kind:    KindRateLimited,
		Code:    "RATE_LIMIT_ERROR",
		Message: fmt.Sprintf("rate limit exceeded: maximum %d requests per %d seconds", limit, int(window.Seconds())),
		Limit:   limit,
		Window:  window,
	}
}

func NewUpstream(message string, err error) *AppError {
	return &AppError{Kind: KindUpstream, Code: "UPSTREAM_SERVICE_ERROR", Message: message, Err: err}
}

func NewReport(err error) *AppError {
	return &AppError{Kind: KindReport, Code: "REPORT_GENERATION_ERROR", Message: "report generation failed", Err: err}
}

func NewNotFound(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Code: "NOT_FOUND", Message: fmt.Sprintf("%s not found", resource)}
}

func NewInternal(err error) *AppError {
	return &AppError{Kind: KindInternal, Code: "INTERNAL_ERROR", Message: "internal server error", Err: err}
}

// AsAppError unwraps err to an *AppError, or wraps it as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternal(err)
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}
