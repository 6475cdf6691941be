package util

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/media-service/internal/validation"
)

// Code identifies a stable, client-facing error category.
type Code string

const (
	CodeUnauthorized         Code = "UNAUTHORIZED"
	CodeUnauthenticated      Code = "UNAUTHENTICATED"
	CodeForbidden            Code = "FORBIDDEN"
	CodeSubscriptionRequired Code = "SUBSCRIPTION_REQUIRED"
	CodeNotFound             Code = "NOT_FOUND"
	CodeConflict             Code = "CONFLICT"
	CodeValidationError      Code = "VALIDATION_ERROR"
	CodeRateLimited          Code = "RATE_LIMITED"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"
	CodePaymentFailed        Code = "PAYMENT_FAILED"
	CodeCheckoutFailed       Code = "CHECKOUT_FAILED"
	CodeInternalError        Code = "INTERNAL_ERROR"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeNetworkError         Code = "NETWORK_ERROR"
)

// statusByCode is the fixed code → HTTP status table. Clients key retry and
// redirect behavior on these values, so the mapping must never drift.
var statusByCode = map[Code]int{
	CodeUnauthorized:         http.StatusUnauthorized,
	CodeUnauthenticated:      http.StatusUnauthorized,
	CodeForbidden:            http.StatusForbidden,
	CodeSubscriptionRequired: http.StatusForbidden,
	CodeNotFound:             http.StatusNotFound,
	CodeConflict:             http.StatusConflict,
	CodeValidationError:      http.StatusUnprocessableEntity,
	CodeRateLimited:          http.StatusTooManyRequests,
	CodeRateLimitExceeded:    http.StatusTooManyRequests,
	CodePaymentFailed:        http.StatusPaymentRequired,
	CodeCheckoutFailed:       http.StatusInternalServerError,
	CodeInternalError:        http.StatusInternalServerError,
	CodeServiceUnavailable:   http.StatusServiceUnavailable,
	CodeNetworkError:         http.StatusServiceUnavailable,
}

// HTTPStatus returns the status paired with the code.
func (c Code) HTTPStatus() int {
	if status, ok := statusByCode[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// AppError standardizes application errors.
type AppError struct {
	Code    Code
	Status  int
	Message string
	Data    map[string]any
	Err     error
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

// New constructs an AppError with the status taken from the fixed table.
func New(code Code, message string, data map[string]any) *AppError {
	return &AppError{Code: code, Status: code.HTTPStatus(), Message: message, Data: data}
}

func NewUnauthorized(message string) error {
	return New(CodeUnauthorized, message, nil)
}

func NewForbidden(message string) error {
	return New(CodeForbidden, message, nil)
}

// NewSubscriptionRequired carries the lowest satisfying tier so the client
// can route straight to the upgrade flow.
func NewSubscriptionRequired(required string) error {
	return New(CodeSubscriptionRequired, "subscription upgrade required", map[string]any{
		"required": strings.ToLower(required),
		"upgrade":  true,
	})
}

func NewNotFound(resource string) error {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

func NewConflict(message string, data map[string]any) error {
	return New(CodeConflict, message, data)
}

func NewValidationError(message string, data map[string]any) error {
	return New(CodeValidationError, message, data)
}

func NewRateLimited(message string) error {
	return New(CodeRateLimited, message, nil)
}

func NewPaymentFailed(message string, data map[string]any) error {
	return New(CodePaymentFailed, message, data)
}

func NewCheckoutFailed(err error) error {
	return &AppError{
		Code:    CodeCheckoutFailed,
		Status:  CodeCheckoutFailed.HTTPStatus(),
		Message: "checkout could not be completed",
		Err:     err,
	}
}

func NewServiceUnavailable(message string) error {
	return New(CodeServiceUnavailable, message, nil)
}

func NewInternalError(err error) error {
	return &AppError{
		Code:    CodeInternalError,
		Status:  CodeInternalError.HTTPStatus(),
		Message: "internal server error",
		Err:     err,
	}
}

// Translate converts any failure into an AppError. The mapping is total and
// deterministic: a given raw-error shape always lands on the same code.
// When dev is true internal failures keep their original message; otherwise
// they are replaced with a generic one.
func Translate(err error, dev bool) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			message := "duplicate value"
			if field := constraintField(pgErr); field != "" {
				message = fmt.Sprintf("duplicate value for %s", field)
			}
			return New(CodeConflict, message, nil)
		case pgErr.Code == "23503":
			return New(CodeValidationError, "invalid reference", nil)
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57"):
			return New(CodeServiceUnavailable, "database unavailable", nil)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return New(CodeNotFound, "resource not found", nil)
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return New(CodeServiceUnavailable, "database unavailable", nil)
	}

	// DeadlineExceeded satisfies net.Error, so it must be checked first.
	if errors.Is(err, context.DeadlineExceeded) {
		return New(CodeServiceUnavailable, "request timed out", nil)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return New(CodeNetworkError, "upstream network failure", nil)
	}

	var issues *validation.Issues
	if errors.As(err, &issues) {
		return New(CodeValidationError, "validation failed", map[string]any{
			"issues": issues.List(),
		})
	}

	translated := &AppError{
		Code:    CodeInternalError,
		Status:  CodeInternalError.HTTPStatus(),
		Message: "internal server error",
		Err:     err,
	}
	if dev {
		translated.Message = err.Error()
	}
	return translated
}

// ToAppError translates with development detail disabled.
func ToAppError(err error) *AppError {
	return Translate(err, false)
}

// constraintField extracts the offending column from a unique violation.
// Postgres details look like `Key (email)=(a@b.c) already exists.`; the
// constraint name (users_email_key) is the fallback.
func constraintField(pgErr *pgconn.PgError) string {
	if start := strings.Index(pgErr.Detail, "Key ("); start >= 0 {
		rest := pgErr.Detail[start+len("Key ("):]
		if end := strings.Index(rest, ")"); end > 0 {
			return rest[:end]
		}
	}
	name := pgErr.ConstraintName
	name = strings.TrimSuffix(name, "_key")
	name = strings.TrimSuffix(name, "_idx")
	if idx := strings.Index(name, "_"); idx >= 0 && idx+1 < len(name) {
		return name[idx+1:]
	}
	return ""
}
