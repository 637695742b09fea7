package common

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

// UniqueViolationCode is the Postgres error code for a unique constraint
// violation, surfaced by the store when two writes race on the same email.
const UniqueViolationCode = "23505"

// Sentinel error kinds. Every failure in the system unwraps to exactly one
// of these; HTTPStatusFromError is the only place that maps them to
// transport status codes.
var (
	ErrNotFound     = errors.New("requested resource not found")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrForbidden    = errors.New("forbidden access")
	ErrBadRequest   = errors.New("bad request")
	ErrConflict     = errors.New("resource conflict")
	ErrValidation   = errors.New("validation failed")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrTimeout      = errors.New("dependency timeout")
	ErrInternal     = errors.New("internal server error")
)

// Error pairs a sentinel kind with a client-facing message.
type Error struct {
	kind    error
	message string
}

// E builds an operational error of the given kind.
func E(kind error, message string) *Error {
	return &Error{kind: kind, message: message}
}

func (e *Error) Error() string { return e.message }

func (e *Error) Unwrap() error { return e.kind }

// Predeclared operational errors shared across layers.
var (
	ErrAuthRequired         = E(ErrUnauthorized, MsgAuthRequired)
	ErrTokenInvalid         = E(ErrUnauthorized, MsgTokenInvalid)
	ErrInvalidCredentials   = E(ErrUnauthorized, MsgInvalidCredentials)
	ErrCurrentPasswordWrong = E(ErrUnauthorized, MsgCurrentPasswordIncorrect)
	ErrAccountDeactivated   = E(ErrForbidden, MsgAccountDeactivated)
	ErrEmailExists          = E(ErrConflict, MsgEmailExists)
	ErrUserNotFound         = E(ErrNotFound, MsgNotFound)
	ErrPasswordTooShort     = E(ErrValidation, MsgPasswordTooShort)
	ErrInvalidEmail         = E(ErrValidation, MsgInvalidEmail)
	ErrNameTooShort         = E(ErrValidation, MsgNameTooShort)
	ErrNameTooLong          = E(ErrValidation, MsgNameTooLong)
	ErrInvalidRole          = E(ErrValidation, MsgInvalidRole)
)

// ValidationError reports every violated field of a payload, not just the
// first one.
type ValidationError struct {
	Violations map[string]string
}

func (e *ValidationError) Error() string { return MsgValidationFailed }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// RateLimitError carries the number of seconds a client must wait before
// the window admits another request. Always >= 1.
type RateLimitError struct {
	Message    string
	RetryAfter int
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return MsgTooManyRequests
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	}

	// A unique violation that escaped the repository still means conflict.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == UniqueViolationCode {
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}
