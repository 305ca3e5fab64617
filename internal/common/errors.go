package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound       = errors.New("requested resource not found")
	ErrUnauthorized   = errors.New("unauthorized access")
	ErrAdminOnly      = errors.New("admin only")
	ErrBadRequest     = errors.New("bad request")
	ErrConflict       = errors.New("resource conflict")
	ErrInternalServer = errors.New("internal server error")

	// Event lifecycle
	ErrInvalidTime  = errors.New("invalid date format")
	ErrInvalidRange = errors.New("end time must be after start time")

	// Onboarding handshake
	ErrAlreadyJoined = errors.New("already joined")
	ErrNoPendingCode = errors.New("no pending verification code")
	ErrCodeExpired   = errors.New("verification code expired")
	ErrCodeMismatch  = errors.New("verification code mismatch")

	// Flag submission
	ErrBadFormat       = errors.New("malformed submission format")
	ErrEventClosed     = errors.New("event has ended")
	ErrEventNotStarted = errors.New("event has not started yet")
	ErrNotJoined       = errors.New("not a joined member")
	ErrDuplicateFlag   = errors.New("flag already submitted")

	// Provisioning committed-join failures are reported, not rolled back.
	ErrProvisioning = errors.New("resource provisioning failed")
)

// HTTPStatusFromError maps domain errors to HTTP status codes for the
// REST surface. The interactions webhook answers 200 with an error reply
// instead, so this only covers the read-only API and transport faults.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoPendingCode):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAdminOnly), errors.Is(err, ErrNotJoined):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrInvalidTime),
		errors.Is(err, ErrInvalidRange), errors.Is(err, ErrBadFormat):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict), errors.Is(err, ErrAlreadyJoined),
		errors.Is(err, ErrDuplicateFlag), errors.Is(err, ErrCodeExpired),
		errors.Is(err, ErrCodeMismatch), errors.Is(err, ErrEventClosed),
		errors.Is(err, ErrEventNotStarted):
		return http.StatusConflict
	}

	// Unique violations that slipped past handler-level checks.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

// Errorf creates a new error with formatting, useful for wrapping.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
