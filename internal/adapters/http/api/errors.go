package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/scramble/internal/app"
	"github.com/okian/scramble/internal/domain/session"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrUnknownKind = errors.New("unknown message type")
)

// Error codes written in errorResponse.Code and WebSocket error messages.
const (
	codeBadRequest      = "bad_request"
	codeNotFound        = "not_found"
	codeInvalidAction   = "invalid_action"
	codeUnknownCategory = "unknown_category"
	codeBackpressure    = "backpressure"
	codeUnavailable     = "unavailable"
	codeTimeout         = "timeout"
	codeInternal        = "internal_error"
)

// classify maps a service or game error to an HTTP status and error code.
// ok is false for outcomes that are reported as notices instead of errors.
func classify(err error) (status int, code string, ok bool) {
	switch {
	case err == nil,
		errors.Is(err, session.ErrGuessMismatch),
		errors.Is(err, session.ErrInsufficientScore):
		return http.StatusOK, "", false
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, codeNotFound, true
	case errors.Is(err, session.ErrInvalidAction):
		return http.StatusConflict, codeInvalidAction, true
	case errors.Is(err, session.ErrUnknownCategory):
		return http.StatusUnprocessableEntity, codeUnknownCategory, true
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, codeBackpressure, true
	case errors.Is(err, service.ErrTooManySessions), errors.Is(err, service.ErrStopped):
		return http.StatusServiceUnavailable, codeUnavailable, true
	case errors.Is(err, service.ErrUnknownCommand), errors.Is(err, ErrBadRequest), errors.Is(err, ErrUnknownKind):
		return http.StatusBadRequest, codeBadRequest, true
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, codeTimeout, true
	default:
		return http.StatusInternalServerError, codeInternal, true
	}
}

// badRequest wraps cause as an ErrBadRequest with the operation name.
func badRequest(op string, cause error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrBadRequest, cause)
}
