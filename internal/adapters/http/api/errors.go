package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/terptaster/internal/adapters/mq/queue"
	"github.com/okian/terptaster/internal/adapters/repository"
	"github.com/okian/terptaster/internal/domain/terpene"
	"github.com/okian/terptaster/internal/domain/training"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrBackpressure  = errors.New("backpressure")
	ErrLimitExceeded = errors.New("limit exceeded")
)

// Wrap annotates err with the operation name.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// WrapKind annotates err with the operation and tags it with kind.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return NewKind(op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// NewKind returns an error of the given kind for op.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classify maps an error chain to an HTTP status and response code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, ErrLimitExceeded):
		return http.StatusBadRequest, "limit_exceeded"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, training.ErrInvalidDifficulty),
		errors.Is(err, training.ErrEmptyGuess):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrSessionMissing),
		errors.Is(err, terpene.ErrUnknownTerpene),
		errors.Is(err, terpene.ErrUnknownFlavor):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrConflict),
		errors.Is(err, training.ErrNotPlayable),
		errors.Is(err, training.ErrRoundClosed),
		errors.Is(err, training.ErrRoundOpen),
		errors.Is(err, training.ErrNoHintsLeft),
		errors.Is(err, training.ErrGameOver):
		return http.StatusConflict, "conflict"
	case errors.Is(err, ErrBackpressure), errors.Is(err, queue.ErrQueueFull):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, queue.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := http.StatusText(status)
	if err != nil && status != http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
