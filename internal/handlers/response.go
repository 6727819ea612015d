package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/logger"
	"github.com/sbilibin2017/gw-marketplace-settlement/internal/middlewares"
	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

// IdempotencyKeyHeader names the request header carrying the idempotency key.
const IdempotencyKeyHeader = "Idempotency-Key"

var (
	errBadRequestBody = errors.New("invalid request body")
	errUnauthorized   = errors.New("unauthorized")
)

// ErrorResponse is the body of every failed request
// swagger:model ErrorResponse
type ErrorResponse struct {
	// Error message
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a service error to its status code.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Errorw("request failed",
			"uri", r.RequestURI,
			"error", err,
		)
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Internal server error"
	}
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errBadRequestBody),
		errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrCurrencyMismatch),
		errors.Is(err, models.ErrIdempotencyKeyMissing):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrPaymentMethodMissing):
		return http.StatusPaymentRequired
	case errors.Is(err, models.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, models.ErrWalletNotFound),
		errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrCancelOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrIdempotencyConflict),
		errors.Is(err, models.ErrInvalidStateTransition):
		return http.StatusConflict
	case errors.Is(err, models.ErrStaleSnapshot):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrGateway):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrRateUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequestBody, err)
	}
	return nil
}

func callerID(r *http.Request) (uuid.UUID, error) {
	id, ok := middlewares.UserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, errUnauthorized
	}
	return id, nil
}

func idempotencyKey(r *http.Request) (string, error) {
	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if key == "" {
		return "", models.ErrIdempotencyKeyMissing
	}
	return key, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s is not a valid id", errBadRequestBody, name)
	}
	return id, nil
}
