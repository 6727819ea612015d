package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

//go:generate mockgen -source=cancellation.go -destination=cancellation_mock.go -package=handlers

// CancellationRequester opens cancellation requests.
type CancellationRequester interface {
	RequestCancellation(ctx context.Context, orderID, issuerID uuid.UUID, reason, key string) (*models.CancelOrder, error)
}

// CancellationAcceptor accepts cancellation requests.
type CancellationAcceptor interface {
	AcceptCancellation(ctx context.Context, cancelID, userID uuid.UUID, rateDate, key string) (*models.Order, error)
}

// CancellationRejecter rejects cancellation requests.
type CancellationRejecter interface {
	RejectCancellation(ctx context.Context, cancelID, userID uuid.UUID, key string) (*models.CancelOrder, error)
}

// CancelOrderResponse wraps a cancellation request
// swagger:model CancelOrderResponse
type CancelOrderResponse struct {
	CancelOrder *models.CancelOrder `json:"cancel_order"`
}

// RequestCancellationRequest is the body of a cancellation request
// swagger:model RequestCancellationRequest
type RequestCancellationRequest struct {
	Reason string `json:"reason"`
}

// NewRequestCancellationHandler opens a cancellation request for an active order.
// @Summary Request cancellation
// @Tags cancellations
// @Accept json
// @Produce json
// @Param Idempotency-Key header string true "Idempotency key"
// @Param orderID path string true "Order id"
// @Param request body handlers.RequestCancellationRequest false "Reason"
// @Success 201 {object} handlers.CancelOrderResponse
// @Failure 403 {object} handlers.ErrorResponse "Not a participant"
// @Failure 409 {object} handlers.ErrorResponse "A request is already pending"
// @Router /orders/{orderID}/cancellations [post]
// @Security BearerAuth
func NewRequestCancellationHandler(svc CancellationRequester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		issuerID, err := callerID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		key, err := idempotencyKey(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		orderID, err := uuidParam(r, "orderID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req RequestCancellationRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, r, err)
				return
			}
		}

		cancel, err := svc.RequestCancellation(r.Context(), orderID, issuerID, req.Reason, key)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, CancelOrderResponse{CancelOrder: cancel})
	}
}

// AcceptCancellationRequest carries the snapshot the counter-party priced the refund with
// swagger:model AcceptCancellationRequest
type AcceptCancellationRequest struct {
	RateDate string `json:"rate_date"`
}

// NewAcceptCancellationHandler cancels the order and refunds the buyer.
// @Summary Accept cancellation
// @Tags cancellations
// @Accept json
// @Produce json
// @Param Idempotency-Key header string true "Idempotency key"
// @Param cancelID path string true "Cancellation id"
// @Param request body handlers.AcceptCancellationRequest false "Snapshot"
// @Success 200 {object} handlers.OrderResponse
// @Failure 403 {object} handlers.ErrorResponse "Only the counter-party may accept"
// @Failure 409 {object} handlers.ErrorResponse "Request is not pending"
// @Router /cancellations/{cancelID}/accept [post]
// @Security BearerAuth
func NewAcceptCancellationHandler(svc CancellationAcceptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		key, err := idempotencyKey(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		cancelID, err := uuidParam(r, "cancelID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req AcceptCancellationRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, r, err)
				return
			}
		}

		order, err := svc.AcceptCancellation(r.Context(), cancelID, userID, req.RateDate, key)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, OrderResponse{Order: order})
	}
}

// NewRejectCancellationHandler closes a cancellation request, the order stays active.
// @Summary Reject cancellation
// @Tags cancellations
// @Produce json
// @Param Idempotency-Key header string true "Idempotency key"
// @Param cancelID path string true "Cancellation id"
// @Success 200 {object} handlers.CancelOrderResponse
// @Failure 409 {object} handlers.ErrorResponse "Request is not pending"
// @Router /cancellations/{cancelID}/reject [post]
// @Security BearerAuth
func NewRejectCancellationHandler(svc CancellationRejecter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		key, err := idempotencyKey(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		cancelID, err := uuidParam(r, "cancelID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		cancel, err := svc.RejectCancellation(r.Context(), cancelID, userID, key)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, CancelOrderResponse{CancelOrder: cancel})
	}
}
