package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
	"github.com/sbilibin2017/gw-marketplace-settlement/internal/services"
)

//go:generate mockgen -source=order.go -destination=order_mock.go -package=handlers

// OfferAcceptor turns an accepted offer into an order.
type OfferAcceptor interface {
	AcceptOffer(ctx context.Context, offer models.Offer, key string) (*models.Order, error)
}

// OrderReader reads orders visible to a participant.
type OrderReader interface {
	Order(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
}

// DeliveryAcceptor settles a delivered order.
type DeliveryAcceptor interface {
	AcceptDelivery(ctx context.Context, req services.DeliveryAcceptance, key string) (*models.Order, error)
}

// SubscriptionPaymentRecorder settles renewal invoices of recurrent orders.
type SubscriptionPaymentRecorder interface {
	RecordSubscriptionPayment(ctx context.Context, orderID uuid.UUID, invoiceID string) (*models.Order, error)
}

// OrderResponse wraps an order
// swagger:model OrderResponse
type OrderResponse struct {
	Order *models.Order `json:"order"`
}

// AcceptOfferRequest is the offer the caller accepts as buyer
// swagger:model AcceptOfferRequest
type AcceptOfferRequest struct {
	SellerID uuid.UUID        `json:"seller_id"`
	Type     models.OrderType `json:"type"`
	Currency string           `json:"currency"`
	// Price in Currency
	Price decimal.Decimal `json:"price"`
	// Paid at acceptance by two_payment orders, the rest is due at delivery
	FirstPayment decimal.Decimal `json:"first_payment"`
	Title        string          `json:"title"`
}

// NewAcceptOfferHandler creates an order for the caller as buyer.
// @Summary Accept offer
// @Tags orders
// @Accept json
// @Produce json
// @Param Idempotency-Key header string true "Idempotency key"
// @Param request body handlers.AcceptOfferRequest true "Offer"
// @Success 201 {object} handlers.OrderResponse
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 402 {object} handlers.ErrorResponse "Payment method missing"
// @Failure 409 {object} handlers.ErrorResponse "Idempotency key reused"
// @Failure 502 {object} handlers.ErrorResponse "Gateway error"
// @Failure 503 {object} handlers.ErrorResponse "Rate unavailable"
// @Router /orders [post]
// @Security BearerAuth
func NewAcceptOfferHandler(svc OfferAcceptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := callerID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		key, err := idempotencyKey(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req AcceptOfferRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		order, err := svc.AcceptOffer(r.Context(), models.Offer{
			BuyerID:      buyerID,
			SellerID:     req.SellerID,
			Type:         req.Type,
			Currency:     req.Currency,
			Price:        req.Price,
			FirstPayment: req.FirstPayment,
			Title:        req.Title,
		}, key)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, OrderResponse{Order: order})
	}
}

// NewGetOrderHandler returns an order of which the caller is a participant.
// @Summary Get order
// @Tags orders
// @Produce json
// @Param orderID path string true "Order id"
// @Success 200 {object} handlers.OrderResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /orders/{orderID} [get]
// @Security BearerAuth
func NewGetOrderHandler(svc OrderReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		orderID, err := uuidParam(r, "orderID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		order, err := svc.Order(r.Context(), orderID, userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, OrderResponse{Order: order})
	}
}

// AcceptDeliveryRequest is the buyer's acceptance of delivered work
// swagger:model AcceptDeliveryRequest
type AcceptDeliveryRequest struct {
	// Optional tip in the order currency
	Tip decimal.Decimal `json:"tip"`
	// Rate snapshot date the client priced with
	RateDate string `json:"rate_date"`
}

// NewAcceptDeliveryHandler settles the order and credits the seller.
// @Summary Accept delivery
// @Tags orders
// @Accept json
// @Produce json
// @Param Idempotency-Key header string true "Idempotency key"
// @Param orderID path string true "Order id"
// @Param request body handlers.AcceptDeliveryRequest false "Tip and snapshot"
// @Success 200 {object} handlers.OrderResponse
// @Failure 409 {object} handlers.ErrorResponse "Order is not active"
// @Failure 422 {object} handlers.ErrorResponse "Stale rate snapshot"
// @Router /orders/{orderID}/delivery/accept [post]
// @Security BearerAuth
func NewAcceptDeliveryHandler(svc DeliveryAcceptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := callerID(r)
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

		var req AcceptDeliveryRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, r, err)
				return
			}
		}

		order, err := svc.AcceptDelivery(r.Context(), services.DeliveryAcceptance{
			OrderID:  orderID,
			BuyerID:  buyerID,
			Tip:      req.Tip,
			RateDate: req.RateDate,
		}, key)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, OrderResponse{Order: order})
	}
}

// SubscriptionPaymentRequest reports a paid renewal invoice
// swagger:model SubscriptionPaymentRequest
type SubscriptionPaymentRequest struct {
	InvoiceID string `json:"invoice_id"`
}

// NewSubscriptionPaymentHandler settles one paid invoice of a recurrent order.
// The invoice id is the idempotency key.
// @Summary Record subscription payment
// @Tags internal
// @Accept json
// @Produce json
// @Param orderID path string true "Order id"
// @Param request body handlers.SubscriptionPaymentRequest true "Invoice"
// @Success 200 {object} handlers.OrderResponse
// @Failure 409 {object} handlers.ErrorResponse "Order is not an active recurrent order"
// @Router /internal/orders/{orderID}/subscription-payments [post]
// @Security BearerAuth
func NewSubscriptionPaymentHandler(svc SubscriptionPaymentRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuidParam(r, "orderID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req SubscriptionPaymentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		order, err := svc.RecordSubscriptionPayment(r.Context(), orderID, req.InvoiceID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, OrderResponse{Order: order})
	}
}
