package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
	"github.com/sbilibin2017/gw-marketplace-settlement/internal/services"
)

func TestAcceptOfferHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	buyerID, sellerID := uuid.New(), uuid.New()
	body := AcceptOfferRequest{SellerID: sellerID, Type: models.OrderNormal, Currency: models.EUR, Price: dec("20"), Title: "logo"}

	tests := []struct {
		name           string
		key            string
		body           any
		mockSetup      func(m *MockOfferAcceptor)
		expectedStatus int
	}{
		{
			name: "created",
			key:  "offer-1",
			body: body,
			mockSetup: func(m *MockOfferAcceptor) {
				m.EXPECT().AcceptOffer(gomock.Any(), gomock.Any(), "offer-1").DoAndReturn(
					func(_ context.Context, offer models.Offer, _ string) (*models.Order, error) {
						assert.Equal(t, buyerID, offer.BuyerID)
						assert.Equal(t, sellerID, offer.SellerID)
						assert.True(t, dec("20").Equal(offer.Price))
						return &models.Order{ID: uuid.New(), BuyerID: buyerID, SellerID: sellerID, Status: models.OrderActive}, nil
					})
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing_key",
			body:           body,
			mockSetup:      func(m *MockOfferAcceptor) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad_body",
			key:            "offer-1",
			body:           `{"price":`,
			mockSetup:      func(m *MockOfferAcceptor) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "key_conflict",
			key:  "offer-1",
			body: body,
			mockSetup: func(m *MockOfferAcceptor) {
				m.EXPECT().AcceptOffer(gomock.Any(), gomock.Any(), "offer-1").Return(nil, models.ErrIdempotencyConflict)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "no_payment_method",
			key:  "offer-1",
			body: body,
			mockSetup: func(m *MockOfferAcceptor) {
				m.EXPECT().AcceptOffer(gomock.Any(), gomock.Any(), "offer-1").Return(nil, models.ErrPaymentMethodMissing)
			},
			expectedStatus: http.StatusPaymentRequired,
		},
		{
			name: "gateway",
			key:  "offer-1",
			body: body,
			mockSetup: func(m *MockOfferAcceptor) {
				m.EXPECT().AcceptOffer(gomock.Any(), gomock.Any(), "offer-1").
					Return(nil, errors.Join(models.ErrGateway, errors.New("card declined")))
			},
			expectedStatus: http.StatusBadGateway,
		},
		{
			name: "rates_down",
			key:  "offer-1",
			body: body,
			mockSetup: func(m *MockOfferAcceptor) {
				m.EXPECT().AcceptOffer(gomock.Any(), gomock.Any(), "offer-1").Return(nil, models.ErrRateUnavailable)
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name: "self_dealing",
			key:  "offer-1",
			body: body,
			mockSetup: func(m *MockOfferAcceptor) {
				m.EXPECT().AcceptOffer(gomock.Any(), gomock.Any(), "offer-1").Return(nil, models.ErrNotParticipant)
			},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMockOfferAcceptor(ctrl)
			tt.mockSetup(m)

			rr := serve(t, NewAcceptOfferHandler(m), request{
				method: http.MethodPost, pattern: "/orders", target: "/orders",
				body: tt.body, userID: buyerID, key: tt.key,
			})
			assert.Equal(t, tt.expectedStatus, rr.Code)

			if tt.expectedStatus == http.StatusCreated {
				var resp OrderResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, models.OrderActive, resp.Order.Status)
			}
		})
	}
}

func TestGetOrderHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID, orderID := uuid.New(), uuid.New()

	tests := []struct {
		name           string
		target         string
		mockSetup      func(m *MockOrderReader)
		expectedStatus int
	}{
		{
			name:   "found",
			target: "/orders/" + orderID.String(),
			mockSetup: func(m *MockOrderReader) {
				m.EXPECT().Order(gomock.Any(), orderID, userID).Return(&models.Order{ID: orderID}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "not_found",
			target: "/orders/" + orderID.String(),
			mockSetup: func(m *MockOrderReader) {
				m.EXPECT().Order(gomock.Any(), orderID, userID).Return(nil, models.ErrOrderNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "bad_id",
			target:         "/orders/not-a-uuid",
			mockSetup:      func(m *MockOrderReader) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMockOrderReader(ctrl)
			tt.mockSetup(m)

			rr := serve(t, NewGetOrderHandler(m), request{
				method: http.MethodGet, pattern: "/orders/{orderID}", target: tt.target, userID: userID,
			})
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

func TestAcceptDeliveryHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	buyerID, orderID := uuid.New(), uuid.New()
	target := "/orders/" + orderID.String() + "/delivery/accept"

	tests := []struct {
		name           string
		body           any
		mockSetup      func(m *MockDeliveryAcceptor)
		expectedStatus int
	}{
		{
			name: "with_tip",
			body: AcceptDeliveryRequest{Tip: dec("10"), RateDate: "2024-03-01"},
			mockSetup: func(m *MockDeliveryAcceptor) {
				m.EXPECT().AcceptDelivery(gomock.Any(), gomock.Any(), "d-1").DoAndReturn(
					func(_ context.Context, req services.DeliveryAcceptance, _ string) (*models.Order, error) {
						assert.Equal(t, orderID, req.OrderID)
						assert.Equal(t, buyerID, req.BuyerID)
						assert.Equal(t, "2024-03-01", req.RateDate)
						assert.True(t, dec("10").Equal(req.Tip))
						return &models.Order{ID: orderID, Status: models.OrderDelivered}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "empty_body",
			mockSetup: func(m *MockDeliveryAcceptor) {
				m.EXPECT().AcceptDelivery(gomock.Any(), gomock.Any(), "d-1").DoAndReturn(
					func(_ context.Context, req services.DeliveryAcceptance, _ string) (*models.Order, error) {
						assert.True(t, req.Tip.IsZero())
						return &models.Order{ID: orderID, Status: models.OrderDelivered}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "stale_snapshot",
			body: AcceptDeliveryRequest{RateDate: "2024-02-01"},
			mockSetup: func(m *MockDeliveryAcceptor) {
				m.EXPECT().AcceptDelivery(gomock.Any(), gomock.Any(), "d-1").Return(nil, models.ErrStaleSnapshot)
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "not_active",
			mockSetup: func(m *MockDeliveryAcceptor) {
				m.EXPECT().AcceptDelivery(gomock.Any(), gomock.Any(), "d-1").Return(nil, models.ErrInvalidStateTransition)
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMockDeliveryAcceptor(ctrl)
			tt.mockSetup(m)

			rr := serve(t, NewAcceptDeliveryHandler(m), request{
				method: http.MethodPost, pattern: "/orders/{orderID}/delivery/accept", target: target,
				body: tt.body, userID: buyerID, key: "d-1",
			})
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

func TestSubscriptionPaymentHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	orderID := uuid.New()
	m := NewMockSubscriptionPaymentRecorder(ctrl)
	m.EXPECT().RecordSubscriptionPayment(gomock.Any(), orderID, "in_001").Return(&models.Order{ID: orderID}, nil)
	m.EXPECT().RecordSubscriptionPayment(gomock.Any(), orderID, "").Return(nil, models.ErrIdempotencyKeyMissing)

	target := "/internal/orders/" + orderID.String() + "/subscription-payments"
	pattern := "/internal/orders/{orderID}/subscription-payments"

	rr := serve(t, NewSubscriptionPaymentHandler(m), request{
		method: http.MethodPost, pattern: pattern, target: target, body: SubscriptionPaymentRequest{InvoiceID: "in_001"},
	})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(t, NewSubscriptionPaymentHandler(m), request{
		method: http.MethodPost, pattern: pattern, target: target, body: SubscriptionPaymentRequest{},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
