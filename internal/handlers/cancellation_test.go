package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

func TestRequestCancellationHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	issuerID, orderID := uuid.New(), uuid.New()
	target := "/orders/" + orderID.String() + "/cancellations"

	tests := []struct {
		name           string
		key            string
		mockSetup      func(m *MockCancellationRequester)
		expectedStatus int
	}{
		{
			name: "created",
			key:  "c-1",
			mockSetup: func(m *MockCancellationRequester) {
				m.EXPECT().RequestCancellation(gomock.Any(), orderID, issuerID, "changed my mind", "c-1").
					Return(&models.CancelOrder{ID: uuid.New(), OrderID: orderID, Status: models.CancelPending}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "already_pending",
			key:  "c-1",
			mockSetup: func(m *MockCancellationRequester) {
				m.EXPECT().RequestCancellation(gomock.Any(), orderID, issuerID, "changed my mind", "c-1").
					Return(nil, models.ErrInvalidStateTransition)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "missing_key",
			mockSetup:      func(m *MockCancellationRequester) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMockCancellationRequester(ctrl)
			tt.mockSetup(m)

			rr := serve(t, NewRequestCancellationHandler(m), request{
				method: http.MethodPost, pattern: "/orders/{orderID}/cancellations", target: target,
				body: RequestCancellationRequest{Reason: "changed my mind"}, userID: issuerID, key: tt.key,
			})
			assert.Equal(t, tt.expectedStatus, rr.Code)

			if tt.expectedStatus == http.StatusCreated {
				var resp CancelOrderResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, models.CancelPending, resp.CancelOrder.Status)
			}
		})
	}
}

func TestAcceptCancellationHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID, cancelID := uuid.New(), uuid.New()
	target := "/cancellations/" + cancelID.String() + "/accept"

	tests := []struct {
		name           string
		body           any
		mockSetup      func(m *MockCancellationAcceptor)
		expectedStatus int
	}{
		{
			name: "accepted",
			body: AcceptCancellationRequest{RateDate: "2024-03-01"},
			mockSetup: func(m *MockCancellationAcceptor) {
				m.EXPECT().AcceptCancellation(gomock.Any(), cancelID, userID, "2024-03-01", "a-1").
					Return(&models.Order{Status: models.OrderCancelled}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "issuer_cannot_accept",
			mockSetup: func(m *MockCancellationAcceptor) {
				m.EXPECT().AcceptCancellation(gomock.Any(), cancelID, userID, "", "a-1").
					Return(nil, models.ErrNotParticipant)
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "unknown",
			mockSetup: func(m *MockCancellationAcceptor) {
				m.EXPECT().AcceptCancellation(gomock.Any(), cancelID, userID, "", "a-1").
					Return(nil, models.ErrCancelOrderNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMockCancellationAcceptor(ctrl)
			tt.mockSetup(m)

			rr := serve(t, NewAcceptCancellationHandler(m), request{
				method: http.MethodPost, pattern: "/cancellations/{cancelID}/accept", target: target,
				body: tt.body, userID: userID, key: "a-1",
			})
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

func TestRejectCancellationHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID, cancelID := uuid.New(), uuid.New()
	m := NewMockCancellationRejecter(ctrl)
	m.EXPECT().RejectCancellation(gomock.Any(), cancelID, userID, "r-1").
		Return(&models.CancelOrder{ID: cancelID, Status: models.CancelCancelled}, nil)

	rr := serve(t, NewRejectCancellationHandler(m), request{
		method: http.MethodPost, pattern: "/cancellations/{cancelID}/reject",
		target: "/cancellations/" + cancelID.String() + "/reject", userID: userID, key: "r-1",
	})
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp CancelOrderResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, models.CancelCancelled, resp.CancelOrder.Status)
}
