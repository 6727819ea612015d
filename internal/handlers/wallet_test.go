package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

func testWallet(userID uuid.UUID) *models.Wallet {
	return &models.Wallet{
		UserID:                 userID,
		Currency:               models.USD,
		AvailableForWithdrawal: dec("10"),
		PendingClearance:       dec("2.50"),
		CustomerRef:            "cus_secret",
		PaymentMethodRef:       "pm_secret",
	}
}

func TestGetBalanceHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID := uuid.New()

	tests := []struct {
		name           string
		userID         uuid.UUID
		mockSetup      func(m *MockWalletReader)
		expectedStatus int
	}{
		{
			name:   "success",
			userID: userID,
			mockSetup: func(m *MockWalletReader) {
				m.EXPECT().Get(gomock.Any(), userID).Return(testWallet(userID), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unauthorized",
			mockSetup:      func(m *MockWalletReader) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:   "not_found",
			userID: userID,
			mockSetup: func(m *MockWalletReader) {
				m.EXPECT().Get(gomock.Any(), userID).Return(nil, models.ErrWalletNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "store_error",
			userID: userID,
			mockSetup: func(m *MockWalletReader) {
				m.EXPECT().Get(gomock.Any(), userID).Return(nil, errors.New("connection reset"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMockWalletReader(ctrl)
			tt.mockSetup(m)

			rr := serve(t, NewGetBalanceHandler(m), request{
				method: http.MethodGet, pattern: "/wallet", target: "/wallet", userID: tt.userID,
			})
			assert.Equal(t, tt.expectedStatus, rr.Code)

			if tt.expectedStatus == http.StatusOK {
				raw := rr.Body.String()
				assert.NotContains(t, raw, "cus_secret")
				assert.NotContains(t, raw, "pm_secret")

				var resp BalanceResponse
				require.NoError(t, json.Unmarshal([]byte(raw), &resp))
				assert.Equal(t, "12.5", resp.Credits.String())
			}
			if tt.expectedStatus == http.StatusInternalServerError {
				assert.Equal(t, "Internal server error", decodeError(t, rr))
			}
		})
	}
}

func TestOpenWalletHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID := uuid.New()
	m := NewMockWalletOpener(ctrl)
	m.EXPECT().Open(gomock.Any(), userID).Return(testWallet(userID), nil)

	rr := serve(t, NewOpenWalletHandler(m), request{
		method: http.MethodPost, pattern: "/wallet", target: "/wallet", userID: userID,
	})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestListEarningsHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID := uuid.New()

	tests := []struct {
		name           string
		target         string
		mockSetup      func(m *MockEarningsLister)
		expectedStatus int
		expectedLen    int
	}{
		{
			name:   "default limit",
			target: "/wallet/earnings",
			mockSetup: func(m *MockEarningsLister) {
				m.EXPECT().Earnings(gomock.Any(), userID, 0).Return([]models.Earning{{Type: models.EarningSpent}}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedLen:    1,
		},
		{
			name:   "explicit limit, empty ledger",
			target: "/wallet/earnings?limit=5",
			mockSetup: func(m *MockEarningsLister) {
				m.EXPECT().Earnings(gomock.Any(), userID, 5).Return(nil, nil)
			},
			expectedStatus: http.StatusOK,
			expectedLen:    0,
		},
		{
			name:           "bad limit",
			target:         "/wallet/earnings?limit=ten",
			mockSetup:      func(m *MockEarningsLister) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMockEarningsLister(ctrl)
			tt.mockSetup(m)

			rr := serve(t, NewListEarningsHandler(m), request{
				method: http.MethodGet, pattern: "/wallet/earnings", target: tt.target, userID: userID,
			})
			assert.Equal(t, tt.expectedStatus, rr.Code)

			if tt.expectedStatus == http.StatusOK {
				var resp EarningsResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.NotNil(t, resp.Earnings)
				assert.Len(t, resp.Earnings, tt.expectedLen)
			}
		})
	}
}

func TestWithdrawHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID := uuid.New()

	tests := []struct {
		name           string
		reqBody        any
		mockSetup      func(m *MockWalletWithdrawer)
		expectedStatus int
	}{
		{
			name:    "success",
			reqBody: `{"amount":"7.50"}`,
			mockSetup: func(m *MockWalletWithdrawer) {
				m.EXPECT().Withdraw(gomock.Any(), userID, gomock.Any()).Return(testWallet(userID), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:    "insufficient_funds",
			reqBody: `{"amount":1000}`,
			mockSetup: func(m *MockWalletWithdrawer) {
				m.EXPECT().Withdraw(gomock.Any(), userID, gomock.Any()).Return(nil, models.ErrInsufficientFunds)
			},
			expectedStatus: http.StatusPaymentRequired,
		},
		{
			name:    "invalid_amount",
			reqBody: `{"amount":-1}`,
			mockSetup: func(m *MockWalletWithdrawer) {
				m.EXPECT().Withdraw(gomock.Any(), userID, gomock.Any()).Return(nil, models.ErrInvalidAmount)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid_json",
			reqBody:        `invalid-json`,
			mockSetup:      func(m *MockWalletWithdrawer) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown_field",
			reqBody:        `{"amount":1,"currency":"EUR"}`,
			mockSetup:      func(m *MockWalletWithdrawer) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMockWalletWithdrawer(ctrl)
			tt.mockSetup(m)

			rr := serve(t, NewWithdrawHandler(m), request{
				method: http.MethodPost, pattern: "/wallet/withdraw", target: "/wallet/withdraw",
				body: tt.reqBody, userID: userID,
			})
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

func TestWithdrawHandler_PassesAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID := uuid.New()
	m := NewMockWalletWithdrawer(ctrl)
	m.EXPECT().Withdraw(gomock.Any(), userID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ uuid.UUID, amount decimal.Decimal) (*models.Wallet, error) {
			assert.True(t, dec("7.5").Equal(amount))
			return testWallet(userID), nil
		})

	rr := serve(t, NewWithdrawHandler(m), request{
		method: http.MethodPost, pattern: "/wallet/withdraw", target: "/wallet/withdraw",
		body: WithdrawRequest{Amount: dec("7.50")}, userID: userID,
	})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAttachPaymentMethodHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID := uuid.New()

	tests := []struct {
		name           string
		mockSetup      func(m *MockPaymentMethodAttacher)
		expectedStatus int
	}{
		{
			name: "success",
			mockSetup: func(m *MockPaymentMethodAttacher) {
				m.EXPECT().AttachPaymentMethod(gomock.Any(), userID, "pm_card_visa").Return(testWallet(userID), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "gateway_rejects",
			mockSetup: func(m *MockPaymentMethodAttacher) {
				m.EXPECT().AttachPaymentMethod(gomock.Any(), userID, "pm_card_visa").
					Return(nil, errors.Join(models.ErrGateway, errors.New("card expired")))
			},
			expectedStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMockPaymentMethodAttacher(ctrl)
			tt.mockSetup(m)

			rr := serve(t, NewAttachPaymentMethodHandler(m), request{
				method: http.MethodPost, pattern: "/wallet/payment-method", target: "/wallet/payment-method",
				body: PaymentMethodRequest{PaymentMethod: "pm_card_visa"}, userID: userID,
			})
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}
