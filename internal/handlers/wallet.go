package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

//go:generate mockgen -source=wallet.go -destination=wallet_mock.go -package=handlers

// WalletOpener opens wallets.
type WalletOpener interface {
	Open(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
}

// WalletReader reads wallets.
type WalletReader interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
}

// EarningsLister lists ledger entries.
type EarningsLister interface {
	Earnings(ctx context.Context, userID uuid.UUID, limit int) ([]models.Earning, error)
}

// WalletWithdrawer withdraws from the available balance.
type WalletWithdrawer interface {
	Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*models.Wallet, error)
}

// PaymentMethodAttacher attaches a card to the caller's gateway customer.
type PaymentMethodAttacher interface {
	AttachPaymentMethod(ctx context.Context, userID uuid.UUID, methodRef string) (*models.Wallet, error)
}

// BalanceResponse represents the caller's wallet
// swagger:model BalanceResponse
type BalanceResponse struct {
	Wallet *models.Wallet `json:"wallet"`
	// Pending clearance plus available balance
	Credits decimal.Decimal `json:"credits"`
}

func balance(w *models.Wallet) BalanceResponse {
	return BalanceResponse{Wallet: w, Credits: w.Credits()}
}

// NewOpenWalletHandler returns an HTTP handler opening the caller's wallet.
// Opening an existing wallet returns it unchanged.
// @Summary Open wallet
// @Tags wallet
// @Produce json
// @Success 200 {object} handlers.BalanceResponse
// @Failure 401 {object} handlers.ErrorResponse
// @Router /wallet [post]
// @Security BearerAuth
func NewOpenWalletHandler(svc WalletOpener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		wallet, err := svc.Open(r.Context(), userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, balance(wallet))
	}
}

// NewGetBalanceHandler returns an HTTP handler for fetching the caller's balances.
// @Summary Get user balance
// @Tags wallet
// @Produce json
// @Success 200 {object} handlers.BalanceResponse "User balance"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 404 {object} handlers.ErrorResponse "Wallet not found"
// @Router /wallet [get]
// @Security BearerAuth
func NewGetBalanceHandler(svc WalletReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		wallet, err := svc.Get(r.Context(), userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, balance(wallet))
	}
}

// EarningsResponse lists ledger entries, newest first
// swagger:model EarningsResponse
type EarningsResponse struct {
	Earnings []models.Earning `json:"earnings"`
}

// NewListEarningsHandler returns an HTTP handler listing the caller's earning ledger.
// @Summary List earnings
// @Tags wallet
// @Produce json
// @Param limit query int false "Maximum number of entries"
// @Success 200 {object} handlers.EarningsResponse
// @Failure 400 {object} handlers.ErrorResponse
// @Router /wallet/earnings [get]
// @Security BearerAuth
func NewListEarningsHandler(svc EarningsLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			if limit, err = strconv.Atoi(v); err != nil {
				writeError(w, r, errBadRequestBody)
				return
			}
		}

		earnings, err := svc.Earnings(r.Context(), userID, limit)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if earnings == nil {
			earnings = []models.Earning{}
		}
		writeJSON(w, http.StatusOK, EarningsResponse{Earnings: earnings})
	}
}

// WithdrawRequest is the body of a withdrawal
// swagger:model WithdrawRequest
type WithdrawRequest struct {
	// Amount in the wallet currency
	Amount decimal.Decimal `json:"amount"`
}

// NewWithdrawHandler handles withdrawing funds from the available balance.
// @Summary Withdraw funds
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body handlers.WithdrawRequest true "Withdraw Request"
// @Success 200 {object} handlers.BalanceResponse
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 402 {object} handlers.ErrorResponse "Insufficient funds"
// @Router /wallet/withdraw [post]
// @Security BearerAuth
func NewWithdrawHandler(svc WalletWithdrawer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req WithdrawRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		wallet, err := svc.Withdraw(r.Context(), userID, req.Amount)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, balance(wallet))
	}
}

// PaymentMethodRequest is the body of a payment method attachment
// swagger:model PaymentMethodRequest
type PaymentMethodRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// NewAttachPaymentMethodHandler stores the card used for cash charges.
// @Summary Attach payment method
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body handlers.PaymentMethodRequest true "Payment method"
// @Success 200 {object} handlers.BalanceResponse
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 502 {object} handlers.ErrorResponse "Gateway rejected the method"
// @Router /wallet/payment-method [post]
// @Security BearerAuth
func NewAttachPaymentMethodHandler(svc PaymentMethodAttacher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req PaymentMethodRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		wallet, err := svc.AttachPaymentMethod(r.Context(), userID, req.PaymentMethod)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, balance(wallet))
	}
}
