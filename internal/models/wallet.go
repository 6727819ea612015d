package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is the per-user monetary state. All amounts are held in Currency.
type Wallet struct {
	UserID                 uuid.UUID       `db:"user_id" json:"user_id"`
	Currency               string          `db:"currency" json:"currency"`
	KarmaAmount            int64           `db:"karma_amount" json:"karma_amount"`
	NetIncome              decimal.Decimal `db:"net_income" json:"net_income"`
	AvailableForWithdrawal decimal.Decimal `db:"available_for_withdrawal" json:"available_for_withdrawal"`
	PendingClearance       decimal.Decimal `db:"pending_clearance" json:"pending_clearance"`
	UsedForPurchases       decimal.Decimal `db:"used_for_purchases" json:"used_for_purchases"`
	CustomerRef            string          `db:"customer_ref" json:"-"`
	PaymentMethodRef       string          `db:"payment_method_ref" json:"-"`
	CreatedAt              time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time       `db:"updated_at" json:"updated_at"`
}

// NewWallet returns a wallet with zero balances.
func NewWallet(userID uuid.UUID, currency, customerRef string, now time.Time) *Wallet {
	return &Wallet{
		UserID:                 userID,
		Currency:               currency,
		NetIncome:              decimal.Zero,
		AvailableForWithdrawal: decimal.Zero,
		PendingClearance:       decimal.Zero,
		UsedForPurchases:       decimal.Zero,
		CustomerRef:            customerRef,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// Credits is the sum of the balances that can pay for purchases.
func (w *Wallet) Credits() decimal.Decimal {
	return w.PendingClearance.Add(w.AvailableForWithdrawal)
}

// Credit adds amount to the wallet. With asEarning the funds are held in
// pending clearance until now+clearance and the returned Earning tracks them;
// otherwise they land in the available balance and no earning is returned.
func (w *Wallet) Credit(amount decimal.Decimal, asEarning bool, now time.Time, clearance time.Duration) (*Earning, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: credit %s", ErrInvalidAmount, amount)
	}

	w.NetIncome = w.NetIncome.Add(amount)
	if !asEarning {
		w.AvailableForWithdrawal = w.AvailableForWithdrawal.Add(amount)
		return nil, nil
	}

	w.PendingClearance = w.PendingClearance.Add(amount)
	return newEarning(w.UserID, EarningTipRevenue, amount, w.Currency, now.Add(clearance), false, now), nil
}

// ConsumeCredits draws up to amount from pending clearance first and then from
// the available balance. It returns the consumed amount and a spent earning,
// which is nil when nothing was consumed.
func (w *Wallet) ConsumeCredits(amount decimal.Decimal, now time.Time) (decimal.Decimal, *Earning, error) {
	if amount.IsNegative() {
		return decimal.Zero, nil, fmt.Errorf("%w: consume %s", ErrInvalidAmount, amount)
	}

	consumed := decimal.Min(amount, w.Credits())
	if !consumed.IsPositive() {
		return decimal.Zero, nil, nil
	}

	remainder := w.PendingClearance.Sub(consumed)
	if remainder.IsNegative() {
		w.PendingClearance = decimal.Zero
		w.AvailableForWithdrawal = decimal.Max(decimal.Zero, w.AvailableForWithdrawal.Sub(remainder.Abs()))
	} else {
		w.PendingClearance = remainder
	}
	w.UsedForPurchases = w.UsedForPurchases.Add(consumed)

	return consumed, newEarning(w.UserID, EarningSpent, consumed, w.Currency, now, true, now), nil
}

// Refund returns previously consumed credits to the available balance.
func (w *Wallet) Refund(amount decimal.Decimal, now time.Time) (*Earning, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: refund %s", ErrInvalidAmount, amount)
	}
	w.AvailableForWithdrawal = w.AvailableForWithdrawal.Add(amount)
	return newEarning(w.UserID, EarningRefund, amount, w.Currency, now, true, now), nil
}

// Withdraw removes amount from the available balance.
func (w *Wallet) Withdraw(amount decimal.Decimal, now time.Time) (*Earning, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: withdraw %s", ErrInvalidAmount, amount)
	}
	if amount.GreaterThan(w.AvailableForWithdrawal) {
		return nil, fmt.Errorf("%w: requested %s, available %s", ErrInsufficientFunds, amount, w.AvailableForWithdrawal)
	}
	w.AvailableForWithdrawal = w.AvailableForWithdrawal.Sub(amount)
	return newEarning(w.UserID, EarningWithdrawn, amount, w.Currency, now, true, now), nil
}

// Mature moves a matured earning from pending clearance to the available
// balance. Pending clearance is clamped at zero.
func (w *Wallet) Mature(amount decimal.Decimal) {
	w.PendingClearance = decimal.Max(decimal.Zero, w.PendingClearance.Sub(amount))
	w.AvailableForWithdrawal = w.AvailableForWithdrawal.Add(amount)
}

// CheckInvariants fails when a balance went negative.
func (w *Wallet) CheckInvariants() error {
	switch {
	case w.AvailableForWithdrawal.IsNegative():
		return fmt.Errorf("%w: available_for_withdrawal=%s user=%s", ErrInvariantViolation, w.AvailableForWithdrawal, w.UserID)
	case w.PendingClearance.IsNegative():
		return fmt.Errorf("%w: pending_clearance=%s user=%s", ErrInvariantViolation, w.PendingClearance, w.UserID)
	case w.UsedForPurchases.IsNegative():
		return fmt.Errorf("%w: used_for_purchases=%s user=%s", ErrInvariantViolation, w.UsedForPurchases, w.UserID)
	}
	return nil
}
