package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EarningType classifies an entry in the earning ledger.
type EarningType string

const (
	EarningTipRevenue EarningType = "tip_revenue"
	EarningWithdrawn  EarningType = "withdrawn"
	EarningRefund     EarningType = "refund"
	EarningSpent      EarningType = "spent"
)

// DefaultClearance is the holding window applied to credited earnings.
const DefaultClearance = 14 * 24 * time.Hour

// Earning is an append-only ledger entry. Only SettedToAvailableForWithdrawn
// changes after insertion, and only from false to true.
type Earning struct {
	ID                            uuid.UUID       `db:"earning_id" json:"id"`
	UserID                        uuid.UUID       `db:"user_id" json:"user_id"`
	OrderID                       uuid.NullUUID   `db:"order_id" json:"order_id"`
	Type                          EarningType     `db:"type" json:"type"`
	Amount                        decimal.Decimal `db:"amount" json:"amount"`
	Currency                      string          `db:"currency" json:"currency"`
	AvailableForWithdrawnDate     time.Time       `db:"available_for_withdrawn_date" json:"available_for_withdrawn_date"`
	SettedToAvailableForWithdrawn bool            `db:"setted_to_available_for_withdrawn" json:"setted_to_available_for_withdrawn"`
	CreatedAt                     time.Time       `db:"created_at" json:"created_at"`
}

func newEarning(userID uuid.UUID, typ EarningType, amount decimal.Decimal, currency string, maturity time.Time, matured bool, now time.Time) *Earning {
	return &Earning{
		ID:                            uuid.New(),
		UserID:                        userID,
		Type:                          typ,
		Amount:                        amount,
		Currency:                      currency,
		AvailableForWithdrawnDate:     maturity,
		SettedToAvailableForWithdrawn: matured,
		CreatedAt:                     now,
	}
}

// IsDue reports whether the earning still waits for maturation at now.
func (e Earning) IsDue(now time.Time) bool {
	return !e.SettedToAvailableForWithdrawn && !e.AvailableForWithdrawnDate.After(now)
}

// ForOrder links the earning to the order that produced it.
func (e *Earning) ForOrder(orderID uuid.UUID) *Earning {
	e.OrderID = uuid.NullUUID{UUID: orderID, Valid: true}
	return e
}
