package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Gateway receipt and subscription statuses.
const (
	ChargeSucceeded = "succeeded"
	ChargeDeclined  = "declined"
	ChargeRefunded  = "refunded"

	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"

	InvoicePaid   = "paid"
	InvoiceFailed = "failed"
)

// ChargeReceipt is the gateway's record of a captured charge.
type ChargeReceipt struct {
	ID             string          `json:"id"`
	IdempotencyKey string          `json:"idempotency_key"`
	CustomerRef    string          `json:"customer_ref"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Subscription is a gateway-side recurring charge.
type Subscription struct {
	ID             string          `json:"id"`
	IdempotencyKey string          `json:"idempotency_key"`
	CustomerRef    string          `json:"customer_ref"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
	InitialAmount  decimal.Decimal `json:"initial_amount"` // Amount asked on creation
	Period         int             `json:"period"`         // Last billed period, the first one is billed on creation
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Invoice is the gateway's bill for one subscription period.
type Invoice struct {
	ID             string          `json:"id"`
	SubscriptionID string          `json:"subscription_id"`
	Period         int             `json:"period"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Renewal reports whether the invoice bills a period after the first one.
func (i Invoice) Renewal() bool {
	return i.Period > 1
}
