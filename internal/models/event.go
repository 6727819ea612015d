package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Settlement event types.
const (
	EventOrderAccepted         = "order.accepted"
	EventOrderDelivered        = "order.delivered"
	EventCancellationRequested = "order.cancellation.requested"
	EventOrderCancelled        = "order.cancelled"
	EventCancellationRejected  = "order.cancellation.rejected"
	EventSubscriptionPaid      = "order.subscription.paid"
	EventEarningMatured        = "earning.matured"
	EventWithdrawal            = "wallet.withdrawal"
)

// SettlementEvent is published after a transition commits.
type SettlementEvent struct {
	EventID    string          `json:"event_id"`
	Type       string          `json:"type"`
	OrderID    uuid.UUID       `json:"order_id,omitempty"`
	BuyerID    uuid.UUID       `json:"buyer_id,omitempty"`
	SellerID   uuid.UUID       `json:"seller_id,omitempty"`
	UserID     uuid.UUID       `json:"user_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	RateDate   string          `json:"rate_date,omitempty"`
	OccurredAt int64           `json:"occurred_at"`
}

// NewOrderEvent builds an event describing order.
func NewOrderEvent(typ string, order *Order, amount decimal.Decimal, now time.Time) SettlementEvent {
	return SettlementEvent{
		EventID:    uuid.NewString(),
		Type:       typ,
		OrderID:    order.ID,
		BuyerID:    order.BuyerID,
		SellerID:   order.SellerID,
		Amount:     amount,
		Currency:   order.Currency,
		RateDate:   order.RateDate,
		OccurredAt: now.Unix(),
	}
}
