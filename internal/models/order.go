package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderType is the payment schedule of an order.
type OrderType string

const (
	OrderNormal     OrderType = "normal"
	OrderTwoPayment OrderType = "two_payment"
	OrderRecurrent  OrderType = "recurrent"
)

// Valid reports whether t is a known order type.
func (t OrderType) Valid() bool {
	switch t {
	case OrderNormal, OrderTwoPayment, OrderRecurrent:
		return true
	}
	return false
}

// OrderStatus is the lifecycle state of an order. Delivered and Cancelled are terminal.
type OrderStatus string

const (
	OrderActive    OrderStatus = "active"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// Offer is what a buyer accepts to create an order. Price and FirstPayment
// are expressed in Currency.
type Offer struct {
	BuyerID      uuid.UUID       `json:"buyer_id"`
	SellerID     uuid.UUID       `json:"seller_id"`
	Type         OrderType       `json:"type"`
	Currency     string          `json:"currency"`
	Price        decimal.Decimal `json:"price"`
	FirstPayment decimal.Decimal `json:"first_payment"`
	Title        string          `json:"title"`
}

// Order carries the rate snapshot fixed at acceptance and the amounts
// computed by each settlement transition. Amounts are in Currency unless
// the field name ends with Base, in which case they are in the wallet currency.
type Order struct {
	ID                uuid.UUID       `db:"order_id" json:"id"`
	BuyerID           uuid.UUID       `db:"buyer_id" json:"buyer_id"`
	SellerID          uuid.UUID       `db:"seller_id" json:"seller_id"`
	Type              OrderType       `db:"type" json:"type"`
	Status            OrderStatus     `db:"status" json:"status"`
	Title             string          `db:"title" json:"title"`
	Currency          string          `db:"currency" json:"currency"`
	RateDate          string          `db:"rate_date" json:"rate_date"`
	Rate              decimal.Decimal `db:"rate" json:"rate"`
	Price             decimal.Decimal `db:"price" json:"price"`
	FirstPayment      decimal.Decimal `db:"first_payment" json:"first_payment"`
	PaymentAtDelivery decimal.Decimal `db:"payment_at_delivery" json:"payment_at_delivery"`
	UsedCredits       decimal.Decimal `db:"used_credits" json:"used_credits"`
	ServiceFee        decimal.Decimal `db:"service_fee" json:"service_fee"`
	TotalAmount       decimal.Decimal `db:"total_amount" json:"total_amount"`
	UsedCreditsBase   decimal.Decimal `db:"used_credits_base" json:"used_credits_base"`
	DueToSellerBase   decimal.Decimal `db:"due_to_seller_base" json:"due_to_seller_base"`
	SubscriptionID    string          `db:"subscription_id" json:"subscription_id,omitempty"`
	RecurringCharge   decimal.Decimal `db:"recurring_charge" json:"recurring_charge"`
	RecurringCredits  decimal.Decimal `db:"recurring_credits_base" json:"recurring_credits_base"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// IsParticipant reports whether userID is the buyer or the seller.
func (o *Order) IsParticipant(userID uuid.UUID) bool {
	return o.BuyerID == userID || o.SellerID == userID
}

// RefundableBase is what the buyer gets back when the order is cancelled.
func (o *Order) RefundableBase() decimal.Decimal {
	return o.DueToSellerBase.Add(o.UsedCreditsBase)
}

// Snapshot returns the rate snapshot fixed at acceptance.
func (o *Order) Snapshot() RateSnapshot {
	return RateSnapshot{Currency: o.Currency, Rate: o.Rate, Date: o.RateDate}
}

// Delivery records a buyer accepting the delivered work.
type Delivery struct {
	ID         uuid.UUID       `db:"delivery_id" json:"id"`
	OrderID    uuid.UUID       `db:"order_id" json:"order_id"`
	AcceptedBy uuid.UUID       `db:"accepted_by" json:"accepted_by"`
	Tip        decimal.Decimal `db:"tip" json:"tip"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// CancelStatus is the state of a cancellation request.
type CancelStatus string

const (
	CancelPending   CancelStatus = "pending"
	CancelAccepted  CancelStatus = "accepted"
	CancelCancelled CancelStatus = "cancelled"
)

// CancelOrder is a request by one participant to cancel an active order.
type CancelOrder struct {
	ID        uuid.UUID    `db:"cancel_order_id" json:"id"`
	OrderID   uuid.UUID    `db:"order_id" json:"order_id"`
	IssuedBy  uuid.UUID    `db:"issued_by" json:"issued_by"`
	Reason    string       `db:"reason" json:"reason"`
	Status    CancelStatus `db:"status" json:"status"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}
