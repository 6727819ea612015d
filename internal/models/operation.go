package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OperationKind names a settlement transition guarded by an idempotency key.
type OperationKind string

const (
	OpAcceptOffer         OperationKind = "accept_offer"
	OpAcceptDelivery      OperationKind = "accept_delivery"
	OpRequestCancellation OperationKind = "request_cancellation"
	OpAcceptCancellation  OperationKind = "accept_cancellation"
	OpRejectCancellation  OperationKind = "reject_cancellation"
	OpSubscriptionPayment OperationKind = "subscription_payment"
)

// SettlementOperation is written in the same transaction as the wallet and
// order mutations of a transition, together with the gateway receipts it used.
// SubjectID is the order, or the cancel order for cancellation decisions.
type SettlementOperation struct {
	IdempotencyKey string        `db:"idempotency_key"`
	Operation      OperationKind `db:"operation"`
	SubjectID      uuid.UUID     `db:"subject_id"`
	ResultID       uuid.NullUUID `db:"result_id"`
	ReceiptIDs     string        `db:"receipt_ids"`
	CreatedAt      time.Time     `db:"created_at"`
	CompletedAt    *time.Time    `db:"completed_at"`
}

// Completed reports whether the transition already committed.
func (op *SettlementOperation) Completed() bool {
	return op.CompletedAt != nil
}

// AddReceipt records a gateway receipt or subscription id.
func (op *SettlementOperation) AddReceipt(id string) {
	if id == "" {
		return
	}
	if op.ReceiptIDs == "" {
		op.ReceiptIDs = id
		return
	}
	op.ReceiptIDs = op.ReceiptIDs + "," + id
}

// Receipts returns the recorded receipt ids.
func (op *SettlementOperation) Receipts() []string {
	if op.ReceiptIDs == "" {
		return nil
	}
	return strings.Split(op.ReceiptIDs, ",")
}
