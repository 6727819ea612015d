package models

import "errors"

var (
	// ErrRateUnavailable is returned when no conversion rate can be resolved for a currency/date.
	ErrRateUnavailable = errors.New("rate unavailable")
	// ErrGateway is returned when the payment gateway rejects or fails an operation.
	ErrGateway = errors.New("payment gateway error")
	// ErrInsufficientFunds is returned when a withdrawal exceeds the available balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidStateTransition is returned when an order or cancellation cannot move to the requested state.
	ErrInvalidStateTransition = errors.New("invalid state transition")
	// ErrStaleSnapshot is returned when a transition refers to a rate snapshot the order does not carry.
	ErrStaleSnapshot = errors.New("stale rate snapshot")
	// ErrCurrencyMismatch is returned when money in different currencies is combined.
	ErrCurrencyMismatch = errors.New("currency mismatch")
	// ErrInvariantViolation is returned when a wallet mutation would leave a negative balance.
	ErrInvariantViolation = errors.New("wallet invariant violation")
	// ErrInvalidAmount is returned for zero or negative amounts where a positive one is required.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrPaymentMethodMissing is returned when a cash charge is needed but the buyer has no payment method.
	ErrPaymentMethodMissing = errors.New("payment method missing")
	// ErrNotParticipant is returned when the caller is not the expected party of an order.
	ErrNotParticipant = errors.New("user is not a participant of the order")
	// ErrIdempotencyConflict is returned when an idempotency key is reused for a different operation.
	ErrIdempotencyConflict = errors.New("idempotency key reused for a different operation")
	// ErrIdempotencyKeyMissing is returned when a settlement transition is attempted without a key.
	ErrIdempotencyKeyMissing = errors.New("idempotency key missing")

	ErrWalletNotFound      = errors.New("wallet not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrCancelOrderNotFound = errors.New("cancel order not found")
)
