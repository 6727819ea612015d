package facades

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	bolt "github.com/boltdb/bolt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/logger"
	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

var (
	chargesBucket       = []byte("charges")
	subscriptionsBucket = []byte("subscriptions")
	subscriptionKeys    = []byte("subscription_keys")
	methodsBucket       = []byte("payment_methods")
	invoicesBucket      = []byte("invoices")
)

// DeclinedMethodSuffix marks sandbox payment methods whose charges are declined.
const DeclinedMethodSuffix = "_declined"

var (
	// ErrChargeNotFound is returned when refunding an unknown charge key.
	ErrChargeNotFound = errors.New("charge not found")
	// ErrSubscriptionNotFound is returned for an unknown subscription id.
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrNoPaymentMethod is returned when the customer has no attached method.
	ErrNoPaymentMethod = errors.New("customer has no payment method")
	// ErrInvoiceNotFound is returned for an invoice unknown to the subscription.
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrKeyReused is returned when an idempotency key comes back with another amount.
	ErrKeyReused = errors.New("idempotency key reused with different parameters")
)

// SandboxGateway is a card processor substitute persisted in a BoltDB file.
// Charges and subscriptions are keyed by idempotency key: repeating a call
// with the same key returns the stored result without a second effect.
type SandboxGateway struct {
	db  *bolt.DB
	now func() time.Time
}

// NewSandboxGateway opens (or creates) the gateway file at path.
func NewSandboxGateway(path string) (*SandboxGateway, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{chargesBucket, subscriptionsBucket, subscriptionKeys, methodsBucket, invoicesBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SandboxGateway{db: db, now: time.Now}, nil
}

// Close releases the database file lock.
func (g *SandboxGateway) Close() error {
	return g.db.Close()
}

// AttachPaymentMethod stores methodRef as the customer's default method.
func (g *SandboxGateway) AttachPaymentMethod(ctx context.Context, customerRef, methodRef string) error {
	if !strings.HasPrefix(methodRef, "pm_") {
		return fmt.Errorf("invalid payment method %q", methodRef)
	}
	err := g.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(methodsBucket).Put([]byte(customerRef), []byte(methodRef))
	})
	logger.Log.Infow("payment method attached", "customer_ref", customerRef, "error", err)
	return err
}

// Charge debits amount from the customer's default method.
func (g *SandboxGateway) Charge(ctx context.Context, customerRef string, amount models.Money, idempotencyKey string) (models.ChargeReceipt, error) {
	if err := ctx.Err(); err != nil {
		return models.ChargeReceipt{}, err
	}

	var receipt models.ChargeReceipt
	err := g.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(chargesBucket)
		if existing := b.Get([]byte(idempotencyKey)); existing != nil {
			if err := json.Unmarshal(existing, &receipt); err != nil {
				return err
			}
			if !sameMoney(receipt.Amount, receipt.Currency, amount) {
				return fmt.Errorf("%w: charge %s is %s %s, asked %s", ErrKeyReused, receipt.ID, receipt.Amount, receipt.Currency, amount)
			}
			return nil
		}

		method := tx.Bucket(methodsBucket).Get([]byte(customerRef))
		if method == nil {
			return ErrNoPaymentMethod
		}
		if !amount.Amount.IsPositive() {
			return fmt.Errorf("charge amount must be positive, got %s", amount)
		}

		receipt = models.ChargeReceipt{
			ID:             "ch_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
			IdempotencyKey: idempotencyKey,
			CustomerRef:    customerRef,
			Amount:         amount.Amount,
			Currency:       amount.Currency,
			Status:         models.ChargeSucceeded,
			CreatedAt:      g.now().UTC(),
		}
		if strings.HasSuffix(string(method), DeclinedMethodSuffix) {
			receipt.Status = models.ChargeDeclined
		}
		return put(b, idempotencyKey, receipt)
	})
	if err != nil {
		logger.Log.Errorw("sandbox charge failed", "customer_ref", customerRef, "idempotency_key", idempotencyKey, "error", err)
		return models.ChargeReceipt{}, err
	}

	logger.Log.Infow("sandbox charge", "charge_id", receipt.ID, "amount", receipt.Amount, "currency", receipt.Currency, "status", receipt.Status)
	return receipt, nil
}

// Refund reverses the charge created with chargeKey. Refunding twice is a no-op.
func (g *SandboxGateway) Refund(ctx context.Context, chargeKey string) (models.ChargeReceipt, error) {
	var receipt models.ChargeReceipt
	err := g.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(chargesBucket)
		v := b.Get([]byte(chargeKey))
		if v == nil {
			return ErrChargeNotFound
		}
		if err := json.Unmarshal(v, &receipt); err != nil {
			return err
		}
		if receipt.Status == models.ChargeRefunded {
			return nil
		}
		receipt.Status = models.ChargeRefunded
		return put(b, chargeKey, receipt)
	})
	if err != nil {
		return models.ChargeReceipt{}, err
	}

	logger.Log.Infow("sandbox refund", "charge_id", receipt.ID, "idempotency_key", chargeKey)
	return receipt, nil
}

// CreateSubscription opens a recurring charge of amount per period.
func (g *SandboxGateway) CreateSubscription(ctx context.Context, customerRef string, amount models.Money, idempotencyKey string) (models.Subscription, error) {
	var sub models.Subscription
	err := g.db.Update(func(tx *bolt.Tx) error {
		subs := tx.Bucket(subscriptionsBucket)
		if id := tx.Bucket(subscriptionKeys).Get([]byte(idempotencyKey)); id != nil {
			if err := json.Unmarshal(subs.Get(id), &sub); err != nil {
				return err
			}
			if !sameMoney(sub.InitialAmount, sub.Currency, amount) {
				return fmt.Errorf("%w: subscription %s opened at %s %s, asked %s", ErrKeyReused, sub.ID, sub.InitialAmount, sub.Currency, amount)
			}
			return nil
		}

		if tx.Bucket(methodsBucket).Get([]byte(customerRef)) == nil {
			return ErrNoPaymentMethod
		}

		now := g.now().UTC()
		sub = models.Subscription{
			ID:             "sub_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
			IdempotencyKey: idempotencyKey,
			CustomerRef:    customerRef,
			Amount:         amount.Amount,
			InitialAmount:  amount.Amount,
			Currency:       amount.Currency,
			Status:         models.SubscriptionActive,
			Period:         1,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.Bucket(subscriptionKeys).Put([]byte(idempotencyKey), []byte(sub.ID)); err != nil {
			return err
		}
		if err := putInvoice(tx, newInvoice(sub, models.InvoicePaid, now)); err != nil {
			return err
		}
		return put(subs, sub.ID, sub)
	})
	if err != nil {
		logger.Log.Errorw("sandbox subscription failed", "customer_ref", customerRef, "idempotency_key", idempotencyKey, "error", err)
		return models.Subscription{}, err
	}
	return sub, nil
}

// UpdateSubscriptionPrice changes the amount charged in the following periods.
func (g *SandboxGateway) UpdateSubscriptionPrice(ctx context.Context, subscriptionID string, amount models.Money) (models.Subscription, error) {
	var sub models.Subscription
	err := g.updateSubscription(subscriptionID, func(s *models.Subscription) error {
		if s.Status != models.SubscriptionActive {
			return fmt.Errorf("subscription %s is %s", s.ID, s.Status)
		}
		s.Amount = amount.Amount
		s.Currency = amount.Currency
		sub = *s
		return nil
	})
	return sub, err
}

// CancelSubscription stops the subscription. Cancelling twice is a no-op.
func (g *SandboxGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	return g.updateSubscription(subscriptionID, func(s *models.Subscription) error {
		s.Status = models.SubscriptionCancelled
		return nil
	})
}

// RenewSubscription bills the next period of an active subscription at its
// current amount. The invoice fails when the customer's method is declined.
func (g *SandboxGateway) RenewSubscription(ctx context.Context, subscriptionID string) (models.Invoice, error) {
	var inv models.Invoice
	err := g.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(subscriptionsBucket)
		v := b.Get([]byte(subscriptionID))
		if v == nil {
			return ErrSubscriptionNotFound
		}
		var sub models.Subscription
		if err := json.Unmarshal(v, &sub); err != nil {
			return err
		}
		if sub.Status != models.SubscriptionActive {
			return fmt.Errorf("subscription %s is %s", sub.ID, sub.Status)
		}

		status := models.InvoicePaid
		method := tx.Bucket(methodsBucket).Get([]byte(sub.CustomerRef))
		if method == nil || strings.HasSuffix(string(method), DeclinedMethodSuffix) {
			status = models.InvoiceFailed
		}

		now := g.now().UTC()
		sub.Period++
		sub.UpdatedAt = now
		inv = newInvoice(sub, status, now)
		if err := putInvoice(tx, inv); err != nil {
			return err
		}
		return put(b, sub.ID, sub)
	})
	if err != nil {
		return models.Invoice{}, err
	}

	logger.Log.Infow("sandbox invoice", "invoice_id", inv.ID, "subscription_id", subscriptionID, "period", inv.Period, "amount", inv.Amount, "status", inv.Status)
	return inv, nil
}

// Invoice returns invoiceID when it belongs to subscriptionID.
func (g *SandboxGateway) Invoice(ctx context.Context, subscriptionID, invoiceID string) (models.Invoice, error) {
	var inv models.Invoice
	err := g.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(invoicesBucket).Get([]byte(invoiceID))
		if v == nil {
			return ErrInvoiceNotFound
		}
		if err := json.Unmarshal(v, &inv); err != nil {
			return err
		}
		if inv.SubscriptionID != subscriptionID {
			return ErrInvoiceNotFound
		}
		return nil
	})
	return inv, err
}

// Subscription returns the stored subscription.
func (g *SandboxGateway) Subscription(subscriptionID string) (models.Subscription, error) {
	var sub models.Subscription
	err := g.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(subscriptionsBucket).Get([]byte(subscriptionID))
		if v == nil {
			return ErrSubscriptionNotFound
		}
		return json.Unmarshal(v, &sub)
	})
	return sub, err
}

func (g *SandboxGateway) updateSubscription(id string, fn func(s *models.Subscription) error) error {
	return g.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(subscriptionsBucket)
		v := b.Get([]byte(id))
		if v == nil {
			return ErrSubscriptionNotFound
		}
		var sub models.Subscription
		if err := json.Unmarshal(v, &sub); err != nil {
			return err
		}
		if err := fn(&sub); err != nil {
			return err
		}
		sub.UpdatedAt = g.now().UTC()
		return put(b, id, sub)
	})
}

func newInvoice(sub models.Subscription, status string, now time.Time) models.Invoice {
	return models.Invoice{
		ID:             "in_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		SubscriptionID: sub.ID,
		Period:         sub.Period,
		Amount:         sub.Amount,
		Currency:       sub.Currency,
		Status:         status,
		CreatedAt:      now,
	}
}

func putInvoice(tx *bolt.Tx, inv models.Invoice) error {
	return put(tx.Bucket(invoicesBucket), inv.ID, inv)
}

func sameMoney(amount decimal.Decimal, currency string, m models.Money) bool {
	return amount.Equal(m.Amount) && strings.EqualFold(currency, m.Currency)
}

func put(b *bolt.Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), data)
}
