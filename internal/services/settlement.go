package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/logger"
	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

//go:generate mockgen -source=settlement.go -destination=settlement_mock.go -package=services

var (
	orderNamespace  = uuid.MustParse("6f1c3c1e-7a57-4d6e-9a39-2f0a6b8f8f10")
	cancelNamespace = uuid.MustParse("0b9a5c4d-3e2f-4a1b-8c7d-6e5f4a3b2c1d")
)

// OrderStore persists orders and deliveries.
type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Update(ctx context.Context, o *models.Order) error
	CreateDelivery(ctx context.Context, d *models.Delivery) error
}

// CancelOrderStore persists cancellation requests.
type CancelOrderStore interface {
	Create(ctx context.Context, c *models.CancelOrder) error
	Get(ctx context.Context, id uuid.UUID) (*models.CancelOrder, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.CancelOrder, error)
	HasPending(ctx context.Context, orderID uuid.UUID) (bool, error)
	Update(ctx context.Context, c *models.CancelOrder) error
}

// OperationStore persists idempotency records of settlement transitions.
type OperationStore interface {
	// Claim inserts op. When a record with the same key exists it is returned with claimed=false.
	Claim(ctx context.Context, op *models.SettlementOperation) (existing *models.SettlementOperation, claimed bool, err error)
	Complete(ctx context.Context, op *models.SettlementOperation) error
	// Get returns nil without error when no record exists.
	Get(ctx context.Context, key string) (*models.SettlementOperation, error)
}

// RateResolver resolves rate snapshots.
type RateResolver interface {
	Rate(ctx context.Context, currency, asOf string) (models.RateSnapshot, error)
}

// PaymentGateway is the contract required from the card processor.
// Charge and CreateSubscription return the original result when called again
// with the same idempotency key and amount.
type PaymentGateway interface {
	Charge(ctx context.Context, customerRef string, amount models.Money, idempotencyKey string) (models.ChargeReceipt, error)
	Refund(ctx context.Context, chargeKey string) (models.ChargeReceipt, error)
	CreateSubscription(ctx context.Context, customerRef string, amount models.Money, idempotencyKey string) (models.Subscription, error)
	UpdateSubscriptionPrice(ctx context.Context, subscriptionID string, amount models.Money) (models.Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	Invoice(ctx context.Context, subscriptionID, invoiceID string) (models.Invoice, error)
	AttachPaymentMethod(ctx context.Context, customerRef, methodRef string) error
}

// DeliveryAcceptance is the buyer's acceptance of a delivered order.
type DeliveryAcceptance struct {
	OrderID  uuid.UUID
	BuyerID  uuid.UUID
	Tip      decimal.Decimal // In order currency, zero for no tip
	RateDate string          // Snapshot date the client computed with, empty to skip the check
}

// SettlementService runs the order settlement state machine. Each transition
// executes in one transaction together with its idempotency record.
type SettlementService struct {
	tx       Transactor
	wallets  WalletStore
	earnings EarningStore
	orders   OrderStore
	cancels  CancelOrderStore
	ops      OperationStore
	rates    RateResolver
	gateway  PaymentGateway
	notifier Notifier
	calc     *Calculator
	cfg      WalletConfig
	now      func() time.Time
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(
	tx Transactor,
	wallets WalletStore,
	earnings EarningStore,
	orders OrderStore,
	cancels CancelOrderStore,
	ops OperationStore,
	rates RateResolver,
	gateway PaymentGateway,
	notifier Notifier,
	calc *Calculator,
	cfg WalletConfig,
) *SettlementService {
	if cfg.Clearance <= 0 {
		cfg.Clearance = models.DefaultClearance
	}
	return &SettlementService{
		tx:       tx,
		wallets:  wallets,
		earnings: earnings,
		orders:   orders,
		cancels:  cancels,
		ops:      ops,
		rates:    rates,
		gateway:  gateway,
		notifier: notifier,
		calc:     calc,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Order returns the order when userID is one of its participants.
func (s *SettlementService) Order(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsParticipant(userID) {
		return nil, models.ErrOrderNotFound
	}
	return o, nil
}

// AcceptOffer creates an order from offer: it fixes the rate snapshot, charges
// the cash portion and consumes the buyer credits covering the rest.
func (s *SettlementService) AcceptOffer(ctx context.Context, offer models.Offer, key string) (*models.Order, error) {
	if err := validateOffer(offer); err != nil {
		return nil, err
	}

	snap, err := s.rates.Rate(ctx, offer.Currency, models.LatestRate)
	if err != nil {
		return nil, err
	}

	orderID := uuid.NewSHA1(orderNamespace, []byte(key))
	var order *models.Order

	op, replayed, err := s.run(ctx, key, models.OpAcceptOffer, orderID, func(ctx context.Context, op *models.SettlementOperation, comp *compensations) error {
		locked, err := s.lockWallets(ctx, offer.BuyerID, offer.SellerID)
		if err != nil {
			return err
		}
		buyer := locked[offer.BuyerID]

		now := s.now().UTC()
		o := &models.Order{
			ID:                orderID,
			BuyerID:           offer.BuyerID,
			SellerID:          offer.SellerID,
			Type:              offer.Type,
			Status:            models.OrderActive,
			Title:             offer.Title,
			Currency:          strings.ToUpper(offer.Currency),
			RateDate:          snap.Date,
			Rate:              snap.Rate,
			Price:             models.RoundMoney(offer.Price),
			FirstPayment:      decimal.Zero,
			PaymentAtDelivery: decimal.Zero,
			UsedCredits:       decimal.Zero,
			ServiceFee:        decimal.Zero,
			TotalAmount:       decimal.Zero,
			UsedCreditsBase:   decimal.Zero,
			DueToSellerBase:   decimal.Zero,
			RecurringCharge:   decimal.Zero,
			RecurringCredits:  decimal.Zero,
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		var p *payment
		switch o.Type {
		case models.OrderRecurrent:
			p, err = s.subscribe(ctx, op, comp, buyer, o, key+":subscription", now)
		case models.OrderTwoPayment:
			o.FirstPayment = models.RoundMoney(offer.FirstPayment)
			o.PaymentAtDelivery = o.Price.Sub(o.FirstPayment)
			p, err = s.pay(ctx, op, comp, buyer, o, o.FirstPayment, key+":charge", now)
		default:
			p, err = s.pay(ctx, op, comp, buyer, o, o.Price, key+":charge", now)
		}
		if err != nil {
			return err
		}
		p.applyTo(o)

		if err := s.orders.Create(ctx, o); err != nil {
			return err
		}
		if err := s.saveWallets(ctx, now, buyer); err != nil {
			return err
		}
		if err := s.saveEarnings(ctx, p.spent); err != nil {
			return err
		}

		op.ResultID = uuid.NullUUID{UUID: o.ID, Valid: true}
		order = o
		return nil
	})
	if err != nil {
		logger.Log.Errorw("failed to accept offer", "buyer_id", offer.BuyerID, "seller_id", offer.SellerID, "idempotency_key", key, "error", err)
		return nil, err
	}
	if replayed {
		return s.orders.Get(ctx, op.SubjectID)
	}

	publish(ctx, s.notifier, models.NewOrderEvent(models.EventOrderAccepted, order, order.TotalAmount, s.now()))
	return order, nil
}

// AcceptDelivery moves an active order to Delivered. Outstanding payments and
// tips are charged like AcceptOffer, then the seller is credited with a maturing earning.
func (s *SettlementService) AcceptDelivery(ctx context.Context, req DeliveryAcceptance, key string) (*models.Order, error) {
	if req.Tip.IsNegative() {
		return nil, fmt.Errorf("%w: tip %s", models.ErrInvalidAmount, req.Tip)
	}

	var order *models.Order
	var payout decimal.Decimal

	_, replayed, err := s.run(ctx, key, models.OpAcceptDelivery, req.OrderID, func(ctx context.Context, op *models.SettlementOperation, comp *compensations) error {
		o, err := s.orders.GetForUpdate(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if o.Status != models.OrderActive {
			return fmt.Errorf("%w: order %s is %s", models.ErrInvalidStateTransition, o.ID, o.Status)
		}
		if o.BuyerID != req.BuyerID {
			return fmt.Errorf("%w: only the buyer accepts a delivery", models.ErrNotParticipant)
		}
		if err := checkSnapshot(o, req.RateDate); err != nil {
			return err
		}

		locked, err := s.lockWallets(ctx, o.BuyerID, o.SellerID)
		if err != nil {
			return err
		}
		buyer, seller := locked[o.BuyerID], locked[o.SellerID]
		now := s.now().UTC()

		var ledger []*models.Earning

		if o.Type == models.OrderTwoPayment && o.PaymentAtDelivery.IsPositive() {
			p, err := s.pay(ctx, op, comp, buyer, o, o.PaymentAtDelivery, key+":final", now)
			if err != nil {
				return err
			}
			p.applyTo(o)
			ledger = append(ledger, p.spent)
		}

		tip := models.RoundMoney(req.Tip)
		if tip.IsPositive() {
			p, err := s.pay(ctx, op, comp, buyer, o, tip, key+":tip", now)
			if err != nil {
				return err
			}
			ledger = append(ledger, p.spent)

			if tipBase := ToBase(tip, o.Rate); tipBase.IsPositive() {
				e, err := seller.Credit(tipBase, true, now, s.cfg.Clearance)
				if err != nil {
					return err
				}
				ledger = append(ledger, e.ForOrder(o.ID))
			}
		}

		payout = o.RefundableBase()
		if payout.IsPositive() {
			e, err := seller.Credit(payout, true, now, s.cfg.Clearance)
			if err != nil {
				return err
			}
			ledger = append(ledger, e.ForOrder(o.ID))
		}

		if o.Type == models.OrderRecurrent && o.SubscriptionID != "" {
			if err := s.repriceSubscription(ctx, comp, buyer, o); err != nil {
				return err
			}
		}

		o.Status = models.OrderDelivered
		o.UpdatedAt = now
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		if err := s.orders.CreateDelivery(ctx, &models.Delivery{
			ID:         uuid.NewSHA1(o.ID, []byte(key)),
			OrderID:    o.ID,
			AcceptedBy: req.BuyerID,
			Tip:        tip,
			CreatedAt:  now,
		}); err != nil {
			return err
		}
		if err := s.saveWallets(ctx, now, buyer, seller); err != nil {
			return err
		}
		if err := s.saveEarnings(ctx, ledger...); err != nil {
			return err
		}

		op.ResultID = uuid.NullUUID{UUID: o.ID, Valid: true}
		order = o
		return nil
	})
	if err != nil {
		logger.Log.Errorw("failed to accept delivery", "order_id", req.OrderID, "idempotency_key", key, "error", err)
		return nil, err
	}
	if replayed {
		return s.orders.Get(ctx, req.OrderID)
	}

	publish(ctx, s.notifier, models.NewOrderEvent(models.EventOrderDelivered, order, payout, s.now()))
	return order, nil
}

// RequestCancellation records a pending cancellation issued by a participant.
// An order has at most one pending cancellation.
func (s *SettlementService) RequestCancellation(ctx context.Context, orderID, issuerID uuid.UUID, reason, key string) (*models.CancelOrder, error) {
	cancelID := uuid.NewSHA1(cancelNamespace, []byte(key))
	var cancel *models.CancelOrder
	var order *models.Order

	op, replayed, err := s.run(ctx, key, models.OpRequestCancellation, orderID, func(ctx context.Context, op *models.SettlementOperation, _ *compensations) error {
		o, err := s.orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status != models.OrderActive {
			return fmt.Errorf("%w: order %s is %s", models.ErrInvalidStateTransition, o.ID, o.Status)
		}
		if !o.IsParticipant(issuerID) {
			return models.ErrNotParticipant
		}

		pending, err := s.cancels.HasPending(ctx, orderID)
		if err != nil {
			return err
		}
		if pending {
			return fmt.Errorf("%w: order %s already has a pending cancellation", models.ErrInvalidStateTransition, o.ID)
		}

		now := s.now().UTC()
		c := &models.CancelOrder{
			ID:        cancelID,
			OrderID:   orderID,
			IssuedBy:  issuerID,
			Reason:    reason,
			Status:    models.CancelPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.cancels.Create(ctx, c); err != nil {
			return err
		}

		op.ResultID = uuid.NullUUID{UUID: c.ID, Valid: true}
		cancel, order = c, o
		return nil
	})
	if err != nil {
		logger.Log.Errorw("failed to request cancellation", "order_id", orderID, "idempotency_key", key, "error", err)
		return nil, err
	}
	if replayed {
		return s.cancels.Get(ctx, op.ResultID.UUID)
	}

	publish(ctx, s.notifier, models.NewOrderEvent(models.EventCancellationRequested, order, decimal.Zero, s.now()))
	return cancel, nil
}

// AcceptCancellation is the counter-party agreeing to a pending cancellation.
// The buyer gets the order value back as available credits and a recurrent
// order's subscription is cancelled at the gateway before the status changes.
func (s *SettlementService) AcceptCancellation(ctx context.Context, cancelID, userID uuid.UUID, rateDate, key string) (*models.Order, error) {
	var order *models.Order
	var refund decimal.Decimal

	op, replayed, err := s.run(ctx, key, models.OpAcceptCancellation, cancelID, func(ctx context.Context, op *models.SettlementOperation, _ *compensations) error {
		o, c, err := s.lockCancellation(ctx, cancelID)
		if err != nil {
			return err
		}
		if !o.IsParticipant(userID) || userID == c.IssuedBy {
			return fmt.Errorf("%w: only the counter-party accepts a cancellation", models.ErrNotParticipant)
		}
		if err := checkSnapshot(o, rateDate); err != nil {
			return err
		}

		locked, err := s.lockWallets(ctx, o.BuyerID)
		if err != nil {
			return err
		}
		buyer := locked[o.BuyerID]
		now := s.now().UTC()

		// A cancelled subscription cannot be restored. If the commit below
		// fails the order stays active on it until the caller retries with the
		// same key; cancelling again is a no-op at the gateway.
		if o.Type == models.OrderRecurrent && o.SubscriptionID != "" {
			if err := s.gateway.CancelSubscription(ctx, o.SubscriptionID); err != nil {
				return gatewayError("cancel subscription", err)
			}
			op.AddReceipt(o.SubscriptionID)
		}

		var ledger []*models.Earning
		refund = o.RefundableBase()
		if refund.IsPositive() {
			e, err := buyer.Refund(refund, now)
			if err != nil {
				return err
			}
			ledger = append(ledger, e.ForOrder(o.ID))
		}

		c.Status = models.CancelAccepted
		c.UpdatedAt = now
		o.Status = models.OrderCancelled
		o.UpdatedAt = now

		if err := s.cancels.Update(ctx, c); err != nil {
			return err
		}
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		if err := s.saveWallets(ctx, now, buyer); err != nil {
			return err
		}
		if err := s.saveEarnings(ctx, ledger...); err != nil {
			return err
		}

		op.ResultID = uuid.NullUUID{UUID: o.ID, Valid: true}
		order = o
		return nil
	})
	if err != nil {
		logger.Log.Errorw("failed to accept cancellation", "cancel_order_id", cancelID, "idempotency_key", key, "error", err)
		return nil, err
	}
	if replayed {
		return s.orders.Get(ctx, op.ResultID.UUID)
	}

	publish(ctx, s.notifier, models.NewOrderEvent(models.EventOrderCancelled, order, refund, s.now()))
	return order, nil
}

// RejectCancellation closes a pending cancellation and leaves the order active.
func (s *SettlementService) RejectCancellation(ctx context.Context, cancelID, userID uuid.UUID, key string) (*models.CancelOrder, error) {
	var cancel *models.CancelOrder
	var order *models.Order

	_, replayed, err := s.run(ctx, key, models.OpRejectCancellation, cancelID, func(ctx context.Context, op *models.SettlementOperation, _ *compensations) error {
		o, c, err := s.lockCancellation(ctx, cancelID)
		if err != nil {
			return err
		}
		if !o.IsParticipant(userID) {
			return models.ErrNotParticipant
		}

		c.Status = models.CancelCancelled
		c.UpdatedAt = s.now().UTC()
		if err := s.cancels.Update(ctx, c); err != nil {
			return err
		}

		op.ResultID = uuid.NullUUID{UUID: c.ID, Valid: true}
		cancel, order = c, o
		return nil
	})
	if err != nil {
		logger.Log.Errorw("failed to reject cancellation", "cancel_order_id", cancelID, "idempotency_key", key, "error", err)
		return nil, err
	}
	if replayed {
		return s.cancels.Get(ctx, cancelID)
	}

	publish(ctx, s.notifier, models.NewOrderEvent(models.EventCancellationRejected, order, decimal.Zero, s.now()))
	return cancel, nil
}

// RecordSubscriptionPayment settles a renewal invoice of a recurrent order:
// the credits excluded from the subscription price are consumed and the
// seller is credited for the period. The invoice must be a paid renewal of the
// order's subscription at its current price. Each invoice is settled once.
func (s *SettlementService) RecordSubscriptionPayment(ctx context.Context, orderID uuid.UUID, invoiceID string) (*models.Order, error) {
	if strings.TrimSpace(invoiceID) == "" {
		return nil, models.ErrIdempotencyKeyMissing
	}
	key := "subscription_payment:" + invoiceID

	var order *models.Order
	var payout decimal.Decimal

	_, replayed, err := s.run(ctx, key, models.OpSubscriptionPayment, orderID, func(ctx context.Context, op *models.SettlementOperation, _ *compensations) error {
		o, err := s.orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Type != models.OrderRecurrent || o.SubscriptionID == "" || o.Status == models.OrderCancelled {
			return fmt.Errorf("%w: order %s has no live subscription", models.ErrInvalidStateTransition, o.ID)
		}

		inv, err := s.gateway.Invoice(ctx, o.SubscriptionID, invoiceID)
		if err != nil {
			return gatewayError("invoice", err)
		}
		if err := checkInvoice(o, inv); err != nil {
			return err
		}

		locked, err := s.lockWallets(ctx, o.BuyerID, o.SellerID)
		if err != nil {
			return err
		}
		buyer, seller := locked[o.BuyerID], locked[o.SellerID]
		now := s.now().UTC()

		var ledger []*models.Earning
		consumed, spent, err := buyer.ConsumeCredits(o.RecurringCredits, now)
		if err != nil {
			return err
		}
		if spent != nil {
			ledger = append(ledger, spent.ForOrder(o.ID))
		}

		// credits the buyer no longer holds are not paid out
		shortfall := o.RecurringCredits.Sub(consumed)
		payout = decimal.Max(decimal.Zero, ToBase(o.Price, o.Rate).Sub(shortfall))
		if payout.IsPositive() {
			e, err := seller.Credit(payout, true, now, s.cfg.Clearance)
			if err != nil {
				return err
			}
			ledger = append(ledger, e.ForOrder(o.ID))
		}

		o.UpdatedAt = now
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		if err := s.saveWallets(ctx, now, buyer, seller); err != nil {
			return err
		}
		if err := s.saveEarnings(ctx, ledger...); err != nil {
			return err
		}

		op.AddReceipt(inv.ID)
		op.ResultID = uuid.NullUUID{UUID: o.ID, Valid: true}
		order = o
		return nil
	})
	if err != nil {
		logger.Log.Errorw("failed to record subscription payment", "order_id", orderID, "invoice_id", invoiceID, "error", err)
		return nil, err
	}
	if replayed {
		return s.orders.Get(ctx, orderID)
	}

	publish(ctx, s.notifier, models.NewOrderEvent(models.EventSubscriptionPaid, order, payout, s.now()))
	return order, nil
}

// payment is the effect of paying one subtotal of an order.
type payment struct {
	quote    Quote
	consumed decimal.Decimal
	spent    *models.Earning
}

func (p *payment) applyTo(o *models.Order) {
	o.UsedCredits = o.UsedCredits.Add(p.quote.UsedCredits)
	o.ServiceFee = o.ServiceFee.Add(p.quote.ServiceFee)
	o.TotalAmount = o.TotalAmount.Add(p.quote.TotalCharge)
	o.UsedCreditsBase = o.UsedCreditsBase.Add(p.consumed)
	cash := p.quote.Subtotal.Sub(p.quote.UsedCredits)
	if cash.IsPositive() {
		o.DueToSellerBase = o.DueToSellerBase.Add(ToBase(cash, o.Rate))
	}
}

// pay charges the cash portion of subtotal through the gateway and consumes
// the buyer credits that cover the rest. The charge key carries the amount, so
// a retried attempt quoting another amount never reuses an earlier charge.
func (s *SettlementService) pay(ctx context.Context, op *models.SettlementOperation, comp *compensations, buyer *models.Wallet, o *models.Order, subtotal decimal.Decimal, purposeKey string, now time.Time) (*payment, error) {
	q, err := s.calc.Quote(QuoteInput{Balance: buyer.Credits(), Subtotal: subtotal, Rate: o.Rate})
	if err != nil {
		return nil, err
	}

	if q.CashCharge.IsPositive() {
		if buyer.PaymentMethodRef == "" {
			return nil, models.ErrPaymentMethodMissing
		}
		amount := models.NewMoney(q.CashCharge, o.Currency)
		chargeKey := amountKey(purposeKey, amount)
		receipt, err := s.gateway.Charge(ctx, buyer.CustomerRef, amount, chargeKey)
		if err != nil {
			return nil, gatewayError("charge", err)
		}
		if receipt.Status != models.ChargeSucceeded {
			return nil, fmt.Errorf("%w: charge %s is %s", models.ErrGateway, receipt.ID, receipt.Status)
		}
		comp.add("refund "+chargeKey, receipt.ID, func(ctx context.Context) error {
			_, err := s.gateway.Refund(ctx, chargeKey)
			return err
		})
		if !sameMoney(receipt.Amount, receipt.Currency, amount) {
			return nil, fmt.Errorf("%w: charge %s captured %s %s, asked %s", models.ErrGateway, receipt.ID, receipt.Amount, receipt.Currency, amount)
		}
		op.AddReceipt(receipt.ID)
	}

	return s.consume(buyer, o, q, now)
}

// subscribe opens the gateway subscription of a recurrent order priced at the
// cash portion of one period.
func (s *SettlementService) subscribe(ctx context.Context, op *models.SettlementOperation, comp *compensations, buyer *models.Wallet, o *models.Order, subKey string, now time.Time) (*payment, error) {
	q, err := s.calc.Quote(QuoteInput{Balance: buyer.Credits(), Subtotal: o.Price, Rate: o.Rate})
	if err != nil {
		return nil, err
	}
	if buyer.PaymentMethodRef == "" {
		return nil, models.ErrPaymentMethodMissing
	}

	amount := models.NewMoney(q.CashCharge, o.Currency)
	sub, err := s.gateway.CreateSubscription(ctx, buyer.CustomerRef, amount, amountKey(subKey, amount))
	if err != nil {
		return nil, gatewayError("create subscription", err)
	}
	if sub.Status != models.SubscriptionActive {
		return nil, fmt.Errorf("%w: subscription %s is %s", models.ErrGateway, sub.ID, sub.Status)
	}
	comp.add("cancel subscription "+sub.ID, sub.ID, func(ctx context.Context) error {
		return s.gateway.CancelSubscription(ctx, sub.ID)
	})
	if !sameMoney(sub.Amount, sub.Currency, amount) {
		return nil, fmt.Errorf("%w: subscription %s is %s %s, asked %s", models.ErrGateway, sub.ID, sub.Amount, sub.Currency, amount)
	}
	op.AddReceipt(sub.ID)

	p, err := s.consume(buyer, o, q, now)
	if err != nil {
		return nil, err
	}
	o.SubscriptionID = sub.ID
	o.RecurringCharge = q.CashCharge
	o.RecurringCredits = p.consumed
	return p, nil
}

// repriceSubscription recomputes the next periods against the buyer's remaining credits.
func (s *SettlementService) repriceSubscription(ctx context.Context, comp *compensations, buyer *models.Wallet, o *models.Order) error {
	q, err := s.calc.Quote(QuoteInput{Balance: buyer.Credits(), Subtotal: o.Price, Rate: o.Rate})
	if err != nil {
		return err
	}

	previous := models.NewMoney(o.RecurringCharge, o.Currency)
	if _, err := s.gateway.UpdateSubscriptionPrice(ctx, o.SubscriptionID, models.NewMoney(q.CashCharge, o.Currency)); err != nil {
		return gatewayError("update subscription price", err)
	}
	subID := o.SubscriptionID
	comp.add("restore subscription price "+subID, "", func(ctx context.Context) error {
		_, err := s.gateway.UpdateSubscriptionPrice(ctx, subID, previous)
		return err
	})

	o.RecurringCharge = q.CashCharge
	o.RecurringCredits = q.UsedCreditsBase
	return nil
}

func (s *SettlementService) consume(buyer *models.Wallet, o *models.Order, q Quote, now time.Time) (*payment, error) {
	consumed, spent, err := buyer.ConsumeCredits(q.UsedCreditsBase, now)
	if err != nil {
		return nil, err
	}
	if !consumed.Equal(q.UsedCreditsBase) {
		return nil, fmt.Errorf("%w: consumed %s of quoted %s", models.ErrInvariantViolation, consumed, q.UsedCreditsBase)
	}
	if spent != nil {
		spent.ForOrder(o.ID)
	}
	return &payment{quote: q, consumed: consumed, spent: spent}, nil
}

// run executes fn in a transaction guarded by the idempotency record for key.
// A completed record short-circuits fn and is returned with replayed=true.
// Compensations survive retried attempts: when fn finally fails every gateway
// side effect is undone, and when it commits the effects of earlier attempts
// that the committed record does not reference are undone.
func (s *SettlementService) run(
	ctx context.Context,
	key string,
	kind models.OperationKind,
	subjectID uuid.UUID,
	fn func(ctx context.Context, op *models.SettlementOperation, comp *compensations) error,
) (*models.SettlementOperation, bool, error) {
	if strings.TrimSpace(key) == "" {
		return nil, false, models.ErrIdempotencyKeyMissing
	}

	var (
		op       *models.SettlementOperation
		replayed bool
		comp     compensations
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		comp.begin()
		replayed = false
		op = &models.SettlementOperation{
			IdempotencyKey: key,
			Operation:      kind,
			SubjectID:      subjectID,
			CreatedAt:      s.now().UTC(),
		}

		existing, claimed, err := s.ops.Claim(ctx, op)
		if err != nil {
			return err
		}
		if !claimed {
			if err := matchOperation(existing, kind, subjectID); err != nil {
				return err
			}
			op, replayed = existing, true
			return nil
		}

		if err := fn(ctx, op, &comp); err != nil {
			return err
		}
		completed := s.now().UTC()
		op.CompletedAt = &completed
		return s.ops.Complete(ctx, op)
	})
	if err == nil {
		if replayed {
			comp.orphaned(op).run(ctx, key)
		} else {
			comp.superseded(op).run(ctx, key)
		}
		return op, replayed, nil
	}
	if comp.empty() {
		return nil, false, err
	}

	// the commit may have succeeded even though it reported an error
	if committed, getErr := s.ops.Get(context.WithoutCancel(ctx), key); getErr == nil && committed != nil && committed.Completed() {
		logger.Log.Warnw("transition committed despite error", "idempotency_key", key, "error", err)
		comp.orphaned(committed).run(ctx, key)
		return committed, true, nil
	}
	comp.all().run(ctx, key)
	return nil, false, err
}

func matchOperation(existing *models.SettlementOperation, kind models.OperationKind, subjectID uuid.UUID) error {
	if existing.Operation != kind || existing.SubjectID != subjectID {
		return fmt.Errorf("%w: key used by %s on %s", models.ErrIdempotencyConflict, existing.Operation, existing.SubjectID)
	}
	if !existing.Completed() {
		return fmt.Errorf("%w: operation %s still in progress", models.ErrIdempotencyConflict, existing.IdempotencyKey)
	}
	return nil
}

// lockCancellation locks the order, then the pending cancel order.
func (s *SettlementService) lockCancellation(ctx context.Context, cancelID uuid.UUID) (*models.Order, *models.CancelOrder, error) {
	c, err := s.cancels.Get(ctx, cancelID)
	if err != nil {
		return nil, nil, err
	}
	o, err := s.orders.GetForUpdate(ctx, c.OrderID)
	if err != nil {
		return nil, nil, err
	}
	c, err = s.cancels.GetForUpdate(ctx, cancelID)
	if err != nil {
		return nil, nil, err
	}
	if c.Status != models.CancelPending {
		return nil, nil, fmt.Errorf("%w: cancellation %s is %s", models.ErrInvalidStateTransition, c.ID, c.Status)
	}
	if o.Status != models.OrderActive {
		return nil, nil, fmt.Errorf("%w: order %s is %s", models.ErrInvalidStateTransition, o.ID, o.Status)
	}
	return o, c, nil
}

// lockWallets row-locks the wallets of ids in ascending id order.
func (s *SettlementService) lockWallets(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*models.Wallet, error) {
	sorted := slices.Clone(ids)
	slices.SortFunc(sorted, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	sorted = slices.Compact(sorted)

	locked := make(map[uuid.UUID]*models.Wallet, len(sorted))
	for _, id := range sorted {
		w, err := s.wallets.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		locked[id] = w
	}
	return locked, nil
}

func (s *SettlementService) saveWallets(ctx context.Context, now time.Time, wallets ...*models.Wallet) error {
	for _, w := range wallets {
		if err := w.CheckInvariants(); err != nil {
			return err
		}
		w.UpdatedAt = now
		if err := s.wallets.Update(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

func (s *SettlementService) saveEarnings(ctx context.Context, earnings ...*models.Earning) error {
	for _, e := range earnings {
		if e == nil {
			continue
		}
		if err := s.earnings.Create(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func validateOffer(offer models.Offer) error {
	switch {
	case offer.BuyerID == uuid.Nil || offer.SellerID == uuid.Nil:
		return fmt.Errorf("%w: buyer and seller are required", models.ErrNotParticipant)
	case offer.BuyerID == offer.SellerID:
		return fmt.Errorf("%w: buyer and seller must differ", models.ErrNotParticipant)
	case !offer.Type.Valid():
		return fmt.Errorf("%w: unknown order type %q", models.ErrInvalidStateTransition, offer.Type)
	case !offer.Price.IsPositive():
		return fmt.Errorf("%w: price %s", models.ErrInvalidAmount, offer.Price)
	}
	if offer.Type == models.OrderTwoPayment {
		if !offer.FirstPayment.IsPositive() || !offer.FirstPayment.LessThan(offer.Price) {
			return fmt.Errorf("%w: first payment %s of %s", models.ErrInvalidAmount, offer.FirstPayment, offer.Price)
		}
	}
	return nil
}

// checkSnapshot verifies the order still carries the rate snapshot fixed at
// acceptance and that the caller computed with the same one.
func checkSnapshot(o *models.Order, rateDate string) error {
	if o.RateDate == "" || !o.Rate.IsPositive() {
		return fmt.Errorf("%w: order %s has no rate snapshot", models.ErrStaleSnapshot, o.ID)
	}
	if rateDate != "" && rateDate != o.RateDate {
		return fmt.Errorf("%w: order %s uses %s, got %s", models.ErrStaleSnapshot, o.ID, o.RateDate, rateDate)
	}
	return nil
}

// checkInvoice accepts only a paid renewal of the order's subscription billed
// at the order's current recurring charge.
func checkInvoice(o *models.Order, inv models.Invoice) error {
	switch {
	case inv.SubscriptionID != o.SubscriptionID:
		return fmt.Errorf("%w: invoice %s belongs to %s", models.ErrGateway, inv.ID, inv.SubscriptionID)
	case inv.Status != models.InvoicePaid:
		return fmt.Errorf("%w: invoice %s is %s", models.ErrGateway, inv.ID, inv.Status)
	case !inv.Renewal():
		return fmt.Errorf("%w: invoice %s bills the first period", models.ErrGateway, inv.ID)
	case !sameMoney(inv.Amount, inv.Currency, models.NewMoney(o.RecurringCharge, o.Currency)):
		return fmt.Errorf("%w: invoice %s is %s %s, order charges %s %s", models.ErrGateway, inv.ID, inv.Amount, inv.Currency, o.RecurringCharge, o.Currency)
	}
	return nil
}

func amountKey(key string, amount models.Money) string {
	return key + ":" + amount.Amount.StringFixed(2)
}

func sameMoney(amount decimal.Decimal, currency string, m models.Money) bool {
	return amount.Equal(m.Amount) && strings.EqualFold(currency, m.Currency)
}

func gatewayError(action string, err error) error {
	if errors.Is(err, models.ErrGateway) {
		return fmt.Errorf("%s: %w", action, err)
	}
	return fmt.Errorf("%w: %s: %v", models.ErrGateway, action, err)
}

// compensations undo gateway side effects of a transition that did not commit.
// Entries are kept across retried attempts of the same transition.
type compensations struct {
	attempt int
	items   []compensation
}

type compensation struct {
	name    string
	ref     string // Gateway receipt or subscription id, empty when none
	attempt int    // Last attempt that produced the side effect
	fn      func(ctx context.Context) error
}

func (c *compensations) begin() {
	c.attempt++
}

// add registers fn under name. A name added again by a later attempt keeps the
// first fn and is marked as used by the current attempt.
func (c *compensations) add(name, ref string, fn func(ctx context.Context) error) {
	for i := range c.items {
		if c.items[i].name == name {
			c.items[i].attempt = c.attempt
			return
		}
	}
	c.items = append(c.items, compensation{name: name, ref: ref, attempt: c.attempt, fn: fn})
}

func (c *compensations) empty() bool {
	return len(c.items) == 0
}

func (c *compensations) all() compensationList {
	return c.items
}

// superseded returns effects of earlier attempts that the committed op does not reference.
func (c *compensations) superseded(op *models.SettlementOperation) compensationList {
	var out compensationList
	for _, it := range c.items {
		if it.attempt < c.attempt && !slices.Contains(op.Receipts(), it.ref) {
			out = append(out, it)
		}
	}
	return out
}

// orphaned returns gateway effects that a record committed elsewhere does not reference.
func (c *compensations) orphaned(op *models.SettlementOperation) compensationList {
	var out compensationList
	for _, it := range c.items {
		if it.ref != "" && !slices.Contains(op.Receipts(), it.ref) {
			out = append(out, it)
		}
	}
	return out
}

type compensationList []compensation

func (l compensationList) run(ctx context.Context, key string) {
	ctx = context.WithoutCancel(ctx)
	for i := len(l) - 1; i >= 0; i-- {
		if err := l[i].fn(ctx); err != nil {
			logger.Log.Errorw("compensation failed", "idempotency_key", key, "action", l[i].name, "error", err)
			continue
		}
		logger.Log.Warnw("compensation applied", "idempotency_key", key, "action", l[i].name)
	}
}
