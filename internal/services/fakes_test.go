package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

// memDB is an in-memory store whose transactions are serialized and rolled
// back on error, which is enough to exercise the services end to end.
type memDB struct {
	txMu       sync.Mutex
	mu         sync.Mutex
	wallets    map[uuid.UUID]models.Wallet
	earnings   map[uuid.UUID]models.Earning
	orders     map[uuid.UUID]models.Order
	cancels    map[uuid.UUID]models.CancelOrder
	deliveries map[uuid.UUID]models.Delivery
	ops        map[string]models.SettlementOperation
}

func newMemDB() *memDB {
	return &memDB{
		wallets:    map[uuid.UUID]models.Wallet{},
		earnings:   map[uuid.UUID]models.Earning{},
		orders:     map[uuid.UUID]models.Order{},
		cancels:    map[uuid.UUID]models.CancelOrder{},
		deliveries: map[uuid.UUID]models.Delivery{},
		ops:        map[string]models.SettlementOperation{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (db *memDB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.Lock()
	wallets, earnings, orders := cloneMap(db.wallets), cloneMap(db.earnings), cloneMap(db.orders)
	cancels, deliveries, ops := cloneMap(db.cancels), cloneMap(db.deliveries), cloneMap(db.ops)
	db.mu.Unlock()

	if err := fn(ctx); err != nil {
		db.mu.Lock()
		db.wallets, db.earnings, db.orders = wallets, earnings, orders
		db.cancels, db.deliveries, db.ops = cancels, deliveries, ops
		db.mu.Unlock()
		return err
	}
	return nil
}

// flakyTx runs transactions on db and reports a lost connection for the first
// failures attempts after fn succeeded, so that those attempts roll back. Up
// to retries failed attempts are retried, calling beforeRetry first.
type flakyTx struct {
	db          *memDB
	failures    int
	retries     int
	beforeRetry func()
	attempts    int
}

func (tx *flakyTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	for {
		tx.attempts++
		err := tx.db.WithinTx(ctx, func(ctx context.Context) error {
			if err := fn(ctx); err != nil {
				return err
			}
			if tx.failures > 0 {
				tx.failures--
				return errors.New("connection reset by peer")
			}
			return nil
		})
		if err == nil || tx.attempts > tx.retries {
			return err
		}
		if tx.beforeRetry != nil {
			tx.beforeRetry()
		}
	}
}

func (db *memDB) setAvailable(id uuid.UUID, available string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	w := db.wallets[id]
	w.AvailableForWithdrawal = decimal.RequireFromString(available)
	db.wallets[id] = w
}

func (db *memDB) wallet(id uuid.UUID) models.Wallet {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.wallets[id]
}

func (db *memDB) earningsOf(id uuid.UUID) []models.Earning {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []models.Earning
	for _, e := range db.earnings {
		if e.UserID == id {
			out = append(out, e)
		}
	}
	return out
}

func (db *memDB) seedWallet(available, pending string, withMethod bool) uuid.UUID {
	id := uuid.New()
	w := models.NewWallet(id, models.USD, "cus_"+id.String(), time.Now())
	w.AvailableForWithdrawal = decimal.RequireFromString(available)
	w.PendingClearance = decimal.RequireFromString(pending)
	if withMethod {
		w.PaymentMethodRef = "pm_card_visa"
	}
	db.mu.Lock()
	db.wallets[id] = *w
	db.mu.Unlock()
	return id
}

// Transactions are serialized by txMu; mu only guards map access.

type memWallets struct{ db *memDB }

func (s memWallets) Create(_ context.Context, w *models.Wallet) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.wallets[w.UserID]; !ok {
		s.db.wallets[w.UserID] = *w
	}
	return nil
}

func (s memWallets) Get(_ context.Context, id uuid.UUID) (*models.Wallet, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	w, ok := s.db.wallets[id]
	if !ok {
		return nil, models.ErrWalletNotFound
	}
	return &w, nil
}

func (s memWallets) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	return s.Get(ctx, id)
}

func (s memWallets) Update(_ context.Context, w *models.Wallet) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.wallets[w.UserID] = *w
	return nil
}

type memEarnings struct{ db *memDB }

func (s memEarnings) Create(_ context.Context, e *models.Earning) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.earnings[e.ID] = *e
	return nil
}

func (s memEarnings) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]models.Earning, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.Earning
	for _, e := range s.db.earnings {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s memEarnings) ListDue(_ context.Context, now time.Time, limit int) ([]models.Earning, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.Earning
	for _, e := range s.db.earnings {
		if e.IsDue(now) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AvailableForWithdrawnDate.Before(out[j].AvailableForWithdrawnDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s memEarnings) MarkMatured(_ context.Context, id uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	e, ok := s.db.earnings[id]
	if !ok || e.SettedToAvailableForWithdrawn {
		return false, nil
	}
	e.SettedToAvailableForWithdrawn = true
	s.db.earnings[id] = e
	return true, nil
}

type memOrders struct{ db *memDB }

func (s memOrders) Create(_ context.Context, o *models.Order) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.orders[o.ID]; ok {
		return fmt.Errorf("duplicate order %s", o.ID)
	}
	s.db.orders[o.ID] = *o
	return nil
}

func (s memOrders) Get(_ context.Context, id uuid.UUID) (*models.Order, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	o, ok := s.db.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	return &o, nil
}

func (s memOrders) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.Get(ctx, id)
}

func (s memOrders) Update(_ context.Context, o *models.Order) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.orders[o.ID] = *o
	return nil
}

func (s memOrders) CreateDelivery(_ context.Context, d *models.Delivery) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.deliveries[d.ID] = *d
	return nil
}

type memCancels struct{ db *memDB }

func (s memCancels) Create(_ context.Context, c *models.CancelOrder) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.cancels[c.ID] = *c
	return nil
}

func (s memCancels) Get(_ context.Context, id uuid.UUID) (*models.CancelOrder, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.cancels[id]
	if !ok {
		return nil, models.ErrCancelOrderNotFound
	}
	return &c, nil
}

func (s memCancels) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.CancelOrder, error) {
	return s.Get(ctx, id)
}

func (s memCancels) HasPending(_ context.Context, orderID uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, c := range s.db.cancels {
		if c.OrderID == orderID && c.Status == models.CancelPending {
			return true, nil
		}
	}
	return false, nil
}

func (s memCancels) Update(_ context.Context, c *models.CancelOrder) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.cancels[c.ID] = *c
	return nil
}

type memOps struct{ db *memDB }

func (s memOps) Claim(_ context.Context, op *models.SettlementOperation) (*models.SettlementOperation, bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if existing, ok := s.db.ops[op.IdempotencyKey]; ok {
		return &existing, false, nil
	}
	s.db.ops[op.IdempotencyKey] = *op
	return nil, true, nil
}

func (s memOps) Complete(_ context.Context, op *models.SettlementOperation) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.ops[op.IdempotencyKey] = *op
	return nil
}

func (s memOps) Get(_ context.Context, key string) (*models.SettlementOperation, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	op, ok := s.db.ops[key]
	if !ok {
		return nil, nil
	}
	return &op, nil
}

var errFakeKeyReused = errors.New("idempotency key reused with different parameters")

// fakeGateway is an idempotent in-memory gateway.
type fakeGateway struct {
	mu            sync.Mutex
	charges       map[string]models.ChargeReceipt
	subscriptions map[string]models.Subscription
	invoices      map[string]models.Invoice
	calls         int
	failCharge    error
	declineRenew  bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		charges:       map[string]models.ChargeReceipt{},
		subscriptions: map[string]models.Subscription{},
		invoices:      map[string]models.Invoice{},
	}
}

func (g *fakeGateway) Charge(_ context.Context, customerRef string, amount models.Money, key string) (models.ChargeReceipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.failCharge != nil {
		return models.ChargeReceipt{}, g.failCharge
	}
	if r, ok := g.charges[key]; ok {
		if !r.Amount.Equal(amount.Amount) || r.Currency != amount.Currency {
			return models.ChargeReceipt{}, errFakeKeyReused
		}
		return r, nil
	}
	r := models.ChargeReceipt{ID: "ch_" + uuid.NewString(), IdempotencyKey: key, CustomerRef: customerRef, Amount: amount.Amount, Currency: amount.Currency, Status: models.ChargeSucceeded}
	g.charges[key] = r
	return r, nil
}

func (g *fakeGateway) Refund(_ context.Context, key string) (models.ChargeReceipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.charges[key]
	r.Status = models.ChargeRefunded
	g.charges[key] = r
	return r, nil
}

// captured sums the charges that were not refunded.
func (g *fakeGateway) captured() decimal.Decimal {
	g.mu.Lock()
	defer g.mu.Unlock()
	total := decimal.Zero
	for _, r := range g.charges {
		if r.Status == models.ChargeSucceeded {
			total = total.Add(r.Amount)
		}
	}
	return total
}

func (g *fakeGateway) CreateSubscription(_ context.Context, customerRef string, amount models.Money, key string) (models.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.subscriptions[key]; ok {
		if !s.InitialAmount.Equal(amount.Amount) || s.Currency != amount.Currency {
			return models.Subscription{}, errFakeKeyReused
		}
		return s, nil
	}
	s := models.Subscription{
		ID: "sub_" + uuid.NewString(), IdempotencyKey: key, CustomerRef: customerRef,
		Amount: amount.Amount, InitialAmount: amount.Amount, Currency: amount.Currency,
		Status: models.SubscriptionActive, Period: 1,
	}
	g.subscriptions[key] = s
	g.bill(s, models.InvoicePaid)
	return s, nil
}

func (g *fakeGateway) bill(s models.Subscription, status string) models.Invoice {
	inv := models.Invoice{ID: "in_" + uuid.NewString(), SubscriptionID: s.ID, Period: s.Period, Amount: s.Amount, Currency: s.Currency, Status: status}
	g.invoices[inv.ID] = inv
	return inv
}

// renew bills the next period of subscription id at its current price.
func (g *fakeGateway) renew(id string) models.Invoice {
	g.mu.Lock()
	defer g.mu.Unlock()
	k, s := g.subscription(id)
	s.Period++
	g.subscriptions[k] = s
	if g.declineRenew {
		return g.bill(s, models.InvoiceFailed)
	}
	return g.bill(s, models.InvoicePaid)
}

// firstInvoice returns the invoice billed when subscription id was created.
func (g *fakeGateway) firstInvoice(id string) models.Invoice {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, inv := range g.invoices {
		if inv.SubscriptionID == id && inv.Period == 1 {
			return inv
		}
	}
	return models.Invoice{}
}

func (g *fakeGateway) Invoice(_ context.Context, subscriptionID, invoiceID string) (models.Invoice, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	inv, ok := g.invoices[invoiceID]
	if !ok || inv.SubscriptionID != subscriptionID {
		return models.Invoice{}, fmt.Errorf("invoice %s not found", invoiceID)
	}
	return inv, nil
}

func (g *fakeGateway) subscription(id string) (string, models.Subscription) {
	for k, s := range g.subscriptions {
		if s.ID == id {
			return k, s
		}
	}
	return "", models.Subscription{}
}

func (g *fakeGateway) UpdateSubscriptionPrice(_ context.Context, id string, amount models.Money) (models.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	k, s := g.subscription(id)
	s.Amount = amount.Amount
	g.subscriptions[k] = s
	return s, nil
}

func (g *fakeGateway) CancelSubscription(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	k, s := g.subscription(id)
	s.Status = models.SubscriptionCancelled
	g.subscriptions[k] = s
	return nil
}

func (g *fakeGateway) AttachPaymentMethod(context.Context, string, string) error { return nil }

type fixedRate struct {
	snap models.RateSnapshot
}

func (r fixedRate) Rate(context.Context, string, string) (models.RateSnapshot, error) {
	return r.snap, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.SettlementEvent
}

func (n *recordingNotifier) Publish(_ context.Context, e models.SettlementEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return nil
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}
