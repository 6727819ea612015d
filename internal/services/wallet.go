package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/logger"
	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

//go:generate mockgen -source=wallet.go -destination=wallet_mock.go -package=services

// Transactor runs fn inside a database transaction carried by the context.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error // Commits when fn returns nil
}

// WalletStore persists wallets.
type WalletStore interface {
	Create(ctx context.Context, w *models.Wallet) error                       // Inserts a wallet unless one exists
	Get(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)          // Reads a wallet
	GetForUpdate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) // Reads and row-locks a wallet
	Update(ctx context.Context, w *models.Wallet) error                       // Writes all balances
}

// EarningStore persists the earning ledger.
type EarningStore interface {
	Create(ctx context.Context, e *models.Earning) error                                   // Appends an entry
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Earning, error) // Newest first
	ListDue(ctx context.Context, now time.Time, limit int) ([]models.Earning, error)       // Unmatured entries due at now
	MarkMatured(ctx context.Context, id uuid.UUID) (bool, error)                           // Compare-and-set of the matured flag
}

// Notifier publishes settlement events after commit.
type Notifier interface {
	Publish(ctx context.Context, event models.SettlementEvent) error
}

// PaymentMethodAttacher stores a payment method for a gateway customer.
type PaymentMethodAttacher interface {
	AttachPaymentMethod(ctx context.Context, customerRef, methodRef string) error
}

// WalletConfig holds settings shared by services that mutate wallets.
type WalletConfig struct {
	Currency  string        // Currency all wallets are held in
	Clearance time.Duration // Holding window of credited earnings
}

// WalletService performs single-wallet operations under a row lock.
type WalletService struct {
	tx       Transactor
	wallets  WalletStore
	earnings EarningStore
	methods  PaymentMethodAttacher
	notifier Notifier
	cfg      WalletConfig
	now      func() time.Time
}

// NewWalletService creates a new WalletService.
func NewWalletService(
	tx Transactor,
	wallets WalletStore,
	earnings EarningStore,
	methods PaymentMethodAttacher,
	notifier Notifier,
	cfg WalletConfig,
) *WalletService {
	if cfg.Clearance <= 0 {
		cfg.Clearance = models.DefaultClearance
	}
	return &WalletService{
		tx:       tx,
		wallets:  wallets,
		earnings: earnings,
		methods:  methods,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Open creates a zero-balance wallet for the user. Opening twice returns the existing wallet.
func (s *WalletService) Open(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet *models.Wallet
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		customerRef := "cus_" + strings.ReplaceAll(userID.String(), "-", "")
		if err := s.wallets.Create(ctx, models.NewWallet(userID, s.cfg.Currency, customerRef, s.now().UTC())); err != nil {
			return err
		}
		w, err := s.wallets.Get(ctx, userID)
		if err != nil {
			return err
		}
		wallet = w
		return nil
	})
	if err != nil {
		logger.Log.Errorw("failed to open wallet", "user_id", userID, "error", err)
		return nil, err
	}
	return wallet, nil
}

// Get returns the user's wallet.
func (s *WalletService) Get(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return s.wallets.Get(ctx, userID)
}

// Earnings returns the user's most recent ledger entries.
func (s *WalletService) Earnings(ctx context.Context, userID uuid.UUID, limit int) ([]models.Earning, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.earnings.ListByUser(ctx, userID, limit)
}

// Credit adds amount to the wallet, as a maturing earning when asEarning is set.
func (s *WalletService) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, asEarning bool) (*models.Wallet, error) {
	return s.mutate(ctx, userID, func(w *models.Wallet, now time.Time) (*models.Earning, error) {
		return w.Credit(amount, asEarning, now, s.cfg.Clearance)
	})
}

// ConsumeCredits draws up to amount from the wallet and returns what was consumed.
func (s *WalletService) ConsumeCredits(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, *models.Wallet, error) {
	consumed := decimal.Zero
	w, err := s.mutate(ctx, userID, func(w *models.Wallet, now time.Time) (*models.Earning, error) {
		c, spent, err := w.ConsumeCredits(amount, now)
		consumed = c
		return spent, err
	})
	return consumed, w, err
}

// Refund returns credits to the available balance.
func (s *WalletService) Refund(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*models.Wallet, error) {
	return s.mutate(ctx, userID, func(w *models.Wallet, now time.Time) (*models.Earning, error) {
		return w.Refund(amount, now)
	})
}

// Withdraw removes amount from the available balance and publishes the withdrawal.
func (s *WalletService) Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*models.Wallet, error) {
	w, err := s.mutate(ctx, userID, func(w *models.Wallet, now time.Time) (*models.Earning, error) {
		return w.Withdraw(amount, now)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.notifier, models.SettlementEvent{
		EventID:    uuid.NewString(),
		Type:       models.EventWithdrawal,
		UserID:     userID,
		Amount:     amount,
		Currency:   w.Currency,
		OccurredAt: s.now().Unix(),
	})
	return w, nil
}

// AttachPaymentMethod registers methodRef with the gateway and stores it on the wallet.
func (s *WalletService) AttachPaymentMethod(ctx context.Context, userID uuid.UUID, methodRef string) (*models.Wallet, error) {
	if methodRef == "" {
		return nil, fmt.Errorf("%w: empty payment method", models.ErrPaymentMethodMissing)
	}
	return s.mutate(ctx, userID, func(w *models.Wallet, _ time.Time) (*models.Earning, error) {
		if err := s.methods.AttachPaymentMethod(ctx, w.CustomerRef, methodRef); err != nil {
			return nil, fmt.Errorf("%w: attach payment method: %v", models.ErrGateway, err)
		}
		w.PaymentMethodRef = methodRef
		return nil, nil
	})
}

// AdjustKarma changes the karma counter by delta, never below zero.
func (s *WalletService) AdjustKarma(ctx context.Context, userID uuid.UUID, delta int64) (*models.Wallet, error) {
	return s.mutate(ctx, userID, func(w *models.Wallet, _ time.Time) (*models.Earning, error) {
		w.KarmaAmount += delta
		if w.KarmaAmount < 0 {
			w.KarmaAmount = 0
		}
		return nil, nil
	})
}

func (s *WalletService) mutate(ctx context.Context, userID uuid.UUID, fn func(w *models.Wallet, now time.Time) (*models.Earning, error)) (*models.Wallet, error) {
	var wallet *models.Wallet
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		w, err := s.wallets.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		earning, err := fn(w, now)
		if err != nil {
			return err
		}
		if err := w.CheckInvariants(); err != nil {
			return err
		}
		w.UpdatedAt = now
		if err := s.wallets.Update(ctx, w); err != nil {
			return err
		}
		if earning != nil {
			if err := s.earnings.Create(ctx, earning); err != nil {
				return err
			}
		}
		wallet = w
		return nil
	})
	if err != nil {
		logger.Log.Errorw("wallet operation failed", "user_id", userID, "error", err)
		return nil, err
	}
	return wallet, nil
}
