package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/logger"
	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

var errAlreadyMatured = errors.New("earning already matured")

// SweepResult summarizes one sweep run.
type SweepResult struct {
	Matured int
	Skipped int
	Failed  int
}

// MaturitySweeper moves due earnings from pending clearance to the available balance.
type MaturitySweeper struct {
	tx        Transactor
	wallets   WalletStore
	earnings  EarningStore
	notifier  Notifier
	batchSize int
	timeout   time.Duration
	now       func() time.Time
}

// NewMaturitySweeper creates a new MaturitySweeper.
func NewMaturitySweeper(tx Transactor, wallets WalletStore, earnings EarningStore, notifier Notifier, batchSize int, timeout time.Duration) *MaturitySweeper {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &MaturitySweeper{
		tx:        tx,
		wallets:   wallets,
		earnings:  earnings,
		notifier:  notifier,
		batchSize: batchSize,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Run performs one sweep. It takes no arguments so a scheduler can call it directly.
func (s *MaturitySweeper) Run() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res, err := s.Sweep(ctx)
	if err != nil {
		logger.Log.Errorw("maturity sweep failed", "matured", res.Matured, "failed", res.Failed, "error", err)
		return
	}
	logger.Log.Infow("maturity sweep finished", "matured", res.Matured, "skipped", res.Skipped, "failed", res.Failed)
}

// Sweep matures every earning due at the current time. A failure on one
// earning is logged and counted, the remaining earnings are still processed.
func (s *MaturitySweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	now := s.now().UTC()
	failed := make(map[uuid.UUID]struct{})

	for {
		limit := s.batchSize + len(failed)
		due, err := s.earnings.ListDue(ctx, now, limit)
		if err != nil {
			return res, err
		}

		progressed := false
		for _, e := range due {
			if _, ok := failed[e.ID]; ok {
				continue
			}
			if err := ctx.Err(); err != nil {
				return res, err
			}

			err := s.mature(ctx, e)
			switch {
			case err == nil:
				res.Matured++
				progressed = true
				publish(ctx, s.notifier, models.SettlementEvent{
					EventID:    uuid.NewString(),
					Type:       models.EventEarningMatured,
					UserID:     e.UserID,
					OrderID:    e.OrderID.UUID,
					Amount:     e.Amount,
					Currency:   e.Currency,
					OccurredAt: now.Unix(),
				})
			case errors.Is(err, errAlreadyMatured):
				res.Skipped++
				progressed = true
			default:
				res.Failed++
				failed[e.ID] = struct{}{}
				logger.Log.Errorw("failed to mature earning", "earning_id", e.ID, "user_id", e.UserID, "error", err)
			}
		}

		if !progressed || len(due) < limit {
			return res, nil
		}
	}
}

func (s *MaturitySweeper) mature(ctx context.Context, e models.Earning) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := s.earnings.MarkMatured(ctx, e.ID)
		if err != nil {
			return err
		}
		if !ok {
			return errAlreadyMatured
		}

		w, err := s.wallets.GetForUpdate(ctx, e.UserID)
		if err != nil {
			return err
		}
		w.Mature(e.Amount)
		if err := w.CheckInvariants(); err != nil {
			return err
		}
		w.UpdatedAt = s.now().UTC()
		return s.wallets.Update(ctx, w)
	})
}
