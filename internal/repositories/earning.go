package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

// EarningRepository stores the earning ledger.
type EarningRepository struct {
	db *sqlx.DB
}

func NewEarningRepository(db *sqlx.DB) *EarningRepository {
	return &EarningRepository{db: db}
}

const earningColumns = `earning_id, user_id, order_id, type, amount, currency,
	available_for_withdrawn_date, setted_to_available_for_withdrawn, created_at`

// Create appends e to the ledger.
func (r *EarningRepository) Create(ctx context.Context, e *models.Earning) error {
	const query = `
		INSERT INTO earnings (` + earningColumns + `)
		VALUES (:earning_id, :user_id, :order_id, :type, :amount, :currency,
			:available_for_withdrawn_date, :setted_to_available_for_withdrawn, :created_at)
	`

	_, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db), query, e)
	logQuery(query, []any{e.ID, e.UserID, e.Type, e.Amount}, err)
	return err
}

// ListByUser returns up to limit entries of userID, newest first.
func (r *EarningRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Earning, error) {
	const query = `
		SELECT ` + earningColumns + `
		FROM earnings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	var earnings []models.Earning
	err := sqlx.SelectContext(ctx, executor(ctx, r.db), &earnings, query, userID, limit)
	logQuery(query, []any{userID, limit}, err)
	return earnings, err
}

// ListDue returns up to limit unmatured entries whose maturity is not after now, oldest first.
func (r *EarningRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]models.Earning, error) {
	const query = `
		SELECT ` + earningColumns + `
		FROM earnings
		WHERE NOT setted_to_available_for_withdrawn
			AND available_for_withdrawn_date <= $1
		ORDER BY available_for_withdrawn_date
		LIMIT $2
	`

	var earnings []models.Earning
	err := sqlx.SelectContext(ctx, executor(ctx, r.db), &earnings, query, now, limit)
	logQuery(query, []any{now, limit}, err)
	return earnings, err
}

// MarkMatured flips the matured flag of id. It reports false when another
// sweep already did.
func (r *EarningRepository) MarkMatured(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `
		UPDATE earnings
		SET setted_to_available_for_withdrawn = TRUE
		WHERE earning_id = $1 AND NOT setted_to_available_for_withdrawn
	`

	res, err := executor(ctx, r.db).ExecContext(ctx, query, id)
	logQuery(query, []any{id}, err)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
