package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

// CancelOrderRepository stores cancellation requests.
type CancelOrderRepository struct {
	db *sqlx.DB
}

func NewCancelOrderRepository(db *sqlx.DB) *CancelOrderRepository {
	return &CancelOrderRepository{db: db}
}

const cancelOrderColumns = `cancel_order_id, order_id, issued_by, reason, status, created_at, updated_at`

// Create inserts c.
func (r *CancelOrderRepository) Create(ctx context.Context, c *models.CancelOrder) error {
	const query = `
		INSERT INTO cancel_orders (` + cancelOrderColumns + `)
		VALUES (:cancel_order_id, :order_id, :issued_by, :reason, :status, :created_at, :updated_at)
	`

	_, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db), query, c)
	logQuery(query, []any{c.ID, c.OrderID, c.IssuedBy}, err)
	return err
}

// Get reads cancel order id.
func (r *CancelOrderRepository) Get(ctx context.Context, id uuid.UUID) (*models.CancelOrder, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate reads cancel order id and locks its row.
func (r *CancelOrderRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.CancelOrder, error) {
	return r.get(ctx, id, true)
}

func (r *CancelOrderRepository) get(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.CancelOrder, error) {
	query := `SELECT ` + cancelOrderColumns + ` FROM cancel_orders WHERE cancel_order_id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var c models.CancelOrder
	err := sqlx.GetContext(ctx, executor(ctx, r.db), &c, query, id)
	logQuery(query, []any{id}, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrCancelOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// HasPending reports whether orderID has a pending cancellation.
func (r *CancelOrderRepository) HasPending(ctx context.Context, orderID uuid.UUID) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM cancel_orders WHERE order_id = $1 AND status = $2
		)
	`

	var pending bool
	err := sqlx.GetContext(ctx, executor(ctx, r.db), &pending, query, orderID, models.CancelPending)
	logQuery(query, []any{orderID}, err)
	return pending, err
}

// Update writes the status of c.
func (r *CancelOrderRepository) Update(ctx context.Context, c *models.CancelOrder) error {
	const query = `
		UPDATE cancel_orders SET status = :status, updated_at = :updated_at
		WHERE cancel_order_id = :cancel_order_id
	`

	res, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db), query, c)
	logQuery(query, []any{c.ID, c.Status}, err)
	if err != nil {
		return err
	}
	return requireRow(res, models.ErrCancelOrderNotFound)
}
