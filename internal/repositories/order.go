package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

// OrderRepository stores orders and their deliveries.
type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `order_id, buyer_id, seller_id, type, status, title, currency,
	rate_date, rate, price, first_payment, payment_at_delivery, used_credits,
	service_fee, total_amount, used_credits_base, due_to_seller_base,
	subscription_id, recurring_charge, recurring_credits_base, created_at, updated_at`

// Create inserts o.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	const query = `
		INSERT INTO orders (` + orderColumns + `)
		VALUES (:order_id, :buyer_id, :seller_id, :type, :status, :title, :currency,
			:rate_date, :rate, :price, :first_payment, :payment_at_delivery, :used_credits,
			:service_fee, :total_amount, :used_credits_base, :due_to_seller_base,
			:subscription_id, :recurring_charge, :recurring_credits_base, :created_at, :updated_at)
	`

	_, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db), query, o)
	logQuery(query, []any{o.ID, o.BuyerID, o.SellerID, o.Type, o.TotalAmount}, err)
	return err
}

// Get reads order id.
func (r *OrderRepository) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate reads order id and locks its row until the transaction ends.
func (r *OrderRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.get(ctx, id, true)
}

func (r *OrderRepository) get(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var o models.Order
	err := sqlx.GetContext(ctx, executor(ctx, r.db), &o, query, id)
	logQuery(query, []any{id}, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Update writes the mutable fields of o. The rate snapshot is never rewritten.
func (r *OrderRepository) Update(ctx context.Context, o *models.Order) error {
	const query = `
		UPDATE orders SET
			status = :status,
			payment_at_delivery = :payment_at_delivery,
			used_credits = :used_credits,
			service_fee = :service_fee,
			total_amount = :total_amount,
			used_credits_base = :used_credits_base,
			due_to_seller_base = :due_to_seller_base,
			subscription_id = :subscription_id,
			recurring_charge = :recurring_charge,
			recurring_credits_base = :recurring_credits_base,
			updated_at = :updated_at
		WHERE order_id = :order_id
	`

	res, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db), query, o)
	logQuery(query, []any{o.ID, o.Status}, err)
	if err != nil {
		return err
	}
	return requireRow(res, models.ErrOrderNotFound)
}

// CreateDelivery records the acceptance of a delivered order.
func (r *OrderRepository) CreateDelivery(ctx context.Context, d *models.Delivery) error {
	const query = `
		INSERT INTO deliveries (delivery_id, order_id, accepted_by, tip, created_at)
		VALUES (:delivery_id, :order_id, :accepted_by, :tip, :created_at)
	`

	_, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db), query, d)
	logQuery(query, []any{d.ID, d.OrderID, d.Tip}, err)
	return err
}
