package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

// WalletRepository stores wallets in PostgreSQL.
type WalletRepository struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Create inserts a wallet. An existing wallet of the same user is left untouched.
func (r *WalletRepository) Create(ctx context.Context, w *models.Wallet) error {
	const query = `
		INSERT INTO wallets (
			user_id, currency, karma_amount, net_income, available_for_withdrawal,
			pending_clearance, used_for_purchases, customer_ref, payment_method_ref,
			created_at, updated_at
		) VALUES (
			:user_id, :currency, :karma_amount, :net_income, :available_for_withdrawal,
			:pending_clearance, :used_for_purchases, :customer_ref, :payment_method_ref,
			:created_at, :updated_at
		)
		ON CONFLICT (user_id) DO NOTHING
	`

	_, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db), query, w)
	logQuery(query, []any{w.UserID, w.Currency}, err)
	return err
}

// Get reads the wallet of userID.
func (r *WalletRepository) Get(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return r.get(ctx, userID, false)
}

// GetForUpdate reads the wallet of userID and locks its row until the transaction ends.
func (r *WalletRepository) GetForUpdate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return r.get(ctx, userID, true)
}

func (r *WalletRepository) get(ctx context.Context, userID uuid.UUID, forUpdate bool) (*models.Wallet, error) {
	query := `
		SELECT user_id, currency, karma_amount, net_income, available_for_withdrawal,
			pending_clearance, used_for_purchases, customer_ref, payment_method_ref,
			created_at, updated_at
		FROM wallets
		WHERE user_id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var w models.Wallet
	err := sqlx.GetContext(ctx, executor(ctx, r.db), &w, query, userID)
	logQuery(query, []any{userID}, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Update writes every balance of w.
func (r *WalletRepository) Update(ctx context.Context, w *models.Wallet) error {
	const query = `
		UPDATE wallets SET
			karma_amount = :karma_amount,
			net_income = :net_income,
			available_for_withdrawal = :available_for_withdrawal,
			pending_clearance = :pending_clearance,
			used_for_purchases = :used_for_purchases,
			payment_method_ref = :payment_method_ref,
			updated_at = :updated_at
		WHERE user_id = :user_id
	`

	res, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db), query, w)
	logQuery(query, []any{w.UserID, w.AvailableForWithdrawal, w.PendingClearance, w.UsedForPurchases}, err)
	if err != nil {
		return err
	}
	return requireRow(res, models.ErrWalletNotFound)
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
