package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

// OperationRepository stores idempotency records of settlement transitions.
type OperationRepository struct {
	db *sqlx.DB
}

func NewOperationRepository(db *sqlx.DB) *OperationRepository {
	return &OperationRepository{db: db}
}

const operationColumns = `idempotency_key, operation, subject_id, result_id, receipt_ids, created_at, completed_at`

// Claim inserts op. When the key is taken the stored record is returned with
// claimed=false; inside a transaction a concurrent claimer waits until the
// first one commits or rolls back.
func (r *OperationRepository) Claim(ctx context.Context, op *models.SettlementOperation) (*models.SettlementOperation, bool, error) {
	const query = `
		INSERT INTO settlement_operations (` + operationColumns + `)
		VALUES (:idempotency_key, :operation, :subject_id, :result_id, :receipt_ids, :created_at, :completed_at)
		ON CONFLICT (idempotency_key) DO NOTHING
	`

	res, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db), query, op)
	logQuery(query, []any{op.IdempotencyKey, op.Operation, op.SubjectID}, err)
	if err != nil {
		return nil, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	if n == 1 {
		return nil, true, nil
	}

	existing, err := r.Get(ctx, op.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, errors.New("idempotency record vanished after conflict")
	}
	return existing, false, nil
}

// Complete stores the outcome of op.
func (r *OperationRepository) Complete(ctx context.Context, op *models.SettlementOperation) error {
	const query = `
		UPDATE settlement_operations SET
			result_id = :result_id,
			receipt_ids = :receipt_ids,
			completed_at = :completed_at
		WHERE idempotency_key = :idempotency_key
	`

	res, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db), query, op)
	logQuery(query, []any{op.IdempotencyKey, op.ResultID, op.ReceiptIDs}, err)
	if err != nil {
		return err
	}
	return requireRow(res, sql.ErrNoRows)
}

// Get reads the record of key. It returns nil without error when there is none.
func (r *OperationRepository) Get(ctx context.Context, key string) (*models.SettlementOperation, error) {
	const query = `SELECT ` + operationColumns + ` FROM settlement_operations WHERE idempotency_key = $1`

	var op models.SettlementOperation
	err := sqlx.GetContext(ctx, executor(ctx, r.db), &op, query, key)
	logQuery(query, []any{key}, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &op, nil
}
