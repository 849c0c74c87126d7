package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"digital-wallet/internal/core/domain"
	"digital-wallet/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository. The table is
// insert-only; completed movement records are never updated or deleted.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const transactionColumns = `id, kind, status, sender_id, recipient_id, amount, memo, created_at, updated_at`

// Create inserts a movement record within the enclosing unit of work.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.Kind, t.Status, t.SenderID, t.RecipientID,
		t.Amount, t.Memo, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a transaction by UUID. Returns nil when absent.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	return scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// ListForUser fetches transactions where the user is sender or recipient,
// newest first, with filtering and pagination.
func (r *TransactionRepo) ListForUser(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("(sender_id = $%d OR recipient_id = $%d)", argIdx, argIdx))
	args = append(args, params.UserID)
	argIdx++

	if params.Kind != nil {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", argIdx))
		args = append(args, *params.Kind)
		argIdx++
	}
	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= to_timestamp($%d)", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= to_timestamp($%d)", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT `+transactionColumns+`
		FROM transactions %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		err := rows.Scan(
			&t.ID, &t.Kind, &t.Status, &t.SenderID, &t.RecipientID,
			&t.Amount, &t.Memo, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, total, nil
}

// GetSummary aggregates a user's completed movements.
func (r *TransactionRepo) GetSummary(ctx context.Context, userID uuid.UUID, periodStart *int64) (*ports.TransactionSummary, error) {
	var args []any
	argIdx := 1

	condition := fmt.Sprintf("(sender_id = $%d OR recipient_id = $%d)", argIdx, argIdx)
	args = append(args, userID)
	argIdx++

	if periodStart != nil {
		condition += fmt.Sprintf(" AND created_at >= to_timestamp($%d)", argIdx)
		args = append(args, *periodStart)
		argIdx++
	}

	query := fmt.Sprintf(`SELECT
		COUNT(*) AS total,
		COALESCE(SUM(amount) FILTER (WHERE kind = 'deposit' AND recipient_id = $1), 0) AS deposited,
		COALESCE(SUM(amount) FILTER (WHERE kind = 'withdrawal' AND sender_id = $1), 0) AS withdrawn,
		COALESCE(SUM(amount) FILTER (WHERE kind = 'transfer' AND sender_id = $1), 0) AS sent,
		COALESCE(SUM(amount) FILTER (WHERE kind = 'transfer' AND recipient_id = $1), 0) AS received
		FROM transactions WHERE %s`, condition)

	summary := &ports.TransactionSummary{}
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&summary.TotalTransactions,
		&summary.TotalDeposited, &summary.TotalWithdrawn,
		&summary.TotalSent, &summary.TotalReceived,
	)
	if err != nil {
		return nil, fmt.Errorf("get transaction summary: %w", err)
	}
	return summary, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.Kind, &t.Status, &t.SenderID, &t.RecipientID,
		&t.Amount, &t.Memo, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}
