package postgres

import (
	"context"
	"testing"
	"time"

	"digital-wallet/internal/core/domain"
	"digital-wallet/internal/core/ports"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransfer(sender, recipient uuid.UUID, amount string) *domain.Transaction {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Transaction{
		ID:          uuid.New(),
		Kind:        domain.TransactionKindTransfer,
		Status:      domain.TransactionStatusCompleted,
		SenderID:    &sender,
		RecipientID: &recipient,
		Amount:      decimal.RequireFromString(amount),
		Memo:        "rent",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func transactionCols() []string {
	return []string{"id", "kind", "status", "sender_id", "recipient_id", "amount", "memo", "created_at", "updated_at"}
}

func transactionRow(t *domain.Transaction) *pgxmock.Rows {
	return pgxmock.NewRows(transactionCols()).AddRow(
		t.ID, t.Kind, t.Status, t.SenderID, t.RecipientID,
		t.Amount, t.Memo, t.CreatedAt, t.UpdatedAt,
	)
}

func TestTransactionRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransfer(uuid.New(), uuid.New(), "200.00")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(txn.ID, txn.Kind, txn.Status, txn.SenderID, txn.RecipientID,
			txn.Amount, txn.Memo, txn.CreatedAt, txn.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, txn)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransfer(uuid.New(), uuid.New(), "15.75")

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE id").
		WithArgs(txn.ID).
		WillReturnRows(transactionRow(txn))

	result, err := repo.GetByID(context.Background(), txn.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, txn.ID, result.ID)
	assert.True(t, result.Amount.Equal(txn.Amount))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByID_Absent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(transactionCols()))

	result, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_ListForUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	userID := uuid.New()
	txn := newTestTransfer(userID, uuid.New(), "10.00")

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM transactions").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT .+ FROM transactions .+ ORDER BY created_at DESC").
		WithArgs(userID, 20, 0).
		WillReturnRows(transactionRow(txn))

	txns, total, err := repo.ListForUser(context.Background(), ports.TransactionListParams{
		UserID:   userID,
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, txns, 1)
	assert.Equal(t, txn.ID, txns[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_ListForUser_WithFilters(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	userID := uuid.New()
	kind := domain.TransactionKindDeposit
	status := domain.TransactionStatusCompleted
	from := time.Now().Add(-24 * time.Hour).Unix()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM transactions").
		WithArgs(userID, kind, status, from).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery("SELECT .+ FROM transactions .+ ORDER BY created_at DESC").
		WithArgs(userID, kind, status, from, 10, 0).
		WillReturnRows(pgxmock.NewRows(transactionCols()))

	txns, total, err := repo.ListForUser(context.Background(), ports.TransactionListParams{
		UserID:   userID,
		Kind:     &kind,
		Status:   &status,
		From:     &from,
		Page:     1,
		PageSize: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, txns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetSummary(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	userID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(
			[]string{"total", "deposited", "withdrawn", "sent", "received"},
		).AddRow(
			int64(4),
			decimal.RequireFromString("100.00"),
			decimal.RequireFromString("20.00"),
			decimal.RequireFromString("30.00"),
			decimal.RequireFromString("5.00"),
		))

	summary, err := repo.GetSummary(context.Background(), userID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), summary.TotalTransactions)
	assert.True(t, summary.TotalDeposited.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, summary.TotalWithdrawn.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, summary.TotalSent.Equal(decimal.RequireFromString("30.00")))
	assert.True(t, summary.TotalReceived.Equal(decimal.RequireFromString("5.00")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
