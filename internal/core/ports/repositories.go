package ports

import (
	"context"

	"digital-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// UserRepository defines persistence operations for principals.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx run inside a unit of work and rely on row-level
// pessimistic locking (SELECT ... FOR UPDATE).
type WalletRepository interface {
	// GetByOwner is a non-locking read. Returns nil when no wallet exists.
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
	// GetByOwnerForUpdate locks the wallet row until the transaction ends.
	// Returns nil when no wallet exists; it never creates one.
	GetByOwnerForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error)
	// LockOrCreateByOwner returns the owner's wallet under an exclusive lock,
	// creating it with a zero balance first if absent. Safe against a caller
	// that already holds the same row's lock in tx.
	LockOrCreateByOwner(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error)
	// UpdateBalance persists a new balance for a locked wallet row.
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error
}

// TransactionRepository defines persistence for the immutable movement ledger.
// Rows are insert-only; there is no update or delete path.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	// ListForUser returns transactions where the user is sender or recipient,
	// newest first, with the total count before pagination.
	ListForUser(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	GetSummary(ctx context.Context, userID uuid.UUID, periodStart *int64) (*TransactionSummary, error)
}

// TransactionListParams holds filter + pagination for history queries.
type TransactionListParams struct {
	UserID   uuid.UUID
	Kind     *domain.TransactionKind
	Status   *domain.TransactionStatus
	From     *int64 // Unix timestamp, inclusive
	To       *int64 // Unix timestamp, inclusive
	Page     int
	PageSize int
}

// TransactionSummary aggregates a user's movement history.
type TransactionSummary struct {
	TotalTransactions int64
	TotalDeposited    decimal.Decimal
	TotalWithdrawn    decimal.Decimal
	TotalSent         decimal.Decimal
	TotalReceived     decimal.Decimal
}

// DBTransactor provides the atomic unit-of-work boundary. Either every write
// issued through the returned transaction commits, or none do.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
