package ports

import (
	"context"
	"time"

	"digital-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerService is the funds-movement engine. Each operation runs inside
// exactly one unit of work: all effects (balance mutations plus the
// transaction record) commit together or not at all.
type LedgerService interface {
	Deposit(ctx context.Context, req DepositRequest) (*domain.Transaction, error)
	Withdraw(ctx context.Context, req WithdrawRequest) (*WithdrawResult, error)
	Transfer(ctx context.Context, req TransferRequest) (*domain.Transaction, error)
	// EnsureWallet returns the user's wallet, creating a zero-balance one if
	// absent. Idempotent; a second call never resets an existing balance.
	EnsureWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	GetWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
}

// DepositRequest holds validated input for a deposit.
type DepositRequest struct {
	UserID uuid.UUID
	Amount decimal.Decimal
	Memo   string
}

// WithdrawRequest holds validated input for a withdrawal.
type WithdrawRequest struct {
	UserID uuid.UUID
	Amount decimal.Decimal
	Memo   string
}

// WithdrawResult carries the created record and the post-operation balance.
type WithdrawResult struct {
	Transaction *domain.Transaction
	NewBalance  decimal.Decimal
}

// TransferRequest holds validated input for a transfer. The recipient is
// addressed by email; resolution happens inside the engine.
type TransferRequest struct {
	SenderID       uuid.UUID
	RecipientEmail string
	Amount         decimal.Decimal
	Memo           string
}

// AuthService defines registration and login for principals.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, email, password string) (string, time.Time, error) // token, expiry, error
}

// RegisterRequest holds input for user registration.
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
}

// RegisterResponse holds the registration result.
type RegisterResponse struct {
	UserID   uuid.UUID
	WalletID uuid.UUID
}

// HistoryService exposes the read side of the ledger.
type HistoryService interface {
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	GetSummary(ctx context.Context, userID uuid.UUID, period string) (*TransactionSummary, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID, email string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
	Email  string
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}
