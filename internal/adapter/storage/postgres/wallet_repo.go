package postgres

import (
	"context"
	"errors"
	"fmt"

	"digital-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

const walletColumns = `id, owner_id, balance, active, created_at, updated_at`

// GetByOwner fetches a wallet by owner (non-locking read). Returns nil when
// absent.
func (r *WalletRepo) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_id = $1`

	return scanWallet(r.pool.QueryRow(ctx, query, ownerID))
}

// GetByOwnerForUpdate fetches a wallet by owner with an exclusive row lock.
// MUST be called within a transaction. Returns nil when absent; callers that
// need lazy creation use LockOrCreateByOwner instead.
func (r *WalletRepo) GetByOwnerForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_id = $1 FOR UPDATE`

	return scanWallet(tx.QueryRow(ctx, query, ownerID))
}

// LockOrCreateByOwner returns the owner's wallet under an exclusive lock,
// inserting a zero-balance row first when none exists. The insert tolerates a
// concurrent creator (ON CONFLICT DO NOTHING); the locked select that follows
// always observes the surviving row. Re-locking a row already held by tx is a
// no-op in PostgreSQL, so a caller locking the same wallet twice is safe.
func (r *WalletRepo) LockOrCreateByOwner(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error) {
	insert := `INSERT INTO wallets (id, owner_id, balance, active, created_at, updated_at)
		VALUES ($1, $2, 0, TRUE, NOW(), NOW())
		ON CONFLICT (owner_id) DO NOTHING`

	if _, err := tx.Exec(ctx, insert, uuid.New(), ownerID); err != nil {
		return nil, fmt.Errorf("insert wallet for owner %s: %w", ownerID, err)
	}

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_id = $1 FOR UPDATE`

	w, err := scanWallet(tx.QueryRow(ctx, query, ownerID))
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("wallet for owner %s vanished after insert", ownerID)
	}
	return w, nil
}

// UpdateBalance persists a new balance for a locked wallet row.
func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error {
	query := `UPDATE wallets SET balance = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, balance, walletID)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(&w.ID, &w.OwnerID, &w.Balance, &w.Active, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}
	return w, nil
}
