package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"digital-wallet/internal/core/domain"
	"digital-wallet/internal/core/ports"
	"digital-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// pgLockNotAvailable is the PostgreSQL error code raised when lock_timeout
// expires while waiting on a row lock.
const pgLockNotAvailable = "55P03"

// LedgerServiceImpl implements ports.LedgerService: the transactional state
// machine for deposits, withdrawals, and transfers. Each operation runs in
// one database transaction with pessimistic row locks on the wallets it
// touches; either every effect commits or none do. Failed attempts are never
// recorded; an aborted unit of work leaves no trace in the ledger.
type LedgerServiceImpl struct {
	userRepo   ports.UserRepository
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		userRepo:   userRepo,
		walletRepo: walletRepo,
		txRepo:     txRepo,
		transactor: transactor,
		log:        log,
	}
}

// Deposit credits the user's wallet, creating it on first use. Beyond amount
// validity, deposits cannot fail on business rules.
func (s *LedgerServiceImpl) Deposit(ctx context.Context, req ports.DepositRequest) (*domain.Transaction, error) {
	if err := validateMovement(req.Amount, req.Memo); err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.LockOrCreateByOwner(ctx, dbTx, req.UserID)
	if err != nil {
		return nil, storeError("lock wallet", err)
	}
	if !wallet.Active {
		return nil, apperror.ErrWalletInactive()
	}

	if err := wallet.Credit(req.Amount); err != nil {
		return nil, err
	}
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, wallet.Balance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	txn := newTransaction(domain.TransactionKindDeposit, nil, &req.UserID, req.Amount, req.Memo)
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("user_id", req.UserID.String()).
		Str("amount", req.Amount.StringFixed(2)).
		Msg("deposit completed")

	return txn, nil
}

// Withdraw debits the user's wallet. The wallet is not created lazily here: a
// withdrawal against a non-existent wallet is WalletNotFound, not a zero
// balance failing the funds check.
func (s *LedgerServiceImpl) Withdraw(ctx context.Context, req ports.WithdrawRequest) (*ports.WithdrawResult, error) {
	if err := validateMovement(req.Amount, req.Memo); err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByOwnerForUpdate(ctx, dbTx, req.UserID)
	if err != nil {
		return nil, storeError("lock wallet", err)
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	if !wallet.Active {
		return nil, apperror.ErrWalletInactive()
	}

	if err := wallet.Debit(req.Amount); err != nil {
		return nil, err
	}
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, wallet.Balance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	txn := newTransaction(domain.TransactionKindWithdrawal, &req.UserID, nil, req.Amount, req.Memo)
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("user_id", req.UserID.String()).
		Str("amount", req.Amount.StringFixed(2)).
		Str("new_balance", wallet.Balance.StringFixed(2)).
		Msg("withdrawal completed")

	return &ports.WithdrawResult{Transaction: txn, NewBalance: wallet.Balance}, nil
}

// Transfer moves funds between two users' wallets. Both wallet rows are
// locked in a canonical order (ascending owner UUID) so that two concurrent
// transfers between the same pair cannot deadlock, whichever direction each
// runs in. The sender's funds check happens under the held lock; any earlier
// check is advisory only.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*domain.Transaction, error) {
	recipient, err := s.userRepo.GetByEmail(ctx, req.RecipientEmail)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve recipient: %w", err))
	}
	if recipient == nil {
		return nil, apperror.ErrRecipientNotFound()
	}
	if recipient.ID == req.SenderID {
		return nil, apperror.ErrSelfTransfer()
	}
	if err := validateMovement(req.Amount, req.Memo); err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	senderWallet, recipientWallet, err := s.lockPair(ctx, dbTx, req.SenderID, recipient.ID)
	if err != nil {
		return nil, err
	}
	if !senderWallet.Active || !recipientWallet.Active {
		return nil, apperror.ErrWalletInactive()
	}

	if err := senderWallet.Debit(req.Amount); err != nil {
		return nil, err
	}
	if err := recipientWallet.Credit(req.Amount); err != nil {
		return nil, err
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, senderWallet.ID, senderWallet.Balance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update sender balance: %w", err))
	}
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, recipientWallet.ID, recipientWallet.Balance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update recipient balance: %w", err))
	}

	txn := newTransaction(domain.TransactionKindTransfer, &req.SenderID, &recipient.ID, req.Amount, req.Memo)
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("sender_id", req.SenderID.String()).
		Str("recipient_id", recipient.ID.String()).
		Str("amount", req.Amount.StringFixed(2)).
		Msg("transfer completed")

	return txn, nil
}

// EnsureWallet returns the user's wallet, creating a zero-balance one if
// absent. Idempotent: repeated calls return the same wallet and never touch
// an existing balance.
func (s *LedgerServiceImpl) EnsureWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.LockOrCreateByOwner(ctx, dbTx, userID)
	if err != nil {
		return nil, storeError("ensure wallet", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return wallet, nil
}

// GetWallet reads the user's wallet, creating it on first access.
func (s *LedgerServiceImpl) GetWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByOwner(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet != nil {
		return wallet, nil
	}
	return s.EnsureWallet(ctx, userID)
}

// lockPair acquires both wallet row locks in ascending owner-UUID order and
// returns them as (sender, recipient). Without the canonical order, mutual
// transfers A->B and B->A would acquire the same two locks in opposite
// directions, which is the classic deadlock.
func (s *LedgerServiceImpl) lockPair(ctx context.Context, dbTx pgx.Tx, senderID, recipientID uuid.UUID) (*domain.Wallet, *domain.Wallet, error) {
	first, second := senderID, recipientID
	if bytes.Compare(first[:], second[:]) > 0 {
		first, second = second, first
	}

	firstWallet, err := s.walletRepo.LockOrCreateByOwner(ctx, dbTx, first)
	if err != nil {
		return nil, nil, storeError("lock first wallet", err)
	}
	secondWallet, err := s.walletRepo.LockOrCreateByOwner(ctx, dbTx, second)
	if err != nil {
		return nil, nil, storeError("lock second wallet", err)
	}

	if firstWallet.OwnerID == senderID {
		return firstWallet, secondWallet, nil
	}
	return secondWallet, firstWallet, nil
}

// newTransaction builds a completed movement record stamped with the current
// instant. Records are immutable after insertion; updated_at only ever holds
// the completion time.
func newTransaction(kind domain.TransactionKind, senderID, recipientID *uuid.UUID, amount decimal.Decimal, memo string) *domain.Transaction {
	now := time.Now().UTC()
	return &domain.Transaction{
		ID:          uuid.New(),
		Kind:        kind,
		Status:      domain.TransactionStatusCompleted,
		SenderID:    senderID,
		RecipientID: recipientID,
		Amount:      amount,
		Memo:        memo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// validateMovement rejects malformed input before any lock is taken.
func validateMovement(amount decimal.Decimal, memo string) error {
	if !amount.IsPositive() || amount.Exponent() < -2 {
		return apperror.ErrInvalidAmount()
	}
	if len(memo) > domain.MaxMemoLength {
		return apperror.ErrMemoTooLong()
	}
	return nil
}

// storeError maps infrastructure failures from the wallet store. A lock wait
// that exceeds lock_timeout surfaces distinctly so callers can treat it as
// transient.
func storeError(op string, err error) *apperror.AppError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return apperror.ErrLockTimeout(fmt.Errorf("%s: %w", op, err))
	}
	return apperror.InternalError(fmt.Errorf("%s: %w", op, err))
}
