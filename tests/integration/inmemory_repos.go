package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"digital-wallet/internal/core/domain"
	"digital-wallet/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// memStore backs the in-memory repos. Row locking mirrors the database:
// every wallet has its own mutex, a transaction blocks acquiring it, and
// staged writes become visible only on Commit.
type memStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*domain.User
	wallets  map[uuid.UUID]*domain.Wallet
	byOwner  map[uuid.UUID]uuid.UUID
	rowLocks map[uuid.UUID]*sync.Mutex
	txns     []*domain.Transaction
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[uuid.UUID]*domain.User),
		wallets:  make(map[uuid.UUID]*domain.Wallet),
		byOwner:  make(map[uuid.UUID]uuid.UUID),
		rowLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// --- In-Memory Transactor ---

type memTransactor struct {
	store *memStore
}

func newMemTransactor(store *memStore) *memTransactor {
	return &memTransactor{store: store}
}

func (t *memTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &memTx{
		store:    t.store,
		balances: make(map[uuid.UUID]decimal.Decimal),
	}, nil
}

// memTx implements pgx.Tx over the store. Balance writes and ledger inserts
// are staged and applied atomically on Commit; Rollback discards them. Held
// row locks are released either way.
type memTx struct {
	store    *memStore
	mu       sync.Mutex
	held     []uuid.UUID
	balances map[uuid.UUID]decimal.Decimal
	inserted []*domain.Transaction
	done     bool
}

// lockRow blocks until the wallet's row lock is held by this transaction.
// Re-locking a row already held is a no-op, as it is in the database.
func (t *memTx) lockRow(walletID uuid.UUID) {
	t.mu.Lock()
	for _, held := range t.held {
		if held == walletID {
			t.mu.Unlock()
			return
		}
	}
	t.mu.Unlock()

	t.store.mu.Lock()
	lock, ok := t.store.rowLocks[walletID]
	if !ok {
		lock = &sync.Mutex{}
		t.store.rowLocks[walletID] = lock
	}
	t.store.mu.Unlock()

	lock.Lock()

	t.mu.Lock()
	t.held = append(t.held, walletID)
	t.mu.Unlock()
}

func (t *memTx) releaseLocks() {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for i := len(t.held) - 1; i >= 0; i-- {
		t.store.rowLocks[t.held[i]].Unlock()
	}
	t.held = nil
}

func (t *memTx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true

	t.store.mu.Lock()
	for walletID, balance := range t.balances {
		if w, ok := t.store.wallets[walletID]; ok {
			w.Balance = balance
			w.UpdatedAt = time.Now().UTC()
		}
	}
	t.store.txns = append(t.store.txns, t.inserted...)
	t.store.mu.Unlock()

	t.releaseLocks()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.balances = make(map[uuid.UUID]decimal.Decimal)
	t.inserted = nil
	t.releaseLocks()
	return nil
}

// Remaining pgx.Tx methods are unused by the repos under test.
func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *memTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *memTx) Conn() *pgx.Conn                                              { return nil }

func asMemTx(tx pgx.Tx) (*memTx, error) {
	mt, ok := tx.(*memTx)
	if !ok {
		return nil, fmt.Errorf("unexpected tx type %T", tx)
	}
	return mt, nil
}

// --- In-Memory User Repo ---

type memUserRepo struct {
	store *memStore
}

func newMemUserRepo(store *memStore) *memUserRepo {
	return &memUserRepo{store: store}
}

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.users {
		if existing.Email == user.Email {
			return fmt.Errorf("email already exists")
		}
	}
	u := *user
	r.store.users[user.ID] = &u
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

// --- In-Memory Wallet Repo ---

type memWalletRepo struct {
	store *memStore
}

func newMemWalletRepo(store *memStore) *memWalletRepo {
	return &memWalletRepo{store: store}
}

// snapshot returns the wallet as this transaction sees it: the committed row
// overlaid with any balance the transaction has staged.
func (r *memWalletRepo) snapshot(mt *memTx, walletID uuid.UUID) *domain.Wallet {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	w, ok := r.store.wallets[walletID]
	if !ok {
		return nil
	}
	copied := *w
	if staged, ok := mt.balances[walletID]; ok {
		copied.Balance = staged
	}
	return &copied
}

func (r *memWalletRepo) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	walletID, ok := r.store.byOwner[ownerID]
	if !ok {
		return nil, nil
	}
	copied := *r.store.wallets[walletID]
	return &copied, nil
}

func (r *memWalletRepo) GetByOwnerForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error) {
	mt, err := asMemTx(tx)
	if err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	walletID, ok := r.store.byOwner[ownerID]
	r.store.mu.Unlock()
	if !ok {
		return nil, nil
	}

	mt.lockRow(walletID)
	return r.snapshot(mt, walletID), nil
}

func (r *memWalletRepo) LockOrCreateByOwner(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error) {
	mt, err := asMemTx(tx)
	if err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	walletID, ok := r.store.byOwner[ownerID]
	if !ok {
		now := time.Now().UTC()
		w := &domain.Wallet{
			ID:        uuid.New(),
			OwnerID:   ownerID,
			Balance:   decimal.Zero,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		walletID = w.ID
		r.store.wallets[walletID] = w
		r.store.byOwner[ownerID] = walletID
	}
	r.store.mu.Unlock()

	mt.lockRow(walletID)
	return r.snapshot(mt, walletID), nil
}

func (r *memWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error {
	mt, err := asMemTx(tx)
	if err != nil {
		return err
	}
	mt.balances[walletID] = balance
	return nil
}

// --- In-Memory Transaction Repo ---

type memTransactionRepo struct {
	store *memStore
}

func newMemTransactionRepo(store *memStore) *memTransactionRepo {
	return &memTransactionRepo{store: store}
}

func (r *memTransactionRepo) Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error {
	mt, err := asMemTx(tx)
	if err != nil {
		return err
	}
	copied := *txn
	mt.inserted = append(mt.inserted, &copied)
	return nil
}

func (r *memTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range r.store.txns {
		if t.ID == id {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memTransactionRepo) ListForUser(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var matched []domain.Transaction
	for _, t := range r.store.txns {
		if !t.Involves(params.UserID) {
			continue
		}
		if params.Kind != nil && t.Kind != *params.Kind {
			continue
		}
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		if params.From != nil && t.CreatedAt.Unix() < *params.From {
			continue
		}
		if params.To != nil && t.CreatedAt.Unix() > *params.To {
			continue
		}
		matched = append(matched, *t)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))

	start := (params.Page - 1) * params.PageSize
	if start >= len(matched) {
		return []domain.Transaction{}, total, nil
	}
	end := start + params.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *memTransactionRepo) GetSummary(ctx context.Context, userID uuid.UUID, periodStart *int64) (*ports.TransactionSummary, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	summary := &ports.TransactionSummary{
		TotalDeposited: decimal.Zero,
		TotalWithdrawn: decimal.Zero,
		TotalSent:      decimal.Zero,
		TotalReceived:  decimal.Zero,
	}
	for _, t := range r.store.txns {
		if !t.Involves(userID) {
			continue
		}
		if periodStart != nil && t.CreatedAt.Unix() < *periodStart {
			continue
		}
		summary.TotalTransactions++
		switch t.Kind {
		case domain.TransactionKindDeposit:
			summary.TotalDeposited = summary.TotalDeposited.Add(t.Amount)
		case domain.TransactionKindWithdrawal:
			summary.TotalWithdrawn = summary.TotalWithdrawn.Add(t.Amount)
		case domain.TransactionKindTransfer:
			if t.SenderID != nil && *t.SenderID == userID {
				summary.TotalSent = summary.TotalSent.Add(t.Amount)
			} else {
				summary.TotalReceived = summary.TotalReceived.Add(t.Amount)
			}
		}
	}
	return summary, nil
}
