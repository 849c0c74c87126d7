package postgres

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// schema is applied once at startup. Runtime code never probes for table
// existence; presence is guaranteed here before the server accepts traffic.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS wallets (
	id         UUID PRIMARY KEY,
	owner_id   UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE RESTRICT,
	balance    DECIMAL(15,2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
	active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id           UUID PRIMARY KEY,
	kind         TEXT NOT NULL CHECK (kind IN ('deposit', 'withdrawal', 'transfer')),
	status       TEXT NOT NULL CHECK (status IN ('pending', 'completed', 'failed')),
	sender_id    UUID REFERENCES users(id) ON DELETE RESTRICT,
	recipient_id UUID REFERENCES users(id) ON DELETE RESTRICT,
	amount       DECIMAL(15,2) NOT NULL CHECK (amount > 0),
	memo         VARCHAR(255) NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_sender ON transactions (sender_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_transactions_recipient ON transactions (recipient_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions (created_at DESC);
`

// InitSchema creates the ledger tables if they do not exist yet.
func InitSchema(ctx context.Context, pool Pool, log zerolog.Logger) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	log.Info().Msg("database schema initialized")
	return nil
}
