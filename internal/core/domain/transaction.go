package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind classifies a funds movement.
type TransactionKind string

const (
	TransactionKindDeposit    TransactionKind = "deposit"
	TransactionKindWithdrawal TransactionKind = "withdrawal"
	TransactionKindTransfer   TransactionKind = "transfer"
)

// Valid reports whether the kind is one of the known values.
func (k TransactionKind) Valid() bool {
	switch k {
	case TransactionKindDeposit, TransactionKindWithdrawal, TransactionKindTransfer:
		return true
	}
	return false
}

// TransactionStatus is the lifecycle state of a movement. Only completed
// records are ever persisted; pending and failed exist for wire compatibility
// with clients that filter on status.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Valid reports whether the status is one of the known values.
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed:
		return true
	}
	return false
}

// MaxMemoLength caps the free-text memo attached to a movement.
const MaxMemoLength = 255

// Transaction is one immutable row in the movement ledger. Deposits carry
// only a recipient, withdrawals only a sender, transfers both.
type Transaction struct {
	ID          uuid.UUID         `json:"id"`
	Kind        TransactionKind   `json:"kind"`
	Status      TransactionStatus `json:"status"`
	SenderID    *uuid.UUID        `json:"sender_id,omitempty"`
	RecipientID *uuid.UUID        `json:"recipient_id,omitempty"`
	Amount      decimal.Decimal   `json:"amount"`
	Memo        string            `json:"memo,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Involves reports whether the user appears on either side of the movement.
func (t *Transaction) Involves(userID uuid.UUID) bool {
	if t.SenderID != nil && *t.SenderID == userID {
		return true
	}
	return t.RecipientID != nil && *t.RecipientID == userID
}
