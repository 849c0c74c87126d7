package domain

import (
	"time"

	"digital-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet holds a user's funds. Balance is a two-decimal-place amount that
// never goes below zero; Debit enforces the invariant in memory and the
// storage schema enforces it again with a CHECK constraint.
type Wallet struct {
	ID        uuid.UUID       `json:"id"`
	OwnerID   uuid.UUID       `json:"owner_id"`
	Balance   decimal.Decimal `json:"balance"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Credit adds a positive amount to the balance.
func (w *Wallet) Credit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperror.ErrInvalidAmount()
	}
	w.Balance = w.Balance.Add(amount)
	return nil
}

// Debit removes a positive amount from the balance. Draining to exactly zero
// is allowed; going below it is not.
func (w *Wallet) Debit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperror.ErrInvalidAmount()
	}
	if w.Balance.LessThan(amount) {
		return apperror.ErrInsufficientFunds()
	}
	w.Balance = w.Balance.Sub(amount)
	return nil
}
