package dto

import (
	"time"

	"digital-wallet/internal/core/domain"
	"digital-wallet/internal/core/ports"
)

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	UserID   string `json:"user_id"`
	WalletID string `json:"wallet_id"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// MovementRequest is the request body for deposits and withdrawals. Amount
// travels as a string to avoid float rounding on the wire.
type MovementRequest struct {
	Amount string `json:"amount" binding:"required,money"`
	Memo   string `json:"memo" binding:"max=255"`
}

// TransferRequest is the request body for transfers.
type TransferRequest struct {
	RecipientEmail string `json:"recipient_email" binding:"required,email"`
	Amount         string `json:"amount" binding:"required,money"`
	Memo           string `json:"memo" binding:"max=255"`
}

// WalletResponse is the response for a wallet query.
type WalletResponse struct {
	WalletID string `json:"wallet_id"`
	Balance  string `json:"balance"`
	Active   bool   `json:"active"`
}

// MovementResponse is the response body for a completed movement. NewBalance
// is present only for operations against the caller's own wallet.
type MovementResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	NewBalance  *string             `json:"new_balance,omitempty"`
}

// TransactionResponse is the wire form of one ledger record.
type TransactionResponse struct {
	ID             string  `json:"id"`
	Kind           string  `json:"kind"`
	Status         string  `json:"status"`
	SenderID       *string `json:"sender_id,omitempty"`
	RecipientID    *string `json:"recipient_id,omitempty"`
	Amount         string  `json:"amount"`
	Memo           string  `json:"memo,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// TransactionListResponse wraps a paginated transaction list.
type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// SummaryResponse is the response for the history summary.
type SummaryResponse struct {
	TotalTransactions int64  `json:"total_transactions"`
	TotalDeposited    string `json:"total_deposited"`
	TotalWithdrawn    string `json:"total_withdrawn"`
	TotalSent         string `json:"total_sent"`
	TotalReceived     string `json:"total_received"`
}

// FromTransaction converts a domain record to its wire form.
func FromTransaction(txn *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:        txn.ID.String(),
		Kind:      string(txn.Kind),
		Status:    string(txn.Status),
		Amount:    txn.Amount.StringFixed(2),
		Memo:      txn.Memo,
		CreatedAt: txn.CreatedAt.Format(time.RFC3339),
	}
	if txn.SenderID != nil {
		s := txn.SenderID.String()
		resp.SenderID = &s
	}
	if txn.RecipientID != nil {
		r := txn.RecipientID.String()
		resp.RecipientID = &r
	}
	return resp
}

// FromWallet converts a domain wallet to its wire form.
func FromWallet(w *domain.Wallet) WalletResponse {
	return WalletResponse{
		WalletID: w.ID.String(),
		Balance:  w.Balance.StringFixed(2),
		Active:   w.Active,
	}
}

// FromSummary converts an aggregate to its wire form.
func FromSummary(s *ports.TransactionSummary) SummaryResponse {
	return SummaryResponse{
		TotalTransactions: s.TotalTransactions,
		TotalDeposited:    s.TotalDeposited.StringFixed(2),
		TotalWithdrawn:    s.TotalWithdrawn.StringFixed(2),
		TotalSent:         s.TotalSent.StringFixed(2),
		TotalReceived:     s.TotalReceived.StringFixed(2),
	}
}
