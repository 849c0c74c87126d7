package handler

import (
	"digital-wallet/internal/adapter/http/dto"
	"digital-wallet/internal/adapter/http/middleware"
	"digital-wallet/internal/core/ports"
	"digital-wallet/pkg/apperror"
	"digital-wallet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles wallet and funds-movement endpoints.
type WalletHandler struct {
	ledgerSvc ports.LedgerService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledgerSvc ports.LedgerService) *WalletHandler {
	return &WalletHandler{ledgerSvc: ledgerSvc}
}

// GetWallet handles GET /api/v1/wallet.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wallet, err := h.ledgerSvc.GetWallet(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromWallet(wallet))
}

// Deposit handles POST /api/v1/wallet/deposit.
func (h *WalletHandler) Deposit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	amount, err := dto.ParseAmount(req.Amount)
	if err != nil {
		response.Error(c, apperror.ErrInvalidAmount())
		return
	}

	txn, err := h.ledgerSvc.Deposit(c.Request.Context(), ports.DepositRequest{
		UserID: userID,
		Amount: amount,
		Memo:   req.Memo,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.MovementResponse{Transaction: dto.FromTransaction(txn)})
}

// Withdraw handles POST /api/v1/wallet/withdraw.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	amount, err := dto.ParseAmount(req.Amount)
	if err != nil {
		response.Error(c, apperror.ErrInvalidAmount())
		return
	}

	result, err := h.ledgerSvc.Withdraw(c.Request.Context(), ports.WithdrawRequest{
		UserID: userID,
		Amount: amount,
		Memo:   req.Memo,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	newBalance := result.NewBalance.StringFixed(2)
	response.Created(c, dto.MovementResponse{
		Transaction: dto.FromTransaction(result.Transaction),
		NewBalance:  &newBalance,
	})
}

// currentUserID pulls the authenticated user out of the request context.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := c.Get(middleware.CtxUserID)
	if !ok {
		return uuid.Nil, false
	}
	userID, ok := raw.(uuid.UUID)
	return userID, ok
}
