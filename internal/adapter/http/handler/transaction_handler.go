package handler

import (
	"strconv"

	"digital-wallet/internal/adapter/http/dto"
	"digital-wallet/internal/core/domain"
	"digital-wallet/internal/core/ports"
	"digital-wallet/pkg/apperror"
	"digital-wallet/pkg/response"

	"github.com/gin-gonic/gin"
)

// TransactionHandler handles transfer and history endpoints.
type TransactionHandler struct {
	ledgerSvc  ports.LedgerService
	historySvc ports.HistoryService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledgerSvc ports.LedgerService, historySvc ports.HistoryService) *TransactionHandler {
	return &TransactionHandler{ledgerSvc: ledgerSvc, historySvc: historySvc}
}

// Transfer handles POST /api/v1/transfers.
func (h *TransactionHandler) Transfer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.TransferRequest
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

	txn, err := h.ledgerSvc.Transfer(c.Request.Context(), ports.TransferRequest{
		SenderID:       userID,
		RecipientEmail: req.RecipientEmail,
		Amount:         amount,
		Memo:           req.Memo,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.MovementResponse{Transaction: dto.FromTransaction(txn)})
}

// List handles GET /api/v1/transactions.
func (h *TransactionHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	params := ports.TransactionListParams{UserID: userID}
	params.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	params.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if raw := c.Query("kind"); raw != "" {
		kind := domain.TransactionKind(raw)
		if !kind.Valid() {
			response.Error(c, apperror.Validation("kind must be one of: deposit, withdrawal, transfer"))
			return
		}
		params.Kind = &kind
	}
	if raw := c.Query("status"); raw != "" {
		status := domain.TransactionStatus(raw)
		if !status.Valid() {
			response.Error(c, apperror.Validation("status must be one of: pending, completed, failed"))
			return
		}
		params.Status = &status
	}
	if raw := c.Query("from"); raw != "" {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, apperror.Validation("from must be a unix timestamp"))
			return
		}
		params.From = &ts
	}
	if raw := c.Query("to"); raw != "" {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, apperror.Validation("to must be a unix timestamp"))
			return
		}
		params.To = &ts
	}

	txns, total, err := h.historySvc.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, dto.FromTransaction(&txns[i]))
	}

	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	response.OK(c, dto.TransactionListResponse{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// Summary handles GET /api/v1/transactions/summary.
func (h *TransactionHandler) Summary(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	summary, err := h.historySvc.GetSummary(c.Request.Context(), userID, c.DefaultQuery("period", "all"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromSummary(summary))
}
