package service

import (
	"context"
	"fmt"
	"time"

	"digital-wallet/internal/core/domain"
	"digital-wallet/internal/core/ports"
	"digital-wallet/pkg/apperror"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// HistoryServiceImpl implements ports.HistoryService over the immutable
// movement ledger.
type HistoryServiceImpl struct {
	txRepo ports.TransactionRepository
}

// NewHistoryService creates a new HistoryServiceImpl.
func NewHistoryService(txRepo ports.TransactionRepository) *HistoryServiceImpl {
	return &HistoryServiceImpl{txRepo: txRepo}
}

// ListTransactions returns the user's movements newest first, with the total
// count before pagination. Page and page size are clamped to sane bounds.
func (s *HistoryServiceImpl) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}

	txns, total, err := s.txRepo.ListForUser(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txns, total, nil
}

// GetSummary aggregates the user's movements over a named period: "day",
// "week", "month", or "all" (the default when empty).
func (s *HistoryServiceImpl) GetSummary(ctx context.Context, userID uuid.UUID, period string) (*ports.TransactionSummary, error) {
	periodStart, err := periodStartUnix(period, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	summary, err := s.txRepo.GetSummary(ctx, userID, periodStart)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get summary: %w", err))
	}
	return summary, nil
}

func periodStartUnix(period string, now time.Time) (*int64, error) {
	var start time.Time
	switch period {
	case "", "all":
		return nil, nil
	case "day":
		start = now.AddDate(0, 0, -1)
	case "week":
		start = now.AddDate(0, 0, -7)
	case "month":
		start = now.AddDate(0, -1, 0)
	default:
		return nil, apperror.Validation("period must be one of: day, week, month, all")
	}
	ts := start.Unix()
	return &ts, nil
}
