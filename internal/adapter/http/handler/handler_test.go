package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"digital-wallet/internal/adapter/http/dto"
	"digital-wallet/internal/adapter/http/middleware"
	"digital-wallet/internal/core/domain"
	"digital-wallet/internal/core/ports"
	"digital-wallet/internal/core/ports/mocks"
	"digital-wallet/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func jsonRequest(t *testing.T, method, path string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// authedContext builds a test context carrying an authenticated user, the way
// JWTAuth would leave it.
func authedContext(w *httptest.ResponseRecorder, userID uuid.UUID, req *http.Request) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(middleware.CtxUserID, userID)
	return c
}

// --- Auth Handler Tests ---

func TestRegister_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	userID := uuid.New()
	walletID := uuid.New()
	mockAuth.EXPECT().Register(gomock.Any(), ports.RegisterRequest{
		Email:    "alice@example.com",
		Password: "password123",
		Name:     "Alice",
	}).Return(&ports.RegisterResponse{UserID: userID, WalletID: walletID}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/v1/auth/register", dto.RegisterRequest{
		Email:    "alice@example.com",
		Password: "password123",
		Name:     "Alice",
	})

	h.Register(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, userID.String(), data["user_id"])
	assert.Equal(t, walletID.String(), data["wallet_id"])
}

func TestRegister_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	// Empty body => binding error
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader([]byte("{}")))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrEmailExists())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/", dto.RegisterRequest{
		Email:    "taken@example.com",
		Password: "password123",
		Name:     "Taken",
	})

	h.Register(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	expiry := time.Now().Add(time.Hour)
	mockAuth.EXPECT().Login(gomock.Any(), "alice@example.com", "password123").Return("jwt-token", expiry, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})

	h.Login(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "jwt-token")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().
		Login(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", time.Time{}, apperror.ErrInvalidCredentials())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/", dto.LoginRequest{Email: "a@b.co", Password: "wrong-pw"})

	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- Wallet Handler Tests ---

func TestGetWallet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger)

	userID := uuid.New()
	mockLedger.EXPECT().GetWallet(gomock.Any(), userID).Return(&domain.Wallet{
		ID:      uuid.New(),
		OwnerID: userID,
		Balance: decimal.RequireFromString("42.50"),
		Active:  true,
	}, nil)

	w := httptest.NewRecorder()
	c := authedContext(w, userID, httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil))

	h.GetWallet(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"42.50"`)
}

func TestDeposit_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger)

	userID := uuid.New()
	mockLedger.EXPECT().
		Deposit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, req ports.DepositRequest) (*domain.Transaction, error) {
			assert.Equal(t, userID, req.UserID)
			assert.True(t, req.Amount.Equal(decimal.RequireFromString("25.00")))
			return &domain.Transaction{
				ID:          uuid.New(),
				Kind:        domain.TransactionKindDeposit,
				Status:      domain.TransactionStatusCompleted,
				RecipientID: &userID,
				Amount:      req.Amount,
				CreatedAt:   time.Now().UTC(),
			}, nil
		})

	w := httptest.NewRecorder()
	c := authedContext(w, userID, jsonRequest(t, http.MethodPost, "/api/v1/wallet/deposit",
		dto.MovementRequest{Amount: "25.00", Memo: "payday"}))

	h.Deposit(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"deposit"`)
}

func TestDeposit_MalformedAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger)

	for _, amount := range []string{"-5.00", "0", "1.005", "abc"} {
		w := httptest.NewRecorder()
		c := authedContext(w, uuid.New(), jsonRequest(t, http.MethodPost, "/",
			dto.MovementRequest{Amount: amount}))

		h.Deposit(c)

		assert.Equal(t, http.StatusBadRequest, w.Code, "amount %q", amount)
	}
}

func TestWithdraw_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger)

	userID := uuid.New()
	mockLedger.EXPECT().
		Withdraw(gomock.Any(), gomock.Any()).
		Return(&ports.WithdrawResult{
			Transaction: &domain.Transaction{
				ID:        uuid.New(),
				Kind:      domain.TransactionKindWithdrawal,
				Status:    domain.TransactionStatusCompleted,
				SenderID:  &userID,
				Amount:    decimal.RequireFromString("30.00"),
				CreatedAt: time.Now().UTC(),
			},
			NewBalance: decimal.RequireFromString("70.00"),
		}, nil)

	w := httptest.NewRecorder()
	c := authedContext(w, userID, jsonRequest(t, http.MethodPost, "/api/v1/wallet/withdraw",
		dto.MovementRequest{Amount: "30.00"}))

	h.Withdraw(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"new_balance":"70.00"`)
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger)

	mockLedger.EXPECT().
		Withdraw(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrInsufficientFunds())

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), jsonRequest(t, http.MethodPost, "/",
		dto.MovementRequest{Amount: "1000.00"}))

	h.Withdraw(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "LDG_002")
}

// --- Transaction Handler Tests ---

func TestTransfer_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLedger := mocks.NewMockLedgerService(ctrl)
	mockHistory := mocks.NewMockHistoryService(ctrl)
	h := NewTransactionHandler(mockLedger, mockHistory)

	senderID := uuid.New()
	recipientID := uuid.New()
	mockLedger.EXPECT().
		Transfer(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, req ports.TransferRequest) (*domain.Transaction, error) {
			assert.Equal(t, senderID, req.SenderID)
			assert.Equal(t, "bob@example.com", req.RecipientEmail)
			return &domain.Transaction{
				ID:          uuid.New(),
				Kind:        domain.TransactionKindTransfer,
				Status:      domain.TransactionStatusCompleted,
				SenderID:    &senderID,
				RecipientID: &recipientID,
				Amount:      req.Amount,
				CreatedAt:   time.Now().UTC(),
			}, nil
		})

	w := httptest.NewRecorder()
	c := authedContext(w, senderID, jsonRequest(t, http.MethodPost, "/api/v1/transfers",
		dto.TransferRequest{RecipientEmail: "bob@example.com", Amount: "15.00"}))

	h.Transfer(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"transfer"`)
}

func TestTransfer_RecipientNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLedger := mocks.NewMockLedgerService(ctrl)
	mockHistory := mocks.NewMockHistoryService(ctrl)
	h := NewTransactionHandler(mockLedger, mockHistory)

	mockLedger.EXPECT().
		Transfer(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrRecipientNotFound())

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), jsonRequest(t, http.MethodPost, "/",
		dto.TransferRequest{RecipientEmail: "ghost@example.com", Amount: "5.00"}))

	h.Transfer(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "LDG_003")
}

func TestTransfer_SelfTransfer(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLedger := mocks.NewMockLedgerService(ctrl)
	mockHistory := mocks.NewMockHistoryService(ctrl)
	h := NewTransactionHandler(mockLedger, mockHistory)

	mockLedger.EXPECT().
		Transfer(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrSelfTransfer())

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(), jsonRequest(t, http.MethodPost, "/",
		dto.TransferRequest{RecipientEmail: "me@example.com", Amount: "5.00"}))

	h.Transfer(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "LDG_004")
}

func TestListTransactions_WithFilters(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLedger := mocks.NewMockLedgerService(ctrl)
	mockHistory := mocks.NewMockHistoryService(ctrl)
	h := NewTransactionHandler(mockLedger, mockHistory)

	userID := uuid.New()
	mockHistory.EXPECT().
		ListTransactions(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
			assert.Equal(t, userID, params.UserID)
			require.NotNil(t, params.Kind)
			assert.Equal(t, domain.TransactionKindTransfer, *params.Kind)
			assert.Equal(t, 2, params.Page)
			return []domain.Transaction{
				{ID: uuid.New(), Kind: domain.TransactionKindTransfer, Amount: decimal.RequireFromString("5.00")},
			}, 21, nil
		})

	w := httptest.NewRecorder()
	c := authedContext(w, userID,
		httptest.NewRequest(http.MethodGet, "/api/v1/transactions?kind=transfer&page=2&page_size=10", nil))

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(21), data["total"])
	assert.Equal(t, float64(3), data["total_pages"])
}

func TestListTransactions_BadKind(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLedger := mocks.NewMockLedgerService(ctrl)
	mockHistory := mocks.NewMockHistoryService(ctrl)
	h := NewTransactionHandler(mockLedger, mockHistory)

	w := httptest.NewRecorder()
	c := authedContext(w, uuid.New(),
		httptest.NewRequest(http.MethodGet, "/api/v1/transactions?kind=bogus", nil))

	h.List(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSummary_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLedger := mocks.NewMockLedgerService(ctrl)
	mockHistory := mocks.NewMockHistoryService(ctrl)
	h := NewTransactionHandler(mockLedger, mockHistory)

	userID := uuid.New()
	mockHistory.EXPECT().
		GetSummary(gomock.Any(), userID, "week").
		Return(&ports.TransactionSummary{
			TotalTransactions: 4,
			TotalDeposited:    decimal.RequireFromString("100.00"),
			TotalSent:         decimal.RequireFromString("25.00"),
		}, nil)

	w := httptest.NewRecorder()
	c := authedContext(w, userID,
		httptest.NewRequest(http.MethodGet, "/api/v1/transactions/summary?period=week", nil))

	h.Summary(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_deposited":"100.00"`)
}

// --- Health Check ---

type fakeChecker struct {
	name string
	err  error
}

func (f fakeChecker) Name() string                 { return f.name }
func (f fakeChecker) Ping(_ context.Context) error { return f.err }

func TestHealthCheck(t *testing.T) {
	t.Run("healthy when all dependencies respond", func(t *testing.T) {
		router := gin.New()
		router.GET("/health", HealthCheck(fakeChecker{name: "postgres"}, fakeChecker{name: "redis"}))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"healthy"`)
	})

	t.Run("degraded when a dependency fails", func(t *testing.T) {
		router := gin.New()
		router.GET("/health", HealthCheck(
			fakeChecker{name: "postgres"},
			fakeChecker{name: "redis", err: assert.AnError},
		))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"degraded"`)
	})
}
