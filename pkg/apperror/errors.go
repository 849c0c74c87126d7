package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches AppErrors by code so errors.Is works across instances.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Ledger Business Logic (LDG) ----

func ErrInvalidAmount() *AppError {
	return New("LDG_001", "Amount must be a positive value with at most two decimal places", http.StatusBadRequest)
}

func ErrInsufficientFunds() *AppError {
	return New("LDG_002", "Insufficient balance for this operation", http.StatusUnprocessableEntity)
}

func ErrRecipientNotFound() *AppError {
	return New("LDG_003", "Recipient not found", http.StatusNotFound)
}

func ErrSelfTransfer() *AppError {
	return New("LDG_004", "Cannot transfer funds to yourself", http.StatusBadRequest)
}

func ErrWalletNotFound() *AppError {
	return New("LDG_005", "Wallet not found", http.StatusNotFound)
}

func ErrWalletInactive() *AppError {
	return New("LDG_006", "Wallet is inactive", http.StatusForbidden)
}

func ErrMemoTooLong() *AppError {
	return New("LDG_007", "Memo exceeds the maximum allowed length", http.StatusBadRequest)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid email or password", http.StatusUnauthorized)
}

func ErrEmailExists() *AppError {
	return New("AUTH_002", "Email is already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an infrastructure fault. The cause is carried for
// logging only and never serialized to the caller.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

func ErrLockTimeout(err error) *AppError {
	return Wrap("SYS_002", "Lock acquisition timeout", http.StatusServiceUnavailable, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
