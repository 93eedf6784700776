package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	InvalidInput        ErrorCode = "invalid_input"
	InvalidAmount       ErrorCode = "invalid_amount"
	CustomerNotFound    ErrorCode = "customer_not_found"
	AccountNotFound     ErrorCode = "account_not_found"
	TransactionNotFound ErrorCode = "transaction_not_found"
	AccountNotActive    ErrorCode = "account_not_active"
	InsufficientBalance ErrorCode = "insufficient_balance"
	NonZeroBalance      ErrorCode = "non_zero_balance"
	SameAccountTransfer ErrorCode = "same_account_transfer"
	DuplicateIdentifier ErrorCode = "duplicate_identifier"
	StorageUnavailable  ErrorCode = "storage_unavailable"
	InternalError       ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *AppError) WithDetails(details string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// HTTPStatus maps the error code to the status any HTTP binding should use.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case InvalidInput, InvalidAmount, SameAccountTransfer:
		return http.StatusBadRequest
	case CustomerNotFound, AccountNotFound, TransactionNotFound:
		return http.StatusNotFound
	case AccountNotActive, NonZeroBalance, DuplicateIdentifier:
		return http.StatusConflict
	case InsufficientBalance:
		return http.StatusUnprocessableEntity
	case StorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// AsAppError unwraps err into an *AppError if it carries one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Predefined errors for common cases
var (
	ErrAccountNotFound     = NewAppError(AccountNotFound, "account not found")
	ErrCustomerNotFound    = NewAppError(CustomerNotFound, "customer not found")
	ErrTransactionNotFound = NewAppError(TransactionNotFound, "transaction not found")
	ErrAccountNotActive    = NewAppError(AccountNotActive, "account is not active")
	ErrSameAccountTransfer = NewAppError(SameAccountTransfer, "cannot transfer to the same account")

	ErrCannotBeginTransaction = NewAppError(InternalError, "store cannot begin a nested transaction")
)
