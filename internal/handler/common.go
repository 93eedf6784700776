package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

type Response struct {
	Data  interface{} `json:"data,omitempty"`
	Error *Error      `json:"error,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := Response{Data: data}
	json.NewEncoder(w).Encode(response)
}

func writeError(w http.ResponseWriter, err error) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		appErr = errors.NewAppError(errors.InternalError, "an unexpected error occurred")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus())

	errResponse := Error{
		Code:    string(appErr.Code),
		Message: appErr.Message,
		Details: appErr.Details,
	}
	json.NewEncoder(w).Encode(Response{Error: &errResponse})
}

// AccountResponse renders an account with the balance as a scale-2 decimal
// string; amounts never cross the boundary as floating point.
type AccountResponse struct {
	ID            int64  `json:"id"`
	AccountNumber string `json:"account_number"`
	AccountType   string `json:"account_type"`
	Balance       string `json:"balance"`
	Status        string `json:"status"`
	CustomerID    int64  `json:"customer_id"`
	CreatedAt     string `json:"created_at"`
}

func newAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:            a.ID,
		AccountNumber: a.Number,
		AccountType:   string(a.Type),
		Balance:       a.Balance.StringFixed(2),
		Status:        string(a.Status),
		CustomerID:    a.CustomerID,
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
	}
}

type TransactionResponse struct {
	TransactionID     string `json:"transaction_id"`
	Type              string `json:"type"`
	Amount            string `json:"amount"`
	Description       string `json:"description"`
	BalanceAfter      string `json:"balance_after"`
	ToAccountNumber   string `json:"to_account_number,omitempty"`
	FromAccountNumber string `json:"from_account_number,omitempty"`
	Timestamp         string `json:"timestamp"`
}

func newTransactionResponse(tx *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:     tx.TransactionID,
		Type:              string(tx.Type),
		Amount:            tx.Amount.StringFixed(2),
		Description:       tx.Description,
		BalanceAfter:      tx.BalanceAfter.StringFixed(2),
		ToAccountNumber:   tx.ToAccountNumber,
		FromAccountNumber: tx.FromAccountNumber,
		Timestamp:         tx.Timestamp.Format(time.RFC3339Nano),
	}
}

func newTransactionResponses(txs []*domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, newTransactionResponse(tx))
	}
	return out
}
