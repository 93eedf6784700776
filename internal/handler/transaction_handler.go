package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
	"bank-ledger/internal/service"
)

type TransactionHandler struct {
	transactionService *service.TransactionService
}

func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// MovementRequest carries the amount as a decimal string end-to-end.
type MovementRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, h.transactionService.Deposit)
}

func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, h.transactionService.Withdraw)
}

func (h *TransactionHandler) movement(w http.ResponseWriter, r *http.Request,
	op func(accountNumber string, amount decimal.Decimal, description string) (*domain.Transaction, error)) {

	vars := mux.Vars(r)
	number := vars["account_number"]

	var req MovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid amount format").WithDetails(err.Error()))
		return
	}

	tx, err := op(number, amount, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newTransactionResponse(tx))
}

type TransferRequest struct {
	FromAccountNumber string `json:"from_account_number"`
	ToAccountNumber   string `json:"to_account_number"`
	Amount            string `json:"amount"`
	Description       string `json:"description"`
}

func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid amount format").WithDetails(err.Error()))
		return
	}

	legs, err := h.transactionService.Transfer(req.FromAccountNumber, req.ToAccountNumber, amount, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newTransactionResponses(legs))
}

// History serves the transaction log. Optional query parameters narrow it:
// ?type=DEPOSIT filters by type, ?start=...&end=... (RFC 3339) selects a
// date range in stored order.
func (h *TransactionHandler) History(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	number := vars["account_number"]
	query := r.URL.Query()

	if startStr, endStr := query.Get("start"), query.Get("end"); startStr != "" || endStr != "" {
		start, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			writeError(w, errors.NewAppError(errors.InvalidInput, "invalid start timestamp").WithDetails(err.Error()))
			return
		}
		end, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			writeError(w, errors.NewAppError(errors.InvalidInput, "invalid end timestamp").WithDetails(err.Error()))
			return
		}

		txs, err := h.transactionService.HistoryByDateRange(number, start, end)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newTransactionResponses(txs))
		return
	}

	if t := query.Get("type"); t != "" {
		txs, err := h.transactionService.HistoryByType(number, domain.TransactionType(t))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newTransactionResponses(txs))
		return
	}

	txs, err := h.transactionService.History(number)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionResponses(txs))
}
