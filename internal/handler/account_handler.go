package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
	"bank-ledger/internal/service"
)

type AccountHandler struct {
	accountService *service.AccountService
}

func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

type OpenAccountRequest struct {
	CustomerID     int64  `json:"customer_id"`
	AccountType    string `json:"account_type"`
	InitialDeposit string `json:"initial_deposit"`
}

func (h *AccountHandler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	var req OpenAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	initialDeposit, err := decimal.NewFromString(req.InitialDeposit)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid initial_deposit format").WithDetails(err.Error()))
		return
	}

	account, err := h.accountService.OpenAccount(req.CustomerID, domain.AccountType(req.AccountType), initialDeposit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newAccountResponse(account))
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	number := vars["account_number"]

	account, err := h.accountService.GetAccountByNumber(number)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newAccountResponse(account))
}

type BalanceResponse struct {
	AccountNumber string `json:"account_number"`
	Balance       string `json:"balance"`
}

func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	number := vars["account_number"]

	balance, err := h.accountService.GetBalance(number)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceResponse{
		AccountNumber: number,
		Balance:       balance.StringFixed(2),
	})
}

func (h *AccountHandler) ListAccountsByCustomer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	customerID, err := strconv.ParseInt(vars["customer_id"], 10, 64)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid customer id"))
		return
	}

	accounts, err := h.accountService.ListAccountsByCustomer(customerID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, newAccountResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

func (h *AccountHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	number := vars["account_number"]

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	account, err := h.accountService.SetStatus(number, domain.AccountStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newAccountResponse(account))
}

type CloseAccountResponse struct {
	AccountNumber string `json:"account_number"`
	Closed        bool   `json:"closed"`
}

func (h *AccountHandler) CloseAccount(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	number := vars["account_number"]

	closed, err := h.accountService.CloseAccount(number)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CloseAccountResponse{
		AccountNumber: number,
		Closed:        closed,
	})
}
