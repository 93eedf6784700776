package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal  TransactionType = "WITHDRAWAL"
	TransactionTypeTransferOut TransactionType = "TRANSFER_OUT"
	TransactionTypeTransferIn  TransactionType = "TRANSFER_IN"
)

func ValidTransactionType(t TransactionType) bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal,
		TransactionTypeTransferOut, TransactionTypeTransferIn:
		return true
	}
	return false
}

// Transaction is one immutable ledger entry. Amount is always positive;
// direction is carried by Type. BalanceAfter is the account balance at the
// instant the entry was appended, written in the same atomic unit as the
// balance mutation. The counterparty fields are set on transfer legs only.
type Transaction struct {
	ID                int64           `json:"id"`
	TransactionID     string          `json:"transaction_id"`
	AccountID         int64           `json:"-"`
	Type              TransactionType `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	Description       string          `json:"description"`
	BalanceAfter      decimal.Decimal `json:"balance_after"`
	ToAccountNumber   string          `json:"to_account_number,omitempty"`
	FromAccountNumber string          `json:"from_account_number,omitempty"`
	Timestamp         time.Time       `json:"timestamp"`
}

// TransactionRepository is append-only: entries are never updated or deleted.
type TransactionRepository interface {
	// CreateTransaction appends the entry and assigns its internal ID.
	CreateTransaction(tx *Transaction) error
	GetTransactionByTransactionID(transactionID string) (*Transaction, error)
	TransactionIDExists(transactionID string) (bool, error)
	// ListTransactionsByAccount returns the account's entries newest first.
	ListTransactionsByAccount(accountID int64) ([]*Transaction, error)
	// ListTransactionsByAccountAndType filters by type, newest first.
	ListTransactionsByAccountAndType(accountID int64, t TransactionType) ([]*Transaction, error)
	// ListTransactionsByAccountBetween returns entries with timestamp in
	// [start, end], in stored (insertion) order.
	ListTransactionsByAccountBetween(accountID int64, start, end time.Time) ([]*Transaction, error)
}
