package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeSavings  AccountType = "SAVINGS"
	AccountTypeChecking AccountType = "CHECKING"
	AccountTypeBusiness AccountType = "BUSINESS"
)

// ValidAccountType reports whether t is one of the supported account types.
func ValidAccountType(t AccountType) bool {
	switch t {
	case AccountTypeSavings, AccountTypeChecking, AccountTypeBusiness:
		return true
	}
	return false
}

type AccountStatus string

const (
	AccountStatusActive AccountStatus = "ACTIVE"
	AccountStatusClosed AccountStatus = "CLOSED"
)

func ValidAccountStatus(s AccountStatus) bool {
	return s == AccountStatusActive || s == AccountStatusClosed
}

// Account is a customer bank account. Number is the human-facing identifier,
// unique and immutable once assigned. Balance never goes negative.
type Account struct {
	ID         int64           `json:"id"`
	Number     string          `json:"account_number"`
	Type       AccountType     `json:"account_type"`
	Balance    decimal.Decimal `json:"balance"`
	Status     AccountStatus   `json:"status"`
	CustomerID int64           `json:"customer_id"`
	CreatedAt  time.Time       `json:"created_at"`
}

type AccountRepository interface {
	// CreateAccount inserts the account and assigns its internal ID.
	CreateAccount(account *Account) error
	GetAccountByID(id int64) (*Account, error)
	GetAccountByNumber(number string) (*Account, error)
	// ListAccountsByCustomer returns the customer's accounts ordered by creation.
	ListAccountsByCustomer(customerID int64) ([]*Account, error)
	AccountNumberExists(number string) (bool, error)
	UpdateAccountBalance(id int64, newBalance decimal.Decimal) error
	UpdateAccountStatus(id int64, status AccountStatus) error
}

// CustomerDirectory is the customer collaborator. Profile management lives
// outside the ledger; the engine only needs existence checks.
type CustomerDirectory interface {
	CustomerExists(customerID int64) (bool, error)
}
