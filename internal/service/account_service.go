package service

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

// maxIDAttempts bounds the generate-and-check retry loop for account numbers
// so a saturated number space fails loudly instead of spinning.
const maxIDAttempts = 10

// AccountService owns account creation and the status lifecycle.
type AccountService struct {
	store     domain.Store
	customers domain.CustomerDirectory
	locks     *AccountLocker
	logger    *slog.Logger
}

func NewAccountService(store domain.Store, customers domain.CustomerDirectory, locks *AccountLocker, logger *slog.Logger) *AccountService {
	return &AccountService{
		store:     store,
		customers: customers,
		locks:     locks,
		logger:    logger,
	}
}

func (s *AccountService) OpenAccount(customerID int64, accountType domain.AccountType, initialDeposit decimal.Decimal) (*domain.Account, error) {
	s.logger.Info("Opening account", "customer_id", customerID, "account_type", accountType, "initial_deposit", initialDeposit)

	if !domain.ValidAccountType(accountType) {
		return nil, errors.NewAppErrorf(errors.InvalidInput, "unknown account type %q", accountType)
	}
	if initialDeposit.IsNegative() {
		return nil, errors.NewAppError(errors.InvalidAmount, "initial deposit cannot be negative")
	}

	exists, err := s.customers.CustomerExists(customerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NewAppErrorf(errors.CustomerNotFound, "customer %d not found", customerID)
	}

	number, err := s.generateAccountNumber()
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		Number:     number,
		Type:       accountType,
		Balance:    initialDeposit,
		Status:     domain.AccountStatusActive,
		CustomerID: customerID,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.store.Accounts().CreateAccount(account); err != nil {
		return nil, err
	}

	s.logger.Info("Account opened", "account_number", account.Number, "customer_id", customerID)
	return account, nil
}

func (s *AccountService) GetAccountByNumber(number string) (*domain.Account, error) {
	return s.store.Accounts().GetAccountByNumber(number)
}

func (s *AccountService) GetAccountByID(id int64) (*domain.Account, error) {
	return s.store.Accounts().GetAccountByID(id)
}

func (s *AccountService) ListAccountsByCustomer(customerID int64) ([]*domain.Account, error) {
	return s.store.Accounts().ListAccountsByCustomer(customerID)
}

func (s *AccountService) GetBalance(number string) (decimal.Decimal, error) {
	account, err := s.store.Accounts().GetAccountByNumber(number)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// SetStatus changes the account's lifecycle status. The transition is
// one-directional: a CLOSED account cannot be reactivated.
func (s *AccountService) SetStatus(number string, status domain.AccountStatus) (*domain.Account, error) {
	if !domain.ValidAccountStatus(status) {
		return nil, errors.NewAppErrorf(errors.InvalidInput, "unknown account status %q", status)
	}

	unlock := s.locks.Lock(number)
	defer unlock()

	var updated *domain.Account
	err := s.store.WithTransaction(func(tx domain.Store) error {
		account, err := tx.Accounts().GetAccountByNumber(number)
		if err != nil {
			return err
		}

		if account.Status == domain.AccountStatusClosed && status == domain.AccountStatusActive {
			return errors.NewAppErrorf(errors.AccountNotActive, "account %s is closed and cannot be reactivated", number)
		}

		if err := tx.Accounts().UpdateAccountStatus(account.ID, status); err != nil {
			return err
		}

		account.Status = status
		updated = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account status changed", "account_number", number, "status", status)
	return updated, nil
}

// CloseAccount sets the account CLOSED. Only accounts with an exactly zero
// balance can be closed.
func (s *AccountService) CloseAccount(number string) (bool, error) {
	unlock := s.locks.Lock(number)
	defer unlock()

	err := s.store.WithTransaction(func(tx domain.Store) error {
		account, err := tx.Accounts().GetAccountByNumber(number)
		if err != nil {
			return err
		}

		if !account.Balance.IsZero() {
			return errors.NewAppErrorf(errors.NonZeroBalance,
				"cannot close account %s with non-zero balance %s", number, account.Balance.StringFixed(2))
		}

		return tx.Accounts().UpdateAccountStatus(account.ID, domain.AccountStatusClosed)
	})
	if err != nil {
		return false, err
	}

	s.logger.Info("Account closed", "account_number", number)
	return true, nil
}

// generateAccountNumber produces a fresh 10-digit number, collision-checked
// against the store, retrying up to maxIDAttempts.
func (s *AccountService) generateAccountNumber() (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		number := fmt.Sprintf("%010d", rand.Int64N(10_000_000_000))

		exists, err := s.store.Accounts().AccountNumberExists(number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", errors.NewAppError(errors.DuplicateIdentifier, "could not generate a unique account number")
}
