package service

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
	"bank-ledger/internal/events"
)

// TransactionService is the transaction engine: deposit, withdrawal and
// transfer executed as atomic units, each appending immutable ledger entries
// with a balance-after snapshot. Every operation runs under the per-account
// lock and does its mutate+append step inside one store transaction, so no
// partial effect is ever visible.
type TransactionService struct {
	store     domain.Store
	locks     *AccountLocker
	publisher domain.EventPublisher
	logger    *slog.Logger
}

func NewTransactionService(store domain.Store, locks *AccountLocker, publisher domain.EventPublisher, logger *slog.Logger) *TransactionService {
	return &TransactionService{
		store:     store,
		locks:     locks,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *TransactionService) Deposit(accountNumber string, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	s.logger.Info("Processing deposit", "account_number", accountNumber, "amount", amount)

	if !amount.IsPositive() {
		return nil, errors.NewAppError(errors.InvalidAmount, "deposit amount must be positive")
	}

	unlock := s.locks.Lock(accountNumber)
	defer unlock()

	var created *domain.Transaction
	err := s.store.WithTransaction(func(tx domain.Store) error {
		account, err := activeAccount(tx, accountNumber)
		if err != nil {
			return err
		}

		newBalance := account.Balance.Add(amount)
		if err := tx.Accounts().UpdateAccountBalance(account.ID, newBalance); err != nil {
			return err
		}

		created, err = appendEntry(tx, &domain.Transaction{
			AccountID:    account.ID,
			Type:         domain.TransactionTypeDeposit,
			Amount:       amount,
			Description:  description,
			BalanceAfter: newBalance,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishCompleted(accountNumber, created)
	return created, nil
}

func (s *TransactionService) Withdraw(accountNumber string, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	s.logger.Info("Processing withdrawal", "account_number", accountNumber, "amount", amount)

	if !amount.IsPositive() {
		return nil, errors.NewAppError(errors.InvalidAmount, "withdrawal amount must be positive")
	}

	unlock := s.locks.Lock(accountNumber)
	defer unlock()

	var created *domain.Transaction
	err := s.store.WithTransaction(func(tx domain.Store) error {
		account, err := activeAccount(tx, accountNumber)
		if err != nil {
			return err
		}

		if account.Balance.LessThan(amount) {
			return errors.NewAppErrorf(errors.InsufficientBalance,
				"insufficient balance: available %s, required %s",
				account.Balance.StringFixed(2), amount.StringFixed(2))
		}

		newBalance := account.Balance.Sub(amount)
		if err := tx.Accounts().UpdateAccountBalance(account.ID, newBalance); err != nil {
			return err
		}

		created, err = appendEntry(tx, &domain.Transaction{
			AccountID:    account.ID,
			Type:         domain.TransactionTypeWithdrawal,
			Amount:       amount,
			Description:  description,
			BalanceAfter: newBalance,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishCompleted(accountNumber, created)
	return created, nil
}

// Transfer moves amount between two accounts as one atomic unit and returns
// the two legs in [out, in] order. Both accounts are locked before any state
// is read, in a global order, so opposing transfers between the same pair
// cannot deadlock.
func (s *TransactionService) Transfer(fromNumber, toNumber string, amount decimal.Decimal, description string) ([]*domain.Transaction, error) {
	s.logger.Info("Processing transfer",
		"from_account_number", fromNumber,
		"to_account_number", toNumber,
		"amount", amount)

	if !amount.IsPositive() {
		return nil, errors.NewAppError(errors.InvalidAmount, "transfer amount must be positive")
	}
	if fromNumber == toNumber {
		return nil, errors.ErrSameAccountTransfer
	}

	unlock := s.locks.LockPair(fromNumber, toNumber)
	defer unlock()

	var legs []*domain.Transaction
	err := s.store.WithTransaction(func(tx domain.Store) error {
		from, err := tx.Accounts().GetAccountByNumber(fromNumber)
		if err != nil {
			return err
		}
		to, err := tx.Accounts().GetAccountByNumber(toNumber)
		if err != nil {
			return err
		}

		if from.Status != domain.AccountStatusActive {
			return errors.NewAppErrorf(errors.AccountNotActive, "source account %s is not active", fromNumber)
		}
		if to.Status != domain.AccountStatusActive {
			return errors.NewAppErrorf(errors.AccountNotActive, "destination account %s is not active", toNumber)
		}

		if from.Balance.LessThan(amount) {
			return errors.NewAppErrorf(errors.InsufficientBalance,
				"insufficient balance: available %s, required %s",
				from.Balance.StringFixed(2), amount.StringFixed(2))
		}

		newFromBalance := from.Balance.Sub(amount)
		newToBalance := to.Balance.Add(amount)

		if err := tx.Accounts().UpdateAccountBalance(from.ID, newFromBalance); err != nil {
			return err
		}
		if err := tx.Accounts().UpdateAccountBalance(to.ID, newToBalance); err != nil {
			return err
		}

		out, err := appendEntry(tx, &domain.Transaction{
			AccountID:         from.ID,
			Type:              domain.TransactionTypeTransferOut,
			Amount:            amount,
			Description:       description,
			BalanceAfter:      newFromBalance,
			ToAccountNumber:   toNumber,
			FromAccountNumber: fromNumber,
		})
		if err != nil {
			return err
		}

		in, err := appendEntry(tx, &domain.Transaction{
			AccountID:         to.ID,
			Type:              domain.TransactionTypeTransferIn,
			Amount:            amount,
			Description:       description,
			BalanceAfter:      newToBalance,
			ToAccountNumber:   toNumber,
			FromAccountNumber: fromNumber,
		})
		if err != nil {
			return err
		}

		legs = []*domain.Transaction{out, in}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishCompleted(fromNumber, legs[0])
	s.publishCompleted(toNumber, legs[1])
	return legs, nil
}

// History returns the account's ledger entries, newest first.
func (s *TransactionService) History(accountNumber string) ([]*domain.Transaction, error) {
	account, err := s.store.Accounts().GetAccountByNumber(accountNumber)
	if err != nil {
		return nil, err
	}
	return s.store.Transactions().ListTransactionsByAccount(account.ID)
}

// HistoryByType returns the account's entries of one type, newest first.
func (s *TransactionService) HistoryByType(accountNumber string, t domain.TransactionType) ([]*domain.Transaction, error) {
	if !domain.ValidTransactionType(t) {
		return nil, errors.NewAppErrorf(errors.InvalidInput, "unknown transaction type %q", t)
	}

	account, err := s.store.Accounts().GetAccountByNumber(accountNumber)
	if err != nil {
		return nil, err
	}
	return s.store.Transactions().ListTransactionsByAccountAndType(account.ID, t)
}

// HistoryByDateRange returns entries with timestamps in [start, end], in
// stored (insertion) order.
func (s *TransactionService) HistoryByDateRange(accountNumber string, start, end time.Time) ([]*domain.Transaction, error) {
	if end.Before(start) {
		return nil, errors.NewAppError(errors.InvalidInput, "end of date range precedes start")
	}

	account, err := s.store.Accounts().GetAccountByNumber(accountNumber)
	if err != nil {
		return nil, err
	}
	return s.store.Transactions().ListTransactionsByAccountBetween(account.ID, start, end)
}

// activeAccount resolves the account and rejects anything not ACTIVE.
func activeAccount(tx domain.Store, number string) (*domain.Account, error) {
	account, err := tx.Accounts().GetAccountByNumber(number)
	if err != nil {
		return nil, err
	}
	if account.Status != domain.AccountStatusActive {
		return nil, errors.NewAppErrorf(errors.AccountNotActive, "account %s is not active", number)
	}
	return account, nil
}

// appendEntry stamps the entry with a fresh transaction id and timestamp and
// appends it within the current atomic unit.
func appendEntry(tx domain.Store, entry *domain.Transaction) (*domain.Transaction, error) {
	id, err := generateTransactionID(tx)
	if err != nil {
		return nil, err
	}

	entry.TransactionID = id
	entry.Timestamp = time.Now().UTC()

	if err := tx.Transactions().CreateTransaction(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// generateTransactionID produces TXN-XXXXXXXX from UUID entropy. The ids are
// structurally unique; the existence check is an advisory guard, bounded like
// account-number generation.
func generateTransactionID(tx domain.Store) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := "TXN-" + strings.ToUpper(uuid.NewString()[:8])

		exists, err := tx.Transactions().TransactionIDExists(id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
	return "", errors.NewAppError(errors.DuplicateIdentifier, "could not generate a unique transaction id")
}

// publishCompleted emits a post-commit event. Publishing is best-effort; a
// broker failure never fails the money movement.
func (s *TransactionService) publishCompleted(accountNumber string, tx *domain.Transaction) {
	if s.publisher == nil {
		return
	}

	event := events.TransactionCompleted{
		TransactionID: tx.TransactionID,
		AccountNumber: accountNumber,
		Type:          string(tx.Type),
		Amount:        tx.Amount.StringFixed(2),
		BalanceAfter:  tx.BalanceAfter.StringFixed(2),
		OccurredAt:    tx.Timestamp,
	}

	if err := s.publisher.Publish(events.TopicTransactionCompleted, event); err != nil {
		s.logger.Error("Failed to publish transaction event",
			"transaction_id", tx.TransactionID, "error", err)
	}
}
