// Package memory is the in-memory reference implementation of the ledger
// store. It backs unit tests and local runs without postgres. WithTransaction
// works copy-on-write: the unit runs against a clone of the data set and the
// clone replaces the live set only on success, so a failed unit leaves no
// partial writes behind.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

type ledgerData struct {
	nextAccountID     int64
	nextTransactionID int64

	accounts    map[int64]*domain.Account
	numberIndex map[string]int64

	// transactions holds entries in insertion order; they are immutable once
	// appended, so clones may share the element pointers.
	transactions []*domain.Transaction
	txnIndex     map[string]*domain.Transaction
}

func newLedgerData() *ledgerData {
	return &ledgerData{
		accounts:    make(map[int64]*domain.Account),
		numberIndex: make(map[string]int64),
		txnIndex:    make(map[string]*domain.Transaction),
	}
}

func (d *ledgerData) clone() *ledgerData {
	c := &ledgerData{
		nextAccountID:     d.nextAccountID,
		nextTransactionID: d.nextTransactionID,
		accounts:          make(map[int64]*domain.Account, len(d.accounts)),
		numberIndex:       make(map[string]int64, len(d.numberIndex)),
		transactions:      make([]*domain.Transaction, len(d.transactions)),
		txnIndex:          make(map[string]*domain.Transaction, len(d.txnIndex)),
	}
	for id, a := range d.accounts {
		cp := *a
		c.accounts[id] = &cp
	}
	for n, id := range d.numberIndex {
		c.numberIndex[n] = id
	}
	copy(c.transactions, d.transactions)
	for id, tx := range d.txnIndex {
		c.txnIndex[id] = tx
	}
	return c
}

// Store is an in-memory domain.Store.
type Store struct {
	mu   sync.Mutex
	data *ledgerData
	inTx bool
}

func NewStore() *Store {
	return &Store{data: newLedgerData()}
}

// run executes op against the data set, serialized when this store is the
// root. Stores handed to WithTransaction callbacks skip locking; the root
// mutex is held for the whole unit.
func (s *Store) run(op func(d *ledgerData) error) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return op(s.data)
}

func (s *Store) Accounts() domain.AccountRepository {
	return &accountRepository{s: s}
}

func (s *Store) Transactions() domain.TransactionRepository {
	return &transactionRepository{s: s}
}

func (s *Store) WithTransaction(fn func(domain.Store) error) error {
	if s.inTx {
		return errors.ErrCannotBeginTransaction
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	txStore := &Store{data: s.data.clone(), inTx: true}
	if err := fn(txStore); err != nil {
		return err
	}

	s.data = txStore.data
	return nil
}

var _ domain.Store = (*Store)(nil)

type accountRepository struct {
	s *Store
}

func (r *accountRepository) CreateAccount(account *domain.Account) error {
	return r.s.run(func(d *ledgerData) error {
		if _, exists := d.numberIndex[account.Number]; exists {
			return errors.NewAppError(errors.DuplicateIdentifier, "account number already exists")
		}

		d.nextAccountID++
		account.ID = d.nextAccountID

		cp := *account
		d.accounts[account.ID] = &cp
		d.numberIndex[account.Number] = account.ID
		return nil
	})
}

func (r *accountRepository) GetAccountByID(id int64) (*domain.Account, error) {
	var out *domain.Account
	err := r.s.run(func(d *ledgerData) error {
		a, ok := d.accounts[id]
		if !ok {
			return errors.ErrAccountNotFound
		}
		cp := *a
		out = &cp
		return nil
	})
	return out, err
}

func (r *accountRepository) GetAccountByNumber(number string) (*domain.Account, error) {
	var out *domain.Account
	err := r.s.run(func(d *ledgerData) error {
		id, ok := d.numberIndex[number]
		if !ok {
			return errors.ErrAccountNotFound
		}
		cp := *d.accounts[id]
		out = &cp
		return nil
	})
	return out, err
}

func (r *accountRepository) ListAccountsByCustomer(customerID int64) ([]*domain.Account, error) {
	var out []*domain.Account
	err := r.s.run(func(d *ledgerData) error {
		for _, a := range d.accounts {
			if a.CustomerID == customerID {
				cp := *a
				out = append(out, &cp)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].ID < out[j].ID
			}
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
		return nil
	})
	return out, err
}

func (r *accountRepository) AccountNumberExists(number string) (bool, error) {
	var exists bool
	err := r.s.run(func(d *ledgerData) error {
		_, exists = d.numberIndex[number]
		return nil
	})
	return exists, err
}

func (r *accountRepository) UpdateAccountBalance(id int64, newBalance decimal.Decimal) error {
	return r.s.run(func(d *ledgerData) error {
		a, ok := d.accounts[id]
		if !ok {
			return errors.ErrAccountNotFound
		}
		a.Balance = newBalance
		return nil
	})
}

func (r *accountRepository) UpdateAccountStatus(id int64, status domain.AccountStatus) error {
	return r.s.run(func(d *ledgerData) error {
		a, ok := d.accounts[id]
		if !ok {
			return errors.ErrAccountNotFound
		}
		a.Status = status
		return nil
	})
}

type transactionRepository struct {
	s *Store
}

func (r *transactionRepository) CreateTransaction(tx *domain.Transaction) error {
	return r.s.run(func(d *ledgerData) error {
		if _, exists := d.txnIndex[tx.TransactionID]; exists {
			return errors.NewAppError(errors.DuplicateIdentifier, "transaction id already exists")
		}

		d.nextTransactionID++
		tx.ID = d.nextTransactionID

		cp := *tx
		d.transactions = append(d.transactions, &cp)
		d.txnIndex[tx.TransactionID] = &cp
		return nil
	})
}

func (r *transactionRepository) GetTransactionByTransactionID(transactionID string) (*domain.Transaction, error) {
	var out *domain.Transaction
	err := r.s.run(func(d *ledgerData) error {
		tx, ok := d.txnIndex[transactionID]
		if !ok {
			return errors.ErrTransactionNotFound
		}
		cp := *tx
		out = &cp
		return nil
	})
	return out, err
}

func (r *transactionRepository) TransactionIDExists(transactionID string) (bool, error) {
	var exists bool
	err := r.s.run(func(d *ledgerData) error {
		_, exists = d.txnIndex[transactionID]
		return nil
	})
	return exists, err
}

func (r *transactionRepository) ListTransactionsByAccount(accountID int64) ([]*domain.Transaction, error) {
	return r.list(accountID, func(tx *domain.Transaction) bool { return true }, true)
}

func (r *transactionRepository) ListTransactionsByAccountAndType(accountID int64, t domain.TransactionType) ([]*domain.Transaction, error) {
	return r.list(accountID, func(tx *domain.Transaction) bool { return tx.Type == t }, true)
}

func (r *transactionRepository) ListTransactionsByAccountBetween(accountID int64, start, end time.Time) ([]*domain.Transaction, error) {
	match := func(tx *domain.Transaction) bool {
		return !tx.Timestamp.Before(start) && !tx.Timestamp.After(end)
	}
	return r.list(accountID, match, false)
}

func (r *transactionRepository) list(accountID int64, match func(*domain.Transaction) bool, newestFirst bool) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	err := r.s.run(func(d *ledgerData) error {
		for _, tx := range d.transactions {
			if tx.AccountID == accountID && match(tx) {
				cp := *tx
				out = append(out, &cp)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if newestFirst {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}
