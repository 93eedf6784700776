package repository

import (
	"database/sql"
	"log/slog"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

// Store is the postgres ledger store. It hands out repositories bound to the
// current executor and implements the atomic-unit primitive over sql.Tx.
type Store struct {
	executor SQLExecutor
	logger   *slog.Logger
}

func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{
		executor: db,
		logger:   logger,
	}
}

func (s *Store) Accounts() domain.AccountRepository {
	return NewAccountRepository(s.executor, s.logger)
}

func (s *Store) Transactions() domain.TransactionRepository {
	return NewTransactionRepository(s.executor, s.logger)
}

// WithTransaction executes fn within a database transaction. Any error from
// fn rolls the whole unit back.
func (s *Store) WithTransaction(fn func(domain.Store) error) error {
	// Only sql.DB can begin transactions
	db, ok := s.executor.(*sql.DB)
	if !ok {
		return errors.ErrCannotBeginTransaction
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.NewAppError(errors.StorageUnavailable, "failed to begin transaction").WithDetails(err.Error())
	}

	txStore := &Store{
		executor: &TxWrapper{Tx: tx},
		logger:   s.logger,
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txStore); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

var _ domain.Store = (*Store)(nil)
