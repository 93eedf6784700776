package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

type transactionRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewTransactionRepository(db SQLExecutor, logger *slog.Logger) domain.TransactionRepository {
	return &transactionRepository{
		db:     db,
		logger: logger,
	}
}

const transactionColumns = `id, transaction_id, account_id, type, amount, description, balance_after, to_account_number, from_account_number, created_at`

func (r *transactionRepository) CreateTransaction(tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions
		(transaction_id, account_id, type, amount, description, balance_after, to_account_number, from_account_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.db.QueryRow(
		query,
		tx.TransactionID,
		tx.AccountID,
		string(tx.Type),
		tx.Amount.String(),
		tx.Description,
		tx.BalanceAfter.String(),
		nullableString(tx.ToAccountNumber),
		nullableString(tx.FromAccountNumber),
		tx.Timestamp,
	).Scan(&tx.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				r.logger.Warn("Duplicate transaction id on insert", "transaction_id", tx.TransactionID)
				return errors.NewAppError(errors.DuplicateIdentifier, "transaction id already exists")
			}
		}
		r.logger.Error("Failed to create transaction",
			"transaction_id", tx.TransactionID,
			"account_id", tx.AccountID,
			"type", tx.Type,
			"error", err)
		return errors.NewAppError(errors.StorageUnavailable, "failed to create transaction").WithDetails(err.Error())
	}

	r.logger.Info("Transaction created", "transaction_id", tx.TransactionID, "type", tx.Type)
	return nil
}

func (r *transactionRepository) GetTransactionByTransactionID(transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1`

	rows, err := r.db.Query(query, transactionID)
	if err != nil {
		return nil, errors.NewAppError(errors.StorageUnavailable, "failed to get transaction").WithDetails(err.Error())
	}
	defer rows.Close()

	txs, err := r.collectTransactions(rows)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, errors.ErrTransactionNotFound
	}
	return txs[0], nil
}

func (r *transactionRepository) TransactionIDExists(transactionID string) (bool, error) {
	query := `SELECT 1 FROM transactions WHERE transaction_id = $1 LIMIT 1`

	var one int
	err := r.db.QueryRow(query, transactionID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewAppError(errors.StorageUnavailable, "failed to check transaction id").WithDetails(err.Error())
	}
	return true, nil
}

func (r *transactionRepository) ListTransactionsByAccount(accountID int64) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE account_id = $1 ORDER BY created_at DESC, id DESC`

	return r.queryTransactions(query, accountID)
}

func (r *transactionRepository) ListTransactionsByAccountAndType(accountID int64, t domain.TransactionType) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE account_id = $1 AND type = $2 ORDER BY created_at DESC, id DESC`

	return r.queryTransactions(query, accountID, string(t))
}

func (r *transactionRepository) ListTransactionsByAccountBetween(accountID int64, start, end time.Time) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE account_id = $1 AND created_at BETWEEN $2 AND $3 ORDER BY id`

	return r.queryTransactions(query, accountID, start, end)
}

func (r *transactionRepository) queryTransactions(query string, args ...interface{}) ([]*domain.Transaction, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("Failed to list transactions", "error", err)
		return nil, errors.NewAppError(errors.StorageUnavailable, "failed to list transactions").WithDetails(err.Error())
	}
	defer rows.Close()

	return r.collectTransactions(rows)
}

func (r *transactionRepository) collectTransactions(rows *sql.Rows) ([]*domain.Transaction, error) {
	var txs []*domain.Transaction

	for rows.Next() {
		var tx domain.Transaction
		var txType, amountStr, balanceAfterStr string
		var toNumber, fromNumber sql.NullString

		if err := rows.Scan(
			&tx.ID,
			&tx.TransactionID,
			&tx.AccountID,
			&txType,
			&amountStr,
			&tx.Description,
			&balanceAfterStr,
			&toNumber,
			&fromNumber,
			&tx.Timestamp,
		); err != nil {
			return nil, errors.NewAppError(errors.StorageUnavailable, "failed to scan transaction").WithDetails(err.Error())
		}

		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse amount").WithDetails(err.Error())
		}
		balanceAfter, err := decimal.NewFromString(balanceAfterStr)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse balance_after").WithDetails(err.Error())
		}

		tx.Type = domain.TransactionType(txType)
		tx.Amount = amount
		tx.BalanceAfter = balanceAfter
		tx.ToAccountNumber = toNumber.String
		tx.FromAccountNumber = fromNumber.String
		txs = append(txs, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.StorageUnavailable, "failed to read transactions").WithDetails(err.Error())
	}
	return txs, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
