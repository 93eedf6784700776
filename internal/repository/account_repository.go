package repository

import (
	"database/sql"
	"log/slog"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

type accountRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewAccountRepository(db SQLExecutor, logger *slog.Logger) domain.AccountRepository {
	return &accountRepository{
		db:     db,
		logger: logger,
	}
}

func (r *accountRepository) CreateAccount(account *domain.Account) error {
	query := `
		INSERT INTO accounts (account_number, account_type, balance, status, customer_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRow(
		query,
		account.Number,
		string(account.Type),
		account.Balance.String(),
		string(account.Status),
		account.CustomerID,
		account.CreatedAt,
	).Scan(&account.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				r.logger.Warn("Duplicate account number on insert", "account_number", account.Number)
				return errors.NewAppError(errors.DuplicateIdentifier, "account number already exists")
			}
		}
		r.logger.Error("Failed to create account", "account_number", account.Number, "error", err)
		return errors.NewAppError(errors.StorageUnavailable, "failed to create account").WithDetails(err.Error())
	}

	r.logger.Info("Account created", "account_id", account.ID, "account_number", account.Number)
	return nil
}

func (r *accountRepository) GetAccountByID(id int64) (*domain.Account, error) {
	query := `
		SELECT id, account_number, account_type, balance, status, customer_id, created_at
		FROM accounts WHERE id = $1
	`

	return r.scanAccount(query, id)
}

func (r *accountRepository) GetAccountByNumber(number string) (*domain.Account, error) {
	query := `
		SELECT id, account_number, account_type, balance, status, customer_id, created_at
		FROM accounts WHERE account_number = $1
	`

	return r.scanAccount(query, number)
}

func (r *accountRepository) scanAccount(query string, arg interface{}) (*domain.Account, error) {
	var account domain.Account
	var balanceStr, accountType, status string

	err := r.db.QueryRow(query, arg).Scan(
		&account.ID,
		&account.Number,
		&accountType,
		&balanceStr,
		&status,
		&account.CustomerID,
		&account.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrAccountNotFound
		}
		r.logger.Error("Failed to get account", "arg", arg, "error", err)
		return nil, errors.NewAppError(errors.StorageUnavailable, "failed to get account").WithDetails(err.Error())
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		r.logger.Error("Failed to parse balance", "account_id", account.ID, "balance_str", balanceStr, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to parse balance").WithDetails(err.Error())
	}

	account.Balance = balance
	account.Type = domain.AccountType(accountType)
	account.Status = domain.AccountStatus(status)
	return &account, nil
}

func (r *accountRepository) ListAccountsByCustomer(customerID int64) ([]*domain.Account, error) {
	query := `
		SELECT id, account_number, account_type, balance, status, customer_id, created_at
		FROM accounts WHERE customer_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.Query(query, customerID)
	if err != nil {
		r.logger.Error("Failed to list accounts", "customer_id", customerID, "error", err)
		return nil, errors.NewAppError(errors.StorageUnavailable, "failed to list accounts").WithDetails(err.Error())
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		var account domain.Account
		var balanceStr, accountType, status string

		if err := rows.Scan(
			&account.ID,
			&account.Number,
			&accountType,
			&balanceStr,
			&status,
			&account.CustomerID,
			&account.CreatedAt,
		); err != nil {
			return nil, errors.NewAppError(errors.StorageUnavailable, "failed to scan account").WithDetails(err.Error())
		}

		balance, err := decimal.NewFromString(balanceStr)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse balance").WithDetails(err.Error())
		}

		account.Balance = balance
		account.Type = domain.AccountType(accountType)
		account.Status = domain.AccountStatus(status)
		accounts = append(accounts, &account)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.StorageUnavailable, "failed to read accounts").WithDetails(err.Error())
	}
	return accounts, nil
}

func (r *accountRepository) AccountNumberExists(number string) (bool, error) {
	query := `SELECT 1 FROM accounts WHERE account_number = $1 LIMIT 1`

	var one int
	err := r.db.QueryRow(query, number).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewAppError(errors.StorageUnavailable, "failed to check account number").WithDetails(err.Error())
	}
	return true, nil
}

func (r *accountRepository) UpdateAccountBalance(id int64, newBalance decimal.Decimal) error {
	query := `UPDATE accounts SET balance = $1 WHERE id = $2`

	result, err := r.db.Exec(query, newBalance.String(), id)
	if err != nil {
		r.logger.Error("Failed to update account balance", "account_id", id, "error", err)
		return errors.NewAppError(errors.StorageUnavailable, "failed to update account balance").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.StorageUnavailable, "failed to get rows affected").WithDetails(err.Error())
	}
	if rowsAffected == 0 {
		return errors.ErrAccountNotFound
	}

	return nil
}

func (r *accountRepository) UpdateAccountStatus(id int64, status domain.AccountStatus) error {
	query := `UPDATE accounts SET status = $1 WHERE id = $2`

	result, err := r.db.Exec(query, string(status), id)
	if err != nil {
		r.logger.Error("Failed to update account status", "account_id", id, "status", status, "error", err)
		return errors.NewAppError(errors.StorageUnavailable, "failed to update account status").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.StorageUnavailable, "failed to get rows affected").WithDetails(err.Error())
	}
	if rowsAffected == 0 {
		return errors.ErrAccountNotFound
	}

	r.logger.Info("Account status updated", "account_id", id, "status", status)
	return nil
}
