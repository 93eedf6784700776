package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

// CustomerDirectory is the postgres-backed customer collaborator. The ledger
// only consumes CustomerExists; CreateCustomer exists for seeding.
type CustomerDirectory struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewCustomerDirectory(db SQLExecutor, logger *slog.Logger) *CustomerDirectory {
	return &CustomerDirectory{
		db:     db,
		logger: logger,
	}
}

func (d *CustomerDirectory) CustomerExists(customerID int64) (bool, error) {
	query := `SELECT 1 FROM customers WHERE id = $1 LIMIT 1`

	var one int
	err := d.db.QueryRow(query, customerID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewAppError(errors.StorageUnavailable, "failed to check customer").WithDetails(err.Error())
	}
	return true, nil
}

func (d *CustomerDirectory) CreateCustomer(name, email, phone, address string) (int64, error) {
	query := `
		INSERT INTO customers (name, email, phone, address, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := d.db.QueryRow(query, name, email, phone, address, time.Now().UTC()).Scan(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation on email
				return 0, errors.NewAppErrorf(errors.DuplicateIdentifier, "customer with email %s already exists", email)
			}
		}
		d.logger.Error("Failed to create customer", "email", email, "error", err)
		return 0, errors.NewAppError(errors.StorageUnavailable, "failed to create customer").WithDetails(err.Error())
	}

	return id, nil
}

var _ domain.CustomerDirectory = (*CustomerDirectory)(nil)
