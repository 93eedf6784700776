package memory

import (
	"sync"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

// CustomerDirectory is the in-memory customer collaborator.
type CustomerDirectory struct {
	mu     sync.Mutex
	nextID int64
	ids    map[int64]struct{}
	emails map[string]struct{}
}

func NewCustomerDirectory() *CustomerDirectory {
	return &CustomerDirectory{
		ids:    make(map[int64]struct{}),
		emails: make(map[string]struct{}),
	}
}

func (d *CustomerDirectory) CustomerExists(customerID int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.ids[customerID]
	return ok, nil
}

func (d *CustomerDirectory) AddCustomer(email string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.emails[email]; exists {
		return 0, errors.NewAppErrorf(errors.DuplicateIdentifier, "customer with email %s already exists", email)
	}

	d.nextID++
	d.ids[d.nextID] = struct{}{}
	d.emails[email] = struct{}{}
	return d.nextID, nil
}

var _ domain.CustomerDirectory = (*CustomerDirectory)(nil)
