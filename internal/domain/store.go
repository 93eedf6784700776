package domain

// Store is the ledger store: durable keyed storage for accounts and
// transactions with an atomic-unit primitive. WithTransaction runs fn against
// a store whose writes commit together or not at all; returning an error from
// fn rolls everything back.
type Store interface {
	Accounts() AccountRepository
	Transactions() TransactionRepository
	WithTransaction(fn func(Store) error) error
}

// EventPublisher pushes domain events to an external broker. Publishing is
// best-effort and happens outside the atomic unit.
type EventPublisher interface {
	Publish(topic string, event any) error
}
