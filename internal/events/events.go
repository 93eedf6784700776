package events

import "time"

const TopicTransactionCompleted = "transaction_completed"

// TransactionCompleted is emitted after a ledger entry commits. Amounts are
// decimal strings; no floating point crosses the wire.
type TransactionCompleted struct {
	TransactionID string    `json:"transaction_id"`
	AccountNumber string    `json:"account_number"`
	Type          string    `json:"type"`
	Amount        string    `json:"amount"`
	BalanceAfter  string    `json:"balance_after"`
	OccurredAt    time.Time `json:"occurred_at"`
}
