package entities

import (
	"time"
)

// TransactionType represents the direction of a ledger transaction
type TransactionType string

const (
	TransactionTypeEarned TransactionType = "earned"
	TransactionTypeSpent  TransactionType = "spent"
)

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	return t == TransactionTypeEarned || t == TransactionTypeSpent
}

// Transaction represents a single SuperCoin ledger entry. Transactions are
// never modified after they are recorded.
type Transaction struct {
	ID           string          `json:"id"`           // Unique, time-ordered identifier
	Type         TransactionType `json:"type"`         // earned or spent
	Amount       int64           `json:"amount"`       // Always positive
	Reason       string          `json:"reason"`       // Human-readable description
	Timestamp    time.Time       `json:"timestamp"`    // When the transaction occurred
	BalanceAfter int64           `json:"balanceAfter"` // Balance after this transaction
}

// Signed returns the amount with the sign of its effect on the balance
func (t Transaction) Signed() int64 {
	if t.Type == TransactionTypeSpent {
		return -t.Amount
	}
	return t.Amount
}
