package wallet

import (
	"context"

	"github.com/peerly/peerly/pkg/entities"
)

//go:generate mockgen -source=$GOFILE -destination=mock/mock.go -package=mock_wallet

// Repository defines the interface for ledger data operations
type Repository interface {
	// LoadBalance returns the persisted balance. found is false when no
	// balance has been written yet.
	LoadBalance(ctx context.Context) (balance int64, found bool, err error)

	// SaveBalance persists the balance
	SaveBalance(ctx context.Context, balance int64) error

	// LoadTransactions returns the transaction log, newest first
	LoadTransactions(ctx context.Context) ([]entities.Transaction, error)

	// SaveTransactions replaces the persisted transaction log
	SaveTransactions(ctx context.Context, transactions []entities.Transaction) error
}
