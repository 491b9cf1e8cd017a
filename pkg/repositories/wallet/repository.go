package wallet

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/peerly/peerly/internal/types"
	"github.com/peerly/peerly/pkg/entities"
	"github.com/peerly/peerly/pkg/repositories"
	"github.com/peerly/peerly/pkg/storage"
)

// StorageRepository implements Repository over a key/value storage.
// The balance is stored as a decimal string and the log as a JSON array.
type StorageRepository struct {
	store storage.Storage
}

// NewStorageRepository creates a new wallet repository
func NewStorageRepository(store storage.Storage) *StorageRepository {
	return &StorageRepository{store: store}
}

// LoadBalance retrieves the persisted balance
func (r *StorageRepository) LoadBalance(ctx context.Context) (int64, bool, error) {
	raw, err := r.store.Get(ctx, storage.KeyBalance)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, types.WrapError(types.ErrStorageError, "failed to read balance", err)
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return 0, false, nil
	}

	balance, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, true, types.WrapError(types.ErrCorruptData, "malformed balance", err)
	}
	if balance < 0 {
		return 0, true, types.Errorf(types.ErrCorruptData, "negative balance %d", balance)
	}
	return balance, true, nil
}

// SaveBalance persists the balance
func (r *StorageRepository) SaveBalance(ctx context.Context, balance int64) error {
	if err := r.store.Set(ctx, storage.KeyBalance, []byte(strconv.FormatInt(balance, 10))); err != nil {
		return types.WrapError(types.ErrStorageError, "failed to write balance", err)
	}
	return nil
}

// LoadTransactions retrieves the transaction log
func (r *StorageRepository) LoadTransactions(ctx context.Context) ([]entities.Transaction, error) {
	txs, _, err := repositories.LoadList[entities.Transaction](ctx, r.store, storage.KeyTransactions)
	return txs, err
}

// SaveTransactions persists the transaction log
func (r *StorageRepository) SaveTransactions(ctx context.Context, transactions []entities.Transaction) error {
	return repositories.SaveList(ctx, r.store, storage.KeyTransactions, transactions)
}
