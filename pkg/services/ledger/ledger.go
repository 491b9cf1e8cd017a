// Package ledger keeps the SuperCoin balance and its transaction log.
package ledger

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/peerly/peerly/internal/logging"
	"github.com/peerly/peerly/internal/metrics"
	"github.com/peerly/peerly/internal/types"
	"github.com/peerly/peerly/pkg/entities"
	walletRepo "github.com/peerly/peerly/pkg/repositories/wallet"
)

// DefaultInitialBalance is granted when no balance has been persisted
const DefaultInitialBalance int64 = 250

var (
	ErrInvalidAmount     = types.NewError(types.ErrInvalidAmount, "amount must be positive")
	ErrInsufficientFunds = types.NewError(types.ErrInsufficientFunds, "insufficient SuperCoins")
)

// Options configures a Ledger
type Options struct {
	InitialBalance int64
	Logger         *logging.Logger
	Now            func() time.Time
}

// DefaultOptions returns the options used by the application
func DefaultOptions() Options {
	return Options{InitialBalance: DefaultInitialBalance}
}

// Ledger holds the balance and the newest-first transaction log. It is
// safe for concurrent use.
type Ledger struct {
	mu           sync.RWMutex
	repo         walletRepo.Repository
	logger       *logging.Logger
	now          func() time.Time
	initial      int64
	balance      int64
	transactions []entities.Transaction
}

// New loads the ledger from repo. Corrupt persisted data is logged and
// replaced by defaults; an unreachable store is returned as an error.
func New(ctx context.Context, repo walletRepo.Repository, opts Options) (*Ledger, error) {
	l := &Ledger{
		repo:    repo,
		logger:  opts.Logger,
		now:     opts.Now,
		initial: opts.InitialBalance,
	}
	if l.logger == nil {
		l.logger = logging.Default
	}
	if l.now == nil {
		l.now = time.Now
	}

	balance, err := l.loadBalance(ctx)
	if err != nil {
		if !types.IsError(err, types.ErrCorruptData) {
			return nil, err
		}
		l.logger.Warn("Persisted balance is corrupt, starting from %d: %v", l.initial, err)
		balance = l.initial
	}

	transactions, err := repo.LoadTransactions(ctx)
	if err != nil {
		if !types.IsError(err, types.ErrCorruptData) {
			return nil, err
		}
		l.logger.Warn("Persisted transactions are corrupt, starting with an empty log: %v", err)
		transactions = []entities.Transaction{}
	}

	l.balance = balance
	l.transactions = transactions
	metrics.LedgerBalance.Set(float64(balance))

	return l, nil
}

func (l *Ledger) loadBalance(ctx context.Context) (int64, error) {
	balance, found, err := l.repo.LoadBalance(ctx)
	if err != nil {
		return 0, err
	}
	if !found {
		return l.initial, nil
	}
	return balance, nil
}

// Balance returns the current balance
func (l *Ledger) Balance() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balance
}

// Transactions returns a copy of the log, newest first
func (l *Ledger) Transactions() []entities.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]entities.Transaction, len(l.transactions))
	copy(out, l.transactions)
	return out
}

// Credit adds amount to the balance and records an earned transaction
func (l *Ledger) Credit(ctx context.Context, amount int64, reason string) (*entities.Transaction, error) {
	tx, err := l.apply(ctx, entities.TransactionTypeEarned, amount, reason)
	recordOperation("credit", err)
	return tx, err
}

// Debit removes amount from the balance and records a spent transaction.
// It fails with ErrInsufficientFunds, changing nothing, when the balance
// is lower than amount.
func (l *Ledger) Debit(ctx context.Context, amount int64, reason string) (*entities.Transaction, error) {
	tx, err := l.apply(ctx, entities.TransactionTypeSpent, amount, reason)
	recordOperation("debit", err)
	return tx, err
}

func (l *Ledger) apply(ctx context.Context, txType entities.TransactionType, amount int64, reason string) (*entities.Transaction, error) {
	if amount <= 0 {
		return nil, types.Errorf(types.ErrInvalidAmount, "amount must be positive, got %d", amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if txType == entities.TransactionTypeSpent && l.balance < amount {
		return nil, types.Errorf(types.ErrInsufficientFunds, "balance %d is less than %d", l.balance, amount)
	}
	if txType == entities.TransactionTypeEarned && amount > math.MaxInt64-l.balance {
		return nil, types.Errorf(types.ErrInvalidAmount, "crediting %d would overflow balance %d", amount, l.balance)
	}

	tx := entities.Transaction{
		ID:        entities.NewID(entities.TransactionIDPrefix),
		Type:      txType,
		Amount:    amount,
		Reason:    reason,
		Timestamp: l.now().UTC(),
	}
	next := l.balance + tx.Signed()
	tx.BalanceAfter = next

	transactions := make([]entities.Transaction, 0, len(l.transactions)+1)
	transactions = append(transactions, tx)
	transactions = append(transactions, l.transactions...)

	if err := l.persist(ctx, next, transactions); err != nil {
		return nil, err
	}

	l.balance = next
	l.transactions = transactions
	metrics.LedgerBalance.Set(float64(next))
	l.logger.Debug("Recorded %s transaction %s: amount=%d balance=%d", txType, tx.ID, amount, next)

	return &tx, nil
}

// persist writes the balance, then the log. When the log cannot be
// written the previous balance is restored so both keys stay consistent.
func (l *Ledger) persist(ctx context.Context, balance int64, transactions []entities.Transaction) error {
	if err := l.repo.SaveBalance(ctx, balance); err != nil {
		return asStorageError(err)
	}

	if err := l.repo.SaveTransactions(ctx, transactions); err != nil {
		if rbErr := l.repo.SaveBalance(ctx, l.balance); rbErr != nil {
			l.logger.Error("Failed to restore balance %d after transaction log write failed: %v", l.balance, rbErr)
		}
		return asStorageError(err)
	}

	return nil
}

// Refresh reloads the balance and log from storage. On failure the
// in-memory state is kept.
func (l *Ledger) Refresh(ctx context.Context) error {
	balance, err := l.loadBalance(ctx)
	if err != nil {
		return err
	}
	transactions, err := l.repo.LoadTransactions(ctx)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.balance = balance
	l.transactions = transactions
	metrics.LedgerBalance.Set(float64(balance))
	return nil
}

func asStorageError(err error) error {
	var domainErr *types.Error
	if types.As(err, &domainErr) {
		return err
	}
	return types.WrapError(types.ErrStorageError, "failed to persist ledger", err)
}

func recordOperation(operation string, err error) {
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = string(types.CodeOf(err))
	}
	metrics.LedgerOperations.WithLabelValues(operation, outcome).Inc()
}
