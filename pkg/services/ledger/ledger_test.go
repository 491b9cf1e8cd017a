package ledger

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/peerly/peerly/internal/logging"
	"github.com/peerly/peerly/internal/types"
	"github.com/peerly/peerly/pkg/entities"
	walletRepo "github.com/peerly/peerly/pkg/repositories/wallet"
	mock_wallet "github.com/peerly/peerly/pkg/repositories/wallet/mock"
	"github.com/peerly/peerly/pkg/storage"
	"github.com/peerly/peerly/pkg/storage/memory"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type LedgerTestSuite struct {
	suite.Suite
	ctx   context.Context
	store *memory.Storage
	repo  *walletRepo.StorageRepository
	now   time.Time
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}

func (s *LedgerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.repo = walletRepo.NewStorageRepository(s.store)
	s.now = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
}

func (s *LedgerTestSuite) newLedger() *Ledger {
	l, err := New(s.ctx, s.repo, Options{
		InitialBalance: DefaultInitialBalance,
		Logger:         logging.Discard,
		Now:            func() time.Time { return s.now },
	})
	s.Require().NoError(err)
	return l
}

func (s *LedgerTestSuite) TestFreshLedgerStartsWithInitialBalance() {
	l := s.newLedger()

	s.Equal(int64(250), l.Balance())
	s.Empty(l.Transactions())
}

func (s *LedgerTestSuite) TestDebitThenOverdraw() {
	// Setup
	l := s.newLedger()

	// Execute
	tx, err := l.Debit(s.ctx, 15, "Booking: Calculus with Sarah")

	// Assert
	s.Require().NoError(err)
	s.Equal(int64(235), l.Balance())
	s.Equal(entities.TransactionTypeSpent, tx.Type)
	s.Equal(int64(15), tx.Amount)
	s.Equal(int64(235), tx.BalanceAfter)
	s.Equal(s.now, tx.Timestamp)

	// Execute
	_, err = l.Debit(s.ctx, 300, "Too expensive")

	// Assert
	s.ErrorIs(err, ErrInsufficientFunds)
	s.Equal(int64(235), l.Balance(), "A rejected debit must not change the balance")
	s.Len(l.Transactions(), 1)
}

func (s *LedgerTestSuite) TestDebitExactBalance() {
	l := s.newLedger()

	_, err := l.Debit(s.ctx, 250, "Everything")

	s.NoError(err)
	s.Zero(l.Balance())
}

func (s *LedgerTestSuite) TestCreditHasNoUpperBound() {
	l := s.newLedger()

	tx, err := l.Credit(s.ctx, 1_000_000, "Teaching marathon")

	s.Require().NoError(err)
	s.Equal(entities.TransactionTypeEarned, tx.Type)
	s.Equal(int64(1_000_250), l.Balance())
}

func (s *LedgerTestSuite) TestCreditOverflowRejected() {
	// Setup
	l := s.newLedger()

	// Execute
	_, err := l.Credit(s.ctx, math.MaxInt64, "huge")

	// Assert
	s.ErrorIs(err, ErrInvalidAmount)
	s.Equal(int64(250), l.Balance())
	s.Empty(l.Transactions())

	_, err = l.Credit(s.ctx, math.MaxInt64-250, "to the brim")
	s.Require().NoError(err)
	s.Equal(int64(math.MaxInt64), l.Balance())

	_, err = l.Credit(s.ctx, 1, "one more")
	s.ErrorIs(err, ErrInvalidAmount)
	s.Equal(int64(math.MaxInt64), l.Balance())
}

func (s *LedgerTestSuite) TestNonPositiveAmountsRejected() {
	l := s.newLedger()

	for _, amount := range []int64{0, -5} {
		_, err := l.Credit(s.ctx, amount, "bad")
		s.ErrorIs(err, ErrInvalidAmount)

		_, err = l.Debit(s.ctx, amount, "bad")
		s.ErrorIs(err, ErrInvalidAmount)
	}

	s.Equal(int64(250), l.Balance())
	s.Empty(l.Transactions())
}

func (s *LedgerTestSuite) TestTransactionsNewestFirstWithUniqueIDs() {
	// Setup
	l := s.newLedger()

	// Execute
	first, err := l.Credit(s.ctx, 10, "first")
	s.Require().NoError(err)
	second, err := l.Debit(s.ctx, 5, "second")
	s.Require().NoError(err)

	// Assert
	txs := l.Transactions()
	s.Require().Len(txs, 2)
	s.Equal(second.ID, txs[0].ID)
	s.Equal(first.ID, txs[1].ID)
	s.NotEqual(first.ID, second.ID)
}

func (s *LedgerTestSuite) TestTransactionsReturnsCopy() {
	l := s.newLedger()
	_, err := l.Credit(s.ctx, 10, "first")
	s.Require().NoError(err)

	txs := l.Transactions()
	txs[0].Amount = 999

	s.Equal(int64(10), l.Transactions()[0].Amount)
}

func (s *LedgerTestSuite) TestStateSurvivesReload() {
	// Setup
	l := s.newLedger()
	_, err := l.Debit(s.ctx, 15, "Booking")
	s.Require().NoError(err)
	_, err = l.Credit(s.ctx, 40, "Tutoring")
	s.Require().NoError(err)

	// Execute
	reloaded := s.newLedger()

	// Assert
	s.Equal(l.Balance(), reloaded.Balance())
	s.Equal(l.Transactions(), reloaded.Transactions())

	raw, err := s.store.Get(s.ctx, storage.KeyBalance)
	s.Require().NoError(err)
	s.Equal("275", string(raw))
}

func (s *LedgerTestSuite) TestCorruptDataAtStartupFallsBackToDefaults() {
	// Setup
	s.Require().NoError(s.store.Set(s.ctx, storage.KeyBalance, []byte("NaN")))
	s.Require().NoError(s.store.Set(s.ctx, storage.KeyTransactions, []byte("[{")))

	// Execute
	l := s.newLedger()

	// Assert
	s.Equal(int64(250), l.Balance())
	s.Empty(l.Transactions())
}

func (s *LedgerTestSuite) TestNegativePersistedBalanceFallsBackToDefault() {
	// Setup
	s.Require().NoError(s.store.Set(s.ctx, storage.KeyBalance, []byte("-40")))

	// Execute
	l := s.newLedger()

	// Assert
	s.Equal(int64(250), l.Balance())
	s.True(types.IsError(l.Refresh(s.ctx), types.ErrCorruptData))
	s.Equal(int64(250), l.Balance())
}

func (s *LedgerTestSuite) TestRefresh() {
	// Setup
	l := s.newLedger()
	other := s.newLedger()
	_, err := other.Credit(s.ctx, 50, "Written elsewhere")
	s.Require().NoError(err)

	// Execute
	s.Require().NoError(l.Refresh(s.ctx))

	// Assert
	s.Equal(int64(300), l.Balance())
	s.Len(l.Transactions(), 1)
}

func (s *LedgerTestSuite) TestRefreshKeepsStateOnCorruptData() {
	// Setup
	l := s.newLedger()
	_, err := l.Debit(s.ctx, 15, "Booking")
	s.Require().NoError(err)
	s.Require().NoError(s.store.Set(s.ctx, storage.KeyBalance, []byte("garbage")))

	// Execute
	err = l.Refresh(s.ctx)

	// Assert
	s.True(types.IsError(err, types.ErrCorruptData))
	s.Equal(int64(235), l.Balance())
	s.Len(l.Transactions(), 1)
}

func (s *LedgerTestSuite) TestConcurrentDebitsNeverOverdraw() {
	l := s.newLedger()

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Debit(s.ctx, 10, "race"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(25, succeeded)
	s.Zero(l.Balance())
	s.Len(l.Transactions(), 25)
}

func (s *LedgerTestSuite) TestBalanceWriteFailureLeavesStateUnchanged() {
	// Setup
	ctrl := gomock.NewController(s.T())
	repo := mock_wallet.NewMockRepository(ctrl)
	repo.EXPECT().LoadBalance(gomock.Any()).Return(int64(100), true, nil)
	repo.EXPECT().LoadTransactions(gomock.Any()).Return([]entities.Transaction{}, nil)
	repo.EXPECT().SaveBalance(gomock.Any(), int64(90)).Return(errors.New("disk full"))

	l, err := New(s.ctx, repo, Options{Logger: logging.Discard})
	s.Require().NoError(err)

	// Execute
	_, err = l.Debit(s.ctx, 10, "Booking")

	// Assert
	s.True(types.IsError(err, types.ErrStorageError))
	s.Equal(int64(100), l.Balance())
	s.Empty(l.Transactions())
}

func (s *LedgerTestSuite) TestLogWriteFailureRestoresBalance() {
	// Setup
	ctrl := gomock.NewController(s.T())
	repo := mock_wallet.NewMockRepository(ctrl)
	repo.EXPECT().LoadBalance(gomock.Any()).Return(int64(0), false, nil)
	repo.EXPECT().LoadTransactions(gomock.Any()).Return([]entities.Transaction{}, nil)
	gomock.InOrder(
		repo.EXPECT().SaveBalance(gomock.Any(), int64(270)).Return(nil),
		repo.EXPECT().SaveTransactions(gomock.Any(), gomock.Len(1)).
			Return(types.WrapError(types.ErrStorageError, "failed to write transactions", errors.New("timeout"))),
		repo.EXPECT().SaveBalance(gomock.Any(), int64(250)).Return(nil),
	)

	l, err := New(s.ctx, repo, Options{InitialBalance: DefaultInitialBalance, Logger: logging.Discard})
	s.Require().NoError(err)

	// Execute
	_, err = l.Credit(s.ctx, 20, "Tutoring")

	// Assert
	s.True(types.IsError(err, types.ErrStorageError))
	s.Equal(int64(250), l.Balance())
}

func (s *LedgerTestSuite) TestStartupFailsWhenStoreUnreachable() {
	ctrl := gomock.NewController(s.T())
	repo := mock_wallet.NewMockRepository(ctrl)
	repo.EXPECT().LoadBalance(gomock.Any()).
		Return(int64(0), false, types.WrapError(types.ErrStorageError, "failed to read balance", errors.New("refused")))

	_, err := New(s.ctx, repo, DefaultOptions())

	s.True(types.IsError(err, types.ErrStorageError))
}
