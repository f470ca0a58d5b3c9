package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/KotFed0t/trade_ledger/data/repository"
	"github.com/KotFed0t/trade_ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(side model.Side, symbol string, shares int64, price int64) model.TransactionRecord {
	p := decimal.NewFromInt(price)
	return model.TransactionRecord{
		Side:       side,
		Symbol:     symbol,
		Shares:     shares,
		Price:      p,
		Total:      p.Mul(decimal.NewFromInt(shares)),
		ExecutedAt: time.Now(),
	}
}

func TestInsertAccount(t *testing.T) {
	ctx := context.Background()
	store := New()

	account, err := store.InsertAccount(ctx, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, int64(1), account.ID)

	_, err = store.InsertAccount(ctx, "alice", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)

	_, err = store.GetAccount(ctx, 2)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTransactionIsolation(t *testing.T) {
	ctx := context.Background()
	store := New()

	account, err := store.InsertAccount(ctx, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)

	errBoom := errors.New("boom")
	err = store.WithinAccountTransaction(ctx, account.ID, func(txCtx context.Context) error {
		buy := record(model.SideBought, "AAPL", 2, 10)
		_, err := store.CommitOrder(txCtx, account.ID, buy.Total.Neg(), buy)
		require.NoError(t, err)

		inside, err := store.GetAccount(txCtx, account.ID)
		require.NoError(t, err)
		assert.True(t, inside.Cash.Equal(decimal.NewFromInt(80)))

		outside, err := store.GetAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, outside.Cash.Equal(decimal.NewFromInt(100)))

		held, err := store.HeldShares(txCtx, account.ID, "AAPL")
		require.NoError(t, err)
		assert.Equal(t, int64(2), held)

		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	records, err := store.ReadRecords(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCommitOrderRejectsNegativeBalance(t *testing.T) {
	ctx := context.Background()
	store := New()

	account, err := store.InsertAccount(ctx, "alice", decimal.NewFromInt(10))
	require.NoError(t, err)

	buy := record(model.SideBought, "AAPL", 2, 10)
	_, err = store.CommitOrder(ctx, account.ID, buy.Total.Neg(), buy)
	assert.ErrorIs(t, err, repository.ErrNegativeBalance)

	got, err := store.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Cash.Equal(decimal.NewFromInt(10)))
}

func TestConcurrentCommitsKeepBalance(t *testing.T) {
	ctx := context.Background()
	store := New()

	account, err := store.InsertAccount(ctx, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buy := record(model.SideBought, "AAPL", 1, 10)
			if _, err := store.CommitOrder(ctx, account.ID, buy.Total.Neg(), buy); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)

	got, err := store.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Cash.IsZero())

	held, err := store.HeldShares(ctx, account.ID, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(10), held)
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	store := New()

	account, err := store.InsertAccount(ctx, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)

	buy := record(model.SideBought, "AAPL", 1, 10)
	_, err = store.CommitOrder(ctx, account.ID, buy.Total.Neg(), buy)
	require.NoError(t, err)

	symbols, err := store.HeldSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, symbols)

	require.NoError(t, store.DeleteAccount(ctx, account.ID))
	assert.ErrorIs(t, store.DeleteAccount(ctx, account.ID), repository.ErrNotFound)

	symbols, err = store.HeldSymbols(ctx)
	require.NoError(t, err)
	assert.Empty(t, symbols)

	_, err = store.InsertAccount(ctx, "alice", decimal.NewFromInt(100))
	assert.NoError(t, err, "username is free again")
}

func TestWithinSnapshot(t *testing.T) {
	ctx := context.Background()
	store := New()

	account, err := store.InsertAccount(ctx, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)
	buy := record(model.SideBought, "AAPL", 2, 10)
	_, err = store.CommitOrder(ctx, account.ID, buy.Total.Neg(), buy)
	require.NoError(t, err)

	err = store.WithinSnapshot(ctx, account.ID, func(ctx context.Context) error {
		got, err := store.GetAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, got.Cash.Equal(decimal.NewFromInt(80)))

		records, err := store.ReadRecords(ctx, account.ID)
		require.NoError(t, err)
		assert.Len(t, records, 1)
		return nil
	})
	require.NoError(t, err)

	err = store.WithinSnapshot(ctx, 42, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
