package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/KotFed0t/trade_ledger/data/repository"
	"github.com/stretchr/testify/assert"
)

func TestFromStoreErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "missing account", err: repository.ErrNotFound, want: ErrAccountNotFound},
		{name: "duplicate", err: repository.ErrAlreadyExists, want: ErrAccountExists},
		{name: "commit", err: fmt.Errorf("%w: disk full", repository.ErrCommitFailed), want: ErrCommitFailed},
		{name: "negative balance", err: repository.ErrNegativeBalance, want: ErrCommitFailed},
		{name: "begin", err: fmt.Errorf("%w: refused", repository.ErrUnavailable), want: ErrStoreUnavailable},
		{name: "unknown", err: errors.New("driver: bad connection"), want: ErrStoreUnavailable},
		{name: "service error", err: fmt.Errorf("%w: need 10", ErrInsufficientFunds), want: ErrInsufficientFunds},
		{name: "quote", err: &QuoteUnavailableError{Symbol: "AAPL"}, want: ErrQuoteUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, FromStoreErr(tt.err), tt.want)
		})
	}

	assert.NoError(t, FromStoreErr(nil))
}

func TestQuoteUnavailableError(t *testing.T) {
	cause := errors.New("timeout")
	err := fmt.Errorf("valuation: %w", &QuoteUnavailableError{Symbol: "MSFT", Err: cause})

	assert.ErrorIs(t, err, ErrQuoteUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrSymbolNotFound)

	var quoteErr *QuoteUnavailableError
	assert.True(t, errors.As(err, &quoteErr))
	assert.Equal(t, "MSFT", quoteErr.Symbol)
	assert.Equal(t, "error quote unavailable for MSFT: timeout", quoteErr.Error())
}

func TestFromStoreErrCommitMessage(t *testing.T) {
	err := FromStoreErr(fmt.Errorf("%w: update balance: database is locked", repository.ErrCommitFailed))

	assert.ErrorIs(t, err, ErrCommitFailed)
	assert.ErrorIs(t, err, repository.ErrCommitFailed)
	assert.Equal(t, "error commit failed: error store commit failed: update balance: database is locked", err.Error())
}
