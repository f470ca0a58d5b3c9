package service

import (
	"errors"
	"fmt"

	"github.com/KotFed0t/trade_ledger/data/repository"
)

var (
	ErrSymbolNotFound    = errors.New("error symbol not found")
	ErrInsufficientFunds = errors.New("error insufficient funds")
	ErrNoPosition        = errors.New("error no position in symbol")
	ErrExceedsHoldings   = errors.New("error shares exceed holdings")
	ErrQuoteUnavailable  = errors.New("error quote unavailable")
	ErrStoreUnavailable  = errors.New("error store unavailable")
	ErrCommitFailed      = errors.New("error commit failed")
	ErrInvalidShareCount = errors.New("error share count must be a positive integer")
	ErrAccountNotFound   = errors.New("error account not found")
	ErrAccountExists     = errors.New("error account already exists")
	ErrInvalidUsername   = errors.New("error username must not be blank")
	ErrUploadNotEnabled  = errors.New("error report upload is not enabled")
)

// QuoteUnavailableError names the symbol whose quote could not be obtained.
type QuoteUnavailableError struct {
	Symbol string
	Err    error
}

func (e *QuoteUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s for %s", ErrQuoteUnavailable, e.Symbol)
	}
	return fmt.Sprintf("%s for %s: %s", ErrQuoteUnavailable, e.Symbol, e.Err)
}

func (e *QuoteUnavailableError) Is(target error) bool {
	return target == ErrQuoteUnavailable
}

func (e *QuoteUnavailableError) Unwrap() error {
	return e.Err
}

var passthrough = []error{
	ErrSymbolNotFound,
	ErrInsufficientFunds,
	ErrNoPosition,
	ErrExceedsHoldings,
	ErrQuoteUnavailable,
	ErrInvalidShareCount,
	ErrAccountNotFound,
	ErrStoreUnavailable,
	ErrCommitFailed,
}

// FromStoreErr maps an error returned from inside an account transaction to the
// service error a caller can act on. Service errors pass unchanged.
func FromStoreErr(err error) error {
	if err == nil {
		return nil
	}

	for _, target := range passthrough {
		if errors.Is(err, target) {
			return err
		}
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrAccountNotFound, err)
	case errors.Is(err, repository.ErrAlreadyExists):
		return fmt.Errorf("%w: %w", ErrAccountExists, err)
	case errors.Is(err, repository.ErrCommitFailed), errors.Is(err, repository.ErrNegativeBalance):
		return fmt.Errorf("%w: %w", ErrCommitFailed, err)
	default:
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}
