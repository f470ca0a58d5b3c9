package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/KotFed0t/trade_ledger/data/repository"
	"github.com/KotFed0t/trade_ledger/internal/converter/dbConverter"
	"github.com/KotFed0t/trade_ledger/internal/model"
	"github.com/KotFed0t/trade_ledger/utils"
	"github.com/shopspring/decimal"
)

type txKey struct{}

// pending holds the writes of one account transaction until it commits.
type pending struct {
	accountID int64
	cash      decimal.Decimal
	records   []model.TransactionRecord
}

// Store is a process-local ledger. Orders of one account are serialized by a
// per-account mutex; different accounts proceed in parallel.
type Store struct {
	mu           sync.RWMutex
	accounts     map[int64]model.Account
	usernames    map[string]int64
	records      map[int64][]model.TransactionRecord
	locks        map[int64]*sync.Mutex
	nextAccount  int64
	nextRecordID int64
}

func New() *Store {
	return &Store{
		accounts:  make(map[int64]model.Account),
		usernames: make(map[string]int64),
		records:   make(map[int64][]model.TransactionRecord),
		locks:     make(map[int64]*sync.Mutex),
	}
}

func (s *Store) InsertAccount(ctx context.Context, username string, cash decimal.Decimal) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usernames[username]; ok {
		return model.Account{}, repository.ErrAlreadyExists
	}

	s.nextAccount++
	account := model.Account{
		ID:        s.nextAccount,
		Username:  username,
		Cash:      cash,
		CreatedAt: time.Now().UTC(),
	}
	s.accounts[account.ID] = account
	s.usernames[username] = account.ID
	s.locks[account.ID] = &sync.Mutex{}

	slog.Debug("InsertAccount completed", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.Int64("accountID", account.ID))

	return account, nil
}

func (s *Store) GetAccount(ctx context.Context, accountID int64) (model.Account, error) {
	s.mu.RLock()
	account, ok := s.accounts[accountID]
	s.mu.RUnlock()
	if !ok {
		return model.Account{}, repository.ErrNotFound
	}

	if p := extractTx(ctx); p != nil && p.accountID == accountID {
		account.Cash = p.cash
	}

	return account, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]model.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })

	return accounts, nil
}

// DeleteAccount waits for the account's running transaction, then drops it with its log.
func (s *Store) DeleteAccount(_ context.Context, accountID int64) error {
	lock, err := s.lockFor(accountID)
	if err != nil {
		return err
	}
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return repository.ErrNotFound
	}

	delete(s.accounts, accountID)
	delete(s.usernames, account.Username)
	delete(s.records, accountID)
	delete(s.locks, accountID)

	return nil
}

// WithinAccountTransaction runs fn holding the account's mutex. Writes made
// through the passed context become visible to others only when fn succeeds.
func (s *Store) WithinAccountTransaction(ctx context.Context, accountID int64, fn func(ctx context.Context) error) error {
	if extractTx(ctx) != nil {
		return errors.New("nested account transaction")
	}

	lock, err := s.lockFor(accountID)
	if err != nil {
		return err
	}
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	account, ok := s.accounts[accountID]
	s.mu.RUnlock()
	if !ok {
		// deleted while we were waiting
		return repository.ErrNotFound
	}

	p := &pending{accountID: accountID, cash: account.Cash}
	if err = fn(context.WithValue(ctx, txKey{}, p)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok = s.accounts[accountID]
	if !ok {
		return fmt.Errorf("%w: account %d removed", repository.ErrCommitFailed, accountID)
	}
	account.Cash = p.cash
	s.accounts[accountID] = account
	s.records[accountID] = append(s.records[accountID], p.records...)

	return nil
}

// WithinSnapshot gives fn a consistent view of the account. The memory store
// has no MVCC, so it holds the account's mutex like an order does.
func (s *Store) WithinSnapshot(ctx context.Context, accountID int64, fn func(ctx context.Context) error) error {
	return s.WithinAccountTransaction(ctx, accountID, fn)
}

func (s *Store) CommitOrder(ctx context.Context, accountID int64, balanceDelta decimal.Decimal, record model.TransactionRecord) (model.TransactionRecord, error) {
	p := extractTx(ctx)
	if p == nil {
		var committed model.TransactionRecord
		err := s.WithinAccountTransaction(ctx, accountID, func(ctx context.Context) error {
			var err error
			committed, err = s.CommitOrder(ctx, accountID, balanceDelta, record)
			return err
		})
		return committed, err
	}

	if p.accountID != accountID {
		return model.TransactionRecord{}, fmt.Errorf("%w: transaction holds account %d, not %d", repository.ErrCommitFailed, p.accountID, accountID)
	}

	record.AccountID = accountID
	if _, err := dbConverter.ConvertToDbTransaction(record); err != nil {
		return model.TransactionRecord{}, fmt.Errorf("%w: invalid record: %w", repository.ErrCommitFailed, err)
	}

	newCash := p.cash.Add(balanceDelta)
	if newCash.IsNegative() {
		return model.TransactionRecord{}, fmt.Errorf("%w: cash %s, delta %s", repository.ErrNegativeBalance, p.cash, balanceDelta)
	}

	s.mu.Lock()
	s.nextRecordID++
	record.ID = s.nextRecordID
	s.mu.Unlock()

	record.ExecutedAt = record.ExecutedAt.UTC()
	p.cash = newCash
	p.records = append(p.records, record)

	return record, nil
}

func (s *Store) HeldShares(ctx context.Context, accountID int64, symbol string) (int64, error) {
	records, err := s.ReadRecords(ctx, accountID)
	if err != nil {
		return 0, err
	}

	var held int64
	for _, record := range records {
		if record.Symbol == symbol {
			held += record.Shares
		}
	}

	return held, nil
}

// ReadRecords returns a copy of the account's log ordered by execution time, ties by id.
func (s *Store) ReadRecords(ctx context.Context, accountID int64) ([]model.TransactionRecord, error) {
	s.mu.RLock()
	records := slices.Clone(s.records[accountID])
	s.mu.RUnlock()

	if p := extractTx(ctx); p != nil && p.accountID == accountID {
		records = append(records, p.records...)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].ExecutedAt.Equal(records[j].ExecutedAt) {
			return records[i].ExecutedAt.Before(records[j].ExecutedAt)
		}
		return records[i].ID < records[j].ID
	})

	if records == nil {
		records = []model.TransactionRecord{}
	}

	return records, nil
}

func (s *Store) HeldSymbols(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, records := range s.records {
		held := make(map[string]int64)
		for _, record := range records {
			held[record.Symbol] += record.Shares
		}
		for symbol, shares := range held {
			if shares > 0 {
				seen[symbol] = struct{}{}
			}
		}
	}

	symbols := make([]string, 0, len(seen))
	for symbol := range seen {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	return symbols, nil
}

func (s *Store) lockFor(accountID int64) (*sync.Mutex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lock, ok := s.locks[accountID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	return lock, nil
}

func extractTx(ctx context.Context) *pending {
	if p, ok := ctx.Value(txKey{}).(*pending); ok {
		return p
	}
	return nil
}
