package ledger

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/vault-ledger-system/internal/interfaces"
	"github.com/sheikh-saqib/vault-ledger-system/internal/models"
	"github.com/sheikh-saqib/vault-ledger-system/internal/models/events"
	"github.com/shopspring/decimal"
)

// DefaultOperator is the debit label recorded when a caller does not
// name one.
const DefaultOperator = "Admin"

// Ledger is the transactional surface over the account store and the
// audit log. Every mutating operation validates first, then writes the
// balance change(s) and exactly one audit entry; a rejected call writes
// nothing.
//
// Mutations are serialized by a single write lock: the balance updates
// are read-then-write without compare-and-swap, so concurrent writers
// would lose updates otherwise. Reads share a read lock so they never
// observe a half-applied mutation.
type Ledger struct {
	mu     sync.RWMutex
	store  interfaces.LedgerStore
	events interfaces.EventPublisher // optional, may be nil
}

// NewLedger creates a Ledger over the given store. publisher may be nil,
// which disables the balance-change event stream.
func NewLedger(store interfaces.LedgerStore, publisher interfaces.EventPublisher) *Ledger {
	return &Ledger{
		store:  store,
		events: publisher,
	}
}

// CreateAccount opens a zero-balance account. Creating an account that
// already exists is a no-op: balance and open time from the first call
// are kept.
func (l *Ledger) CreateAccount(ctx context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.CreateAccount(ctx, name, time.Now().Unix()); err != nil {
		return fmt.Errorf("create account %q: %w", name, err)
	}
	return nil
}

// IsAccount reports whether an account exists.
func (l *Ledger) IsAccount(ctx context.Context, name string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.store.IsAccount(ctx, name)
}

// GetBalance returns an account's balance.
func (l *Ledger) GetBalance(ctx context.Context, name string) (decimal.Decimal, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	account, err := l.store.GetAccount(ctx, name)
	if err != nil {
		return decimal.Zero, wrapAccountErr(name, err)
	}
	return account.Balance, nil
}

// GetOpenTime returns the unix second an account was opened.
func (l *Ledger) GetOpenTime(ctx context.Context, name string) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	account, err := l.store.GetAccount(ctx, name)
	if err != nil {
		return 0, wrapAccountErr(name, err)
	}
	return account.OpenedAt, nil
}

// GetLogs returns the full audit history, oldest first.
func (l *Ledger) GetLogs(ctx context.Context) ([]models.LogEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.store.GetLogEntries(ctx)
}

// GetRanking returns all accounts sorted by balance descending. Ties keep
// account creation order, so the output is deterministic.
func (l *Ledger) GetRanking(ctx context.Context) ([]models.RankedAccount, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	accounts, err := l.store.AllAccounts(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].Balance.GreaterThan(accounts[j].Balance)
	})

	ranking := make([]models.RankedAccount, 0, len(accounts))
	for _, account := range accounts {
		ranking = append(ranking, models.RankedAccount{
			Name:    account.Name,
			Balance: account.Balance,
		})
	}
	return ranking, nil
}

// Give credits amount to an account. The operator shows as the debit
// label in the log; amount must be strictly positive.
func (l *Ledger) Give(ctx context.Context, name string, amount decimal.Decimal, operator string) error {
	if operator == "" {
		operator = DefaultOperator
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Account exists
	exists, err := l.store.IsAccount(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return accountNotFound(name)
	}
	// Amount legal
	if !amount.IsPositive() {
		return invalidAmount(amount)
	}

	account, err := l.store.GetAccount(ctx, name)
	if err != nil {
		return err
	}
	if err := l.store.SetBalance(ctx, name, account.Balance.Add(amount)); err != nil {
		return err
	}
	return l.appendLog(ctx, operator, name, amount)
}

// Take debits amount from an account. The operator shows as the debit
// label in the log; the logged amount is negative.
func (l *Ledger) Take(ctx context.Context, name string, amount decimal.Decimal, operator string) error {
	if operator == "" {
		operator = DefaultOperator
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Account exists
	exists, err := l.store.IsAccount(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return accountNotFound(name)
	}
	// Amount legal
	if !amount.IsPositive() {
		return invalidAmount(amount)
	}

	account, err := l.store.GetAccount(ctx, name)
	if err != nil {
		return err
	}
	// Balance is sufficient
	if amount.GreaterThan(account.Balance) {
		return insufficientBalance(name, account.Balance, amount)
	}

	if err := l.store.SetBalance(ctx, name, account.Balance.Sub(amount)); err != nil {
		return err
	}
	return l.appendLog(ctx, operator, name, amount.Neg())
}

// Set overwrites an account's balance. Zero is allowed. The logged
// amount is the delta against the old balance and may be negative,
// zero, or positive.
func (l *Ledger) Set(ctx context.Context, name string, amount decimal.Decimal, operator string) error {
	if operator == "" {
		operator = DefaultOperator
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Account exists
	exists, err := l.store.IsAccount(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return accountNotFound(name)
	}
	// Amount legal
	if amount.IsNegative() {
		return invalidAmount(amount)
	}

	account, err := l.store.GetAccount(ctx, name)
	if err != nil {
		return err
	}
	if err := l.store.SetBalance(ctx, name, amount); err != nil {
		return err
	}
	return l.appendLog(ctx, operator, name, amount.Sub(account.Balance))
}

// Transfer moves amount from the debit account to the credit account and
// writes exactly one log entry. Transferring to the same account is
// allowed: each balance is read right before its own write, so the net
// effect is zero and only the log records that it happened.
func (l *Ledger) Transfer(ctx context.Context, debit, credit string, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Accounts exist
	var missing []string
	for _, name := range []string{debit, credit} {
		exists, err := l.store.IsAccount(ctx, name)
		if err != nil {
			return err
		}
		if !exists {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return accountNotFound(missing...)
	}
	// Amount legal
	if !amount.IsPositive() {
		return invalidAmount(amount)
	}

	debitAccount, err := l.store.GetAccount(ctx, debit)
	if err != nil {
		return err
	}
	// Debit balance is sufficient
	if amount.GreaterThan(debitAccount.Balance) {
		return insufficientBalance(debit, debitAccount.Balance, amount)
	}

	if err := l.store.SetBalance(ctx, debit, debitAccount.Balance.Sub(amount)); err != nil {
		return err
	}
	creditAccount, err := l.store.GetAccount(ctx, credit)
	if err != nil {
		return err
	}
	if err := l.store.SetBalance(ctx, credit, creditAccount.Balance.Add(amount)); err != nil {
		return err
	}
	return l.appendLog(ctx, debit, credit, amount)
}

// appendLog stamps and persists one audit entry, then emits the
// balance-change event. The event is best effort: the mutation is
// already committed, so a publish failure is logged and swallowed.
func (l *Ledger) appendLog(ctx context.Context, debit, credit string, amount decimal.Decimal) error {
	now := time.Now()
	entry := models.LogEntry{
		ID:     uuid.New().String(),
		Time:   now.Unix(),
		Debit:  debit,
		Credit: credit,
		Amount: amount,
	}

	if err := l.store.AppendLog(ctx, entry); err != nil {
		return fmt.Errorf("append log: %w", err)
	}

	if l.events != nil {
		event := events.BalanceChanged{
			EntryID:    entry.ID,
			Debit:      debit,
			Credit:     credit,
			Amount:     amount,
			OccurredAt: now,
		}
		if err := l.events.Publish(events.TopicBalanceChanged, event); err != nil {
			log.Printf("publish balance change %s: %v", entry.ID, err)
		}
	}
	return nil
}

func accountNotFound(names ...string) error {
	return fmt.Errorf("account %s: %w", strings.Join(names, ", "), models.ErrAccountNotFound)
}

func invalidAmount(amount decimal.Decimal) error {
	return fmt.Errorf("amount %s: %w", amount, models.ErrInvalidAmount)
}

func insufficientBalance(name string, balance, amount decimal.Decimal) error {
	return fmt.Errorf("account %s has %s, need %s: %w",
		name, balance, amount, models.ErrInsufficientBalance)
}

func wrapAccountErr(name string, err error) error {
	return fmt.Errorf("account %s: %w", name, err)
}
