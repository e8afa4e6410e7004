package memory

import (
	"context"
	"sync"

	interfaces "github.com/sheikh-saqib/vault-ledger-system/internal/interfaces"
	"github.com/sheikh-saqib/vault-ledger-system/internal/models"
	"github.com/shopspring/decimal"
)

// MemoryLedgerStore is an in-memory implementation of interfaces.LedgerStore.
// It is thread-safe and keeps accounts in insertion order, which the
// ranking tie-break depends on.
type MemoryLedgerStore struct {
	mu       sync.Mutex
	accounts map[string]models.Account
	order    []string // account names in creation order
	entries  []models.LogEntry
}

// NewMemoryLedgerStore creates and returns a new MemoryLedgerStore instance.
func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		accounts: make(map[string]models.Account),
		order:    make([]string, 0),
		entries:  make([]models.LogEntry, 0),
	}
}

// CreateAccount inserts a zero-balance account if absent. Re-creating an
// existing account is a no-op: the original balance and open time stay.
func (m *MemoryLedgerStore) CreateAccount(ctx context.Context, name string, openedAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[name]; exists {
		return nil
	}

	m.accounts[name] = models.Account{
		Name:     name,
		OpenedAt: openedAt,
		Balance:  decimal.Zero,
	}
	m.order = append(m.order, name)
	return nil
}

func (m *MemoryLedgerStore) IsAccount(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, exists := m.accounts[name]
	return exists, nil
}

func (m *MemoryLedgerStore) GetAccount(ctx context.Context, name string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, exists := m.accounts[name]
	if !exists {
		return models.Account{}, models.ErrAccountNotFound
	}
	return account, nil
}

// SetBalance overwrites an account's balance. A negative balance is
// rejected before anything is written.
func (m *MemoryLedgerStore) SetBalance(ctx context.Context, name string, balance decimal.Decimal) error {
	if balance.IsNegative() {
		return models.ErrInvariantViolation
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	account, exists := m.accounts[name]
	if !exists {
		return models.ErrAccountNotFound
	}

	account.Balance = balance
	m.accounts[name] = account
	return nil
}

// AllAccounts returns a copy of every account in creation order, so
// external code can't modify internal state.
func (m *MemoryLedgerStore) AllAccounts(ctx context.Context) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	accounts := make([]models.Account, 0, len(m.order))
	for _, name := range m.order {
		accounts = append(accounts, m.accounts[name])
	}
	return accounts, nil
}

// AppendLog appends one audit entry. Entries are never updated or deleted.
func (m *MemoryLedgerStore) AppendLog(ctx context.Context, entry models.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, entry)
	return nil
}

// GetLogEntries returns a copy of all audit entries, oldest first.
func (m *MemoryLedgerStore) GetLogEntries(ctx context.Context) ([]models.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]models.LogEntry, len(m.entries))
	copy(copied, m.entries)
	return copied, nil
}

func (m *MemoryLedgerStore) Close() error {
	return nil
}

// Compile-time check: ensure MemoryLedgerStore implements LedgerStore.
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
