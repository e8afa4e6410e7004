package interfaces

import (
	"context"

	"github.com/sheikh-saqib/vault-ledger-system/internal/models"
	"github.com/shopspring/decimal"
)

// AccountStore owns durable account records and is the sole mutator of
// balances. Implementations must enforce the non-negative balance
// invariant on SetBalance even though callers pre-validate.
type AccountStore interface {
	// CreateAccount inserts {name, openedAt, balance: 0} if absent.
	// Idempotent: creating an existing account is a no-op, not an error.
	CreateAccount(ctx context.Context, name string, openedAt int64) error

	// IsAccount reports whether an account exists.
	IsAccount(ctx context.Context, name string) (bool, error)

	// GetAccount returns the full account record, or
	// models.ErrAccountNotFound when absent.
	GetAccount(ctx context.Context, name string) (models.Account, error)

	// SetBalance is the raw balance mutation. A negative balance is
	// rejected with models.ErrInvariantViolation; a missing account with
	// models.ErrAccountNotFound.
	SetBalance(ctx context.Context, name string, balance decimal.Decimal) error

	// AllAccounts returns a snapshot of every account in insertion order.
	AllAccounts(ctx context.Context) ([]models.Account, error)
}

// AuditLog is the append-only history of balance-affecting events.
// There is no update or delete by design: the log is evidence, not
// working state.
type AuditLog interface {
	// AppendLog persists one entry. Fails only on storage I/O errors.
	AppendLog(ctx context.Context, entry models.LogEntry) error

	// GetLogEntries returns every entry, oldest first.
	GetLogEntries(ctx context.Context) ([]models.LogEntry, error)
}

// LedgerStore is the full storage substrate capability: accounts plus
// audit log behind one handle with an explicit close lifecycle.
type LedgerStore interface {
	AccountStore
	AuditLog

	Close() error
}
