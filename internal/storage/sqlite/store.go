package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	interfaces "github.com/sheikh-saqib/vault-ledger-system/internal/interfaces"
	"github.com/sheikh-saqib/vault-ledger-system/internal/models"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// Balances and amounts are stored as decimal text so values round-trip
// without binary floating point drift. The CHECK on accounts.balance is
// kept as a schema-level tripwire; the real invariant enforcement is the
// Go-side check in SetBalance.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	name      TEXT PRIMARY KEY NOT NULL,
	opened_at INTEGER NOT NULL,
	balance   TEXT NOT NULL CHECK (balance >= 0)
);
CREATE TABLE IF NOT EXISTS log (
	id     TEXT PRIMARY KEY NOT NULL,
	time   INTEGER NOT NULL,
	debit  TEXT NOT NULL,
	credit TEXT NOT NULL,
	amount TEXT NOT NULL
);
`

// SQLiteLedgerStore is a durable implementation of interfaces.LedgerStore
// backed by a single SQLite file.
type SQLiteLedgerStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and ensures
// the schema exists. The parent directory is created when missing.
func Open(path string) (*SQLiteLedgerStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteLedgerStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteLedgerStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteLedgerStore) CreateAccount(ctx context.Context, name string, openedAt int64) error {
	const query = `INSERT INTO accounts (name, opened_at, balance) VALUES (?, ?, ?)
	ON CONFLICT (name) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query, name, openedAt, decimal.Zero.String())
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *SQLiteLedgerStore) IsAccount(ctx context.Context, name string) (bool, error) {
	const query = `SELECT 1 FROM accounts WHERE name = ? LIMIT 1`

	var one int
	err := s.db.QueryRowContext(ctx, query, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query account: %w", err)
	}
	return true, nil
}

func (s *SQLiteLedgerStore) GetAccount(ctx context.Context, name string) (models.Account, error) {
	const query = `SELECT name, opened_at, balance FROM accounts WHERE name = ?`

	var account models.Account
	var balance string
	err := s.db.QueryRowContext(ctx, query, name).Scan(&account.Name, &account.OpenedAt, &balance)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, models.ErrAccountNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("query account: %w", err)
	}

	account.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return models.Account{}, fmt.Errorf("parse balance %q: %w", balance, err)
	}
	return account, nil
}

func (s *SQLiteLedgerStore) SetBalance(ctx context.Context, name string, balance decimal.Decimal) error {
	if balance.IsNegative() {
		return models.ErrInvariantViolation
	}

	const query = `UPDATE accounts SET balance = ? WHERE name = ?`

	result, err := s.db.ExecContext(ctx, query, balance.String(), name)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	if affected == 0 {
		return models.ErrAccountNotFound
	}
	return nil
}

// AllAccounts returns every account ordered by rowid, which is the
// insertion order the ranking tie-break depends on.
func (s *SQLiteLedgerStore) AllAccounts(ctx context.Context) ([]models.Account, error) {
	const query = `SELECT name, opened_at, balance FROM accounts ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var account models.Account
		var balance string
		if err := rows.Scan(&account.Name, &account.OpenedAt, &balance); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		account.Balance, err = decimal.NewFromString(balance)
		if err != nil {
			return nil, fmt.Errorf("parse balance %q: %w", balance, err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

func (s *SQLiteLedgerStore) AppendLog(ctx context.Context, entry models.LogEntry) error {
	const query = `INSERT INTO log (id, time, debit, credit, amount) VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.Time, entry.Debit, entry.Credit, entry.Amount.String())
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

func (s *SQLiteLedgerStore) GetLogEntries(ctx context.Context) ([]models.LogEntry, error) {
	const query = `SELECT id, time, debit, credit, amount FROM log ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query log: %w", err)
	}
	defer rows.Close()

	var entries []models.LogEntry
	for rows.Next() {
		var entry models.LogEntry
		var amount string
		if err := rows.Scan(&entry.ID, &entry.Time, &entry.Debit, &entry.Credit, &amount); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		entry.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amount, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return entries, nil
}

// Compile-time check: ensure SQLiteLedgerStore implements LedgerStore.
var _ interfaces.LedgerStore = (*SQLiteLedgerStore)(nil)
