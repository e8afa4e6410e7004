package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	interfaces "github.com/sheikh-saqib/vault-ledger-system/internal/interfaces"
	"github.com/sheikh-saqib/vault-ledger-system/internal/models"
	"github.com/shopspring/decimal"
)

// The seq columns exist only to give a deterministic insertion order for
// ranking tie-breaks and log listing; they never leave this package.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	name      TEXT PRIMARY KEY,
	opened_at BIGINT NOT NULL,
	balance   TEXT NOT NULL,
	seq       BIGSERIAL
);
CREATE TABLE IF NOT EXISTS log (
	id     TEXT PRIMARY KEY,
	time   BIGINT NOT NULL,
	debit  TEXT NOT NULL,
	credit TEXT NOT NULL,
	amount TEXT NOT NULL,
	seq    BIGSERIAL
);
`

// PostgresLedgerStore is a durable implementation of interfaces.LedgerStore
// backed by PostgreSQL.
type PostgresLedgerStore struct {
	db *sql.DB
}

// Open connects to Postgres with the given DSN and ensures the schema.
func Open(dsn string) (*PostgresLedgerStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &PostgresLedgerStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (p *PostgresLedgerStore) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

func (p *PostgresLedgerStore) CreateAccount(ctx context.Context, name string, openedAt int64) error {
	const query = `INSERT INTO accounts (name, opened_at, balance) VALUES ($1, $2, $3)
	ON CONFLICT (name) DO NOTHING`

	_, err := p.db.ExecContext(ctx, query, name, openedAt, decimal.Zero.String())
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (p *PostgresLedgerStore) IsAccount(ctx context.Context, name string) (bool, error) {
	const query = `SELECT 1 FROM accounts WHERE name = $1 LIMIT 1`

	var one int
	err := p.db.QueryRowContext(ctx, query, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query account: %w", err)
	}
	return true, nil
}

func (p *PostgresLedgerStore) GetAccount(ctx context.Context, name string) (models.Account, error) {
	const query = `SELECT name, opened_at, balance FROM accounts WHERE name = $1`

	var account models.Account
	var balance string
	err := p.db.QueryRowContext(ctx, query, name).Scan(&account.Name, &account.OpenedAt, &balance)
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

func (p *PostgresLedgerStore) SetBalance(ctx context.Context, name string, balance decimal.Decimal) error {
	if balance.IsNegative() {
		return models.ErrInvariantViolation
	}

	const query = `UPDATE accounts SET balance = $1 WHERE name = $2`

	result, err := p.db.ExecContext(ctx, query, balance.String(), name)
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

func (p *PostgresLedgerStore) AllAccounts(ctx context.Context) ([]models.Account, error) {
	const query = `SELECT name, opened_at, balance FROM accounts ORDER BY seq`

	rows, err := p.db.QueryContext(ctx, query)
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

func (p *PostgresLedgerStore) AppendLog(ctx context.Context, entry models.LogEntry) error {
	const query = `INSERT INTO log (id, time, debit, credit, amount) VALUES ($1, $2, $3, $4, $5)`

	_, err := p.db.ExecContext(ctx, query,
		entry.ID, entry.Time, entry.Debit, entry.Credit, entry.Amount.String())
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

func (p *PostgresLedgerStore) GetLogEntries(ctx context.Context) ([]models.LogEntry, error) {
	const query = `SELECT id, time, debit, credit, amount FROM log ORDER BY seq`

	rows, err := p.db.QueryContext(ctx, query)
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

// Compile-time check: ensure PostgresLedgerStore implements LedgerStore.
var _ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)
