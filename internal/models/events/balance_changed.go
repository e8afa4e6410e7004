package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// TopicBalanceChanged is the stream every BalanceChanged event goes to.
const TopicBalanceChanged = "balance_changed"

// BalanceChanged is emitted after every successful mutating ledger
// operation. It mirrors the audit log entry that was written.
type BalanceChanged struct {
	EntryID    string          `json:"entry_id"`
	Debit      string          `json:"debit"`
	Credit     string          `json:"credit"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredAt time.Time       `json:"occurred_at"`
}
