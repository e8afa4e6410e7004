package models

import (
	"github.com/shopspring/decimal"
)

// LogEntry represents a single immutable audit record for a balance change.
// Debit names the source of funds (an account or an operator label such as
// "Admin"), Credit names the destination. Amount is signed: positive means
// the credit side gained this much relative to the debit side.
type LogEntry struct {
	ID     string          `json:"id"`     // uuid, generated at write time
	Time   int64           `json:"time"`   // unix seconds
	Debit  string          `json:"debit"`  // source of funds
	Credit string          `json:"credit"` // destination of funds
	Amount decimal.Decimal `json:"amount"` // signed delta
}
