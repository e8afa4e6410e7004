package models

import "github.com/shopspring/decimal"

// Account represents a named vault account
type Account struct {
	Name     string          `json:"name"`      // unique account name, primary key
	OpenedAt int64           `json:"opened_at"` // unix seconds, set once at creation
	Balance  decimal.Decimal `json:"balance"`   // non-negative, stored as decimal text
}

// RankedAccount is one row of the balance ranking
type RankedAccount struct {
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}
