package models

import "errors"

var (
	// ErrAccountNotFound indicates that a referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidAmount indicates that an amount fails the operation's
	// sign/range rule (> 0 for give/take/transfer, >= 0 for set).
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInsufficientBalance indicates that the debit side lacks the funds.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvariantViolation indicates that a write would have produced a
	// negative balance despite upstream validation. Programming-error class.
	ErrInvariantViolation = errors.New("negative balance write rejected")
)
