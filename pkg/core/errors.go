package core

import "errors"

// Validation errors returned by transaction admission. Callers match
// them with errors.Is; a rejected transaction never reaches the pending
// queue.
var (
	// ErrMissingAddress is returned when a transfer has no sender or no
	// recipient address.
	ErrMissingAddress = errors.New("missing sender or recipient address")

	// ErrInvalidAmount is returned when a transfer amount is zero or
	// negative.
	ErrInvalidAmount = errors.New("transaction amount must be positive")

	// ErrInvalidSignature is returned when a transfer carries no
	// verifiable signature from its claimed sender.
	ErrInvalidSignature = errors.New("invalid transaction signature")

	// ErrInsufficientBalance is returned when a sender's confirmed
	// balance does not cover the transfer amount.
	ErrInsufficientBalance = errors.New("insufficient balance")
)
