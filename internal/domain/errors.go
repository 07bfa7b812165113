// Package domain defines shared domain types, constants, and errors.
package domain

import "errors"

var (
	// ErrInvalidCode is returned when a gift code does not exist.
	ErrInvalidCode = errors.New("invalid gift code")
	// ErrAlreadyRedeemed is returned when a user redeems the same code twice.
	ErrAlreadyRedeemed = errors.New("gift code already redeemed")
	// ErrUnknownUser is returned for operations on a user the store has never seen.
	ErrUnknownUser = errors.New("unknown user")
	// ErrInsufficientCredits is returned when a signal is requested at zero balance.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrOutsideOperatingWindow is returned when a signal is requested while
	// the game's wall-clock window is closed.
	ErrOutsideOperatingWindow = errors.New("outside operating window")
	// ErrNotFound is the generic store miss.
	ErrNotFound = errors.New("not found")
)
