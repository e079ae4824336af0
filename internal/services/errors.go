package services

import "errors"

// Sentinel errors the handlers map onto HTTP status codes. Everything else
// that comes out of a service is treated as a processing failure (422).
var (
	// ErrNotFound marks a referenced event, bet, or user that does not exist (404).
	ErrNotFound = errors.New("resource not found")

	// ErrBetNotTradable rejects trades once the end date has passed or the
	// bet is resolved (405).
	ErrBetNotTradable = errors.New("no further action can be performed on a bet that has ended")

	// ErrBetStillTradable rejects pull-out while trading is still open (405).
	ErrBetStillTradable = errors.New("bet is still open for trading")

	// ErrAlreadyResolved rejects a second resolution of the same bet.
	ErrAlreadyResolved = errors.New("bet has already been resolved")
)
