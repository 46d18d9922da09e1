package entities

import "errors"

var (
	// ErrNotFound is returned when a lookup by identifier has no result
	ErrNotFound = errors.New("not found")

	// ErrIDMismatch is returned when an identifier refers to a different owner or kind
	ErrIDMismatch = errors.New("identifier mismatch")

	// ErrInsufficientFunds is returned when a member cannot cover a debit
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidState is returned for actions attempted in the wrong phase
	ErrInvalidState = errors.New("invalid state")

	// ErrResourceBusy is returned when an exclusive resource is already claimed
	ErrResourceBusy = errors.New("resource busy")

	// ErrSlotConflict is returned when a time slot overlaps a live slot
	ErrSlotConflict = errors.New("time slot conflict")

	// ErrShielded is returned when a harmful effect targets a protected member
	ErrShielded = errors.New("target is shielded")

	// ErrInvalidAmount is returned for zero or negative amounts where a positive one is required
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrOutOfStock is returned when a store item has no remaining quantity
	ErrOutOfStock = errors.New("out of stock")

	// ErrInvalidGroup is returned when a dynamic voice group definition breaks its constraints
	ErrInvalidGroup = errors.New("invalid dynamic voice group")
)
