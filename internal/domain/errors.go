package domain

import "errors"

var (
	ErrFlightNotFound   = errors.New("flight not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrAirportNotFound  = errors.New("airport not found")
	ErrAircraftNotFound = errors.New("aircraft not found")

	ErrValidation        = errors.New("validation failed")
	ErrInsufficientSeats = errors.New("not enough seats available")

	// ErrInventoryBounds means an availability adjustment would have left
	// seats_available outside [0, seats_total]. It signals a concurrency-control
	// bug, aborts the enclosing transaction and is never clamped away.
	ErrInventoryBounds = errors.New("inventory bounds violation")

	// ErrRefCollision is returned when a generated booking reference hits the
	// ledger's uniqueness constraint. Retryable.
	ErrRefCollision = errors.New("booking reference collision")
)
