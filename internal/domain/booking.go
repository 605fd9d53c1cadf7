package domain

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

type Booking struct {
	ID               int64
	BookingRef       string
	CustomerID       int64
	FlightID         int64
	Status           BookingStatus
	TotalAmountCents int64
	CreatedAt        time.Time
}

// Ticket belongs to exactly one booking and is immutable after creation.
type Ticket struct {
	ID            int64
	BookingID     int64
	PassengerName string
	SeatLabel     string
}

type PaymentStatus string

const (
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// Payment rows are append-only: a refund is recorded as a second row next to
// the original PAID row, never as an update.
type Payment struct {
	ID            int64
	BookingID     int64
	AmountCents   int64
	Method        string
	Status        PaymentStatus
	TransactionID string
	CreatedAt     time.Time
}

// BookingSummary is the read-model row returned for a customer's booking
// history, most recent booking first.
type BookingSummary struct {
	BookingRef       string
	Status           BookingStatus
	Airline          string
	FlightNo         string
	FromCode         string
	ToCode           string
	DepartureTime    time.Time
	ArrivalTime      time.Time
	TotalAmountCents int64
	CreatedAt        time.Time
}
