package domain

import "time"

type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "SCHEDULED"
	FlightStatusCancelled FlightStatus = "CANCELLED"
	FlightStatusDeparted  FlightStatus = "DEPARTED"
)

type Flight struct {
	ID              int64
	AirlineID       int64
	AircraftID      int64
	FlightNo        string
	SourceAirportID int64
	DestAirportID   int64
	DepartureTime   time.Time
	ArrivalTime     time.Time
	BaseFareCents   int64
	SeatsTotal      int
	SeatsAvailable  int
	Status          FlightStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
