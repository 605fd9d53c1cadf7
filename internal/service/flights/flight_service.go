package flights

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dakshgarg/flightdesk/internal/domain"
	"github.com/dakshgarg/flightdesk/internal/repository"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	Search(ctx context.Context, srcAirportID, dstAirportID int64, day time.Time) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	AddFlight(ctx context.Context, input AddFlightInput) (int64, error)
}

type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	GetSearch(ctx context.Context, src, dst int64, day time.Time) ([]domain.Flight, error)
	SetSearch(ctx context.Context, src, dst int64, day time.Time, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type AddFlightInput struct {
	AirlineID       int64
	AircraftID      int64
	FlightNo        string
	SourceAirportID int64
	DestAirportID   int64
	DepartureTime   time.Time
	ArrivalTime     time.Time
	BaseFareCents   int64
}

type FlightService struct {
	inventory repository.InventoryRepository
	reference repository.ReferenceRepository
	cache     FlightCache
}

func NewFlightService(inventory repository.InventoryRepository, reference repository.ReferenceRepository, cache FlightCache) *FlightService {
	return &FlightService{inventory: inventory, reference: reference, cache: cache}
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.inventory.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetFlights(ctx, flights)
	}
	return flights, nil
}

func (s *FlightService) Search(ctx context.Context, srcAirportID, dstAirportID int64, day time.Time) ([]domain.Flight, error) {
	if srcAirportID == dstAirportID {
		return nil, fmt.Errorf("source and destination must differ: %w", domain.ErrValidation)
	}

	if s.cache != nil {
		if cached, err := s.cache.GetSearch(ctx, srcAirportID, dstAirportID, day); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.inventory.Search(ctx, srcAirportID, dstAirportID, day)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetSearch(ctx, srcAirportID, dstAirportID, day, flights)
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.inventory.GetByID(ctx, id)
}

// AddFlight is the admin path. Seat counts are seeded from the aircraft's
// capacity; the flight starts SCHEDULED with every seat available.
func (s *FlightService) AddFlight(ctx context.Context, input AddFlightInput) (int64, error) {
	if strings.TrimSpace(input.FlightNo) == "" {
		return 0, fmt.Errorf("flight number is required: %w", domain.ErrValidation)
	}
	if input.SourceAirportID == input.DestAirportID {
		return 0, fmt.Errorf("source and destination must differ: %w", domain.ErrValidation)
	}
	if input.BaseFareCents < 0 {
		return 0, fmt.Errorf("base fare must be non-negative: %w", domain.ErrValidation)
	}
	if !input.ArrivalTime.After(input.DepartureTime) {
		return 0, fmt.Errorf("arrival must be after departure: %w", domain.ErrValidation)
	}

	for _, airportID := range []int64{input.SourceAirportID, input.DestAirportID} {
		exists, err := s.reference.AirportExists(ctx, airportID)
		if err != nil {
			return 0, err
		}
		if !exists {
			return 0, fmt.Errorf("airport %d: %w", airportID, domain.ErrAirportNotFound)
		}
	}

	capacity, err := s.reference.GetAircraftCapacity(ctx, input.AircraftID)
	if err != nil {
		return 0, err
	}

	flight := &domain.Flight{
		AirlineID:       input.AirlineID,
		AircraftID:      input.AircraftID,
		FlightNo:        strings.TrimSpace(input.FlightNo),
		SourceAirportID: input.SourceAirportID,
		DestAirportID:   input.DestAirportID,
		DepartureTime:   input.DepartureTime,
		ArrivalTime:     input.ArrivalTime,
		BaseFareCents:   input.BaseFareCents,
		SeatsTotal:      capacity,
		SeatsAvailable:  capacity,
	}
	if err := s.inventory.CreateFlight(ctx, flight); err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateFlights(ctx); err != nil {
			log.Printf("invalidate flights cache after add: %v", err)
		}
	}
	return flight.ID, nil
}

var _ FlightUseCase = (*FlightService)(nil)
