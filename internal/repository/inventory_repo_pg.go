package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dakshgarg/flightdesk/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InventoryRepository is the single source of truth for flight seat
// availability. The ...Tx methods operate inside a caller-owned transaction so
// the booking engine can span inventory and ledger writes atomically.
type InventoryRepository interface {
	GetAvailabilityTx(ctx context.Context, tx pgx.Tx, flightID int64) (fareCents int64, seatsAvailable int, err error)
	AdjustAvailabilityTx(ctx context.Context, tx pgx.Tx, flightID int64, delta int) error
	CreateFlight(ctx context.Context, flight *domain.Flight) error
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	List(ctx context.Context) ([]domain.Flight, error)
	Search(ctx context.Context, srcAirportID, dstAirportID int64, day time.Time) ([]domain.Flight, error)
}

type PGInventoryRepository struct {
	db *pgxpool.Pool
}

func NewInventoryRepository(db *pgxpool.Pool) InventoryRepository {
	return &PGInventoryRepository{db: db}
}

const flightColumns = `id, airline_id, aircraft_id, flight_no, source_airport_id, dest_airport_id, departure_time, arrival_time, base_fare_cents, seats_total, seats_available, status, created_at, updated_at`

// GetAvailabilityTx reads fare and remaining seats under a row lock. The lock
// is held until the transaction ends, which serializes concurrent reserve and
// cancel operations on the same flight.
func (r *PGInventoryRepository) GetAvailabilityTx(ctx context.Context, tx pgx.Tx, flightID int64) (int64, int, error) {
	var fareCents int64
	var available int
	err := tx.QueryRow(ctx, `SELECT base_fare_cents, seats_available FROM flights WHERE id=$1 FOR UPDATE`, flightID).
		Scan(&fareCents, &available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, domain.ErrFlightNotFound
		}
		return 0, 0, err
	}
	return fareCents, available, nil
}

// AdjustAvailabilityTx moves seats_available by delta (negative on reserve,
// positive on cancel). The predicate refuses any result outside
// [0, seats_total]; a zero-row update on a locked, existing flight therefore
// means the bounds invariant would break.
func (r *PGInventoryRepository) AdjustAvailabilityTx(ctx context.Context, tx pgx.Tx, flightID int64, delta int) error {
	cmd, err := tx.Exec(ctx, `UPDATE flights
		SET seats_available = seats_available + $2, updated_at = now()
		WHERE id = $1 AND seats_available + $2 >= 0 AND seats_available + $2 <= seats_total`, flightID, delta)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("flight %d delta %d: %w", flightID, delta, domain.ErrInventoryBounds)
	}
	return nil
}

func (r *PGInventoryRepository) CreateFlight(ctx context.Context, flight *domain.Flight) error {
	flight.Status = domain.FlightStatusScheduled
	return r.db.QueryRow(ctx, `INSERT INTO flights
		(airline_id, aircraft_id, flight_no, source_airport_id, dest_airport_id, departure_time, arrival_time, base_fare_cents, seats_total, seats_available, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`,
		flight.AirlineID, flight.AircraftID, flight.FlightNo, flight.SourceAirportID, flight.DestAirportID,
		flight.DepartureTime, flight.ArrivalTime, flight.BaseFareCents, flight.SeatsTotal, flight.SeatsAvailable, flight.Status).
		Scan(&flight.ID, &flight.CreatedAt, &flight.UpdatedAt)
}

func (r *PGInventoryRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	row := r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id)
	f, err := scanFlight(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFlightNotFound
		}
		return nil, err
	}
	return f, nil
}

func (r *PGInventoryRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY departure_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFlights(rows)
}

// Search returns SCHEDULED flights for a route on a given day, earliest first.
func (r *PGInventoryRepository) Search(ctx context.Context, srcAirportID, dstAirportID int64, day time.Time) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights
		WHERE source_airport_id = $1 AND dest_airport_id = $2
		  AND departure_time >= $3 AND departure_time < $3 + interval '1 day'
		  AND status = $4
		ORDER BY departure_time`,
		srcAirportID, dstAirportID, day.Truncate(24*time.Hour), domain.FlightStatusScheduled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFlights(rows)
}

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.AirlineID, &f.AircraftID, &f.FlightNo, &f.SourceAirportID, &f.DestAirportID,
		&f.DepartureTime, &f.ArrivalTime, &f.BaseFareCents, &f.SeatsTotal, &f.SeatsAvailable, &f.Status,
		&f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func collectFlights(rows pgx.Rows) ([]domain.Flight, error) {
	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

var _ InventoryRepository = (*PGInventoryRepository)(nil)
