package repository

import (
	"context"
	"errors"

	"github.com/dakshgarg/flightdesk/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReferenceRepository serves the read-mostly reference data consumed by the
// admin add-flight path.
type ReferenceRepository interface {
	AirportExists(ctx context.Context, id int64) (bool, error)
	GetAircraftCapacity(ctx context.Context, id int64) (int, error)
}

type PGReferenceRepository struct {
	db *pgxpool.Pool
}

func NewReferenceRepository(db *pgxpool.Pool) ReferenceRepository {
	return &PGReferenceRepository{db: db}
}

func (r *PGReferenceRepository) AirportExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM airports WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}

func (r *PGReferenceRepository) GetAircraftCapacity(ctx context.Context, id int64) (int, error) {
	var capacity int
	err := r.db.QueryRow(ctx, `SELECT capacity FROM aircraft WHERE id=$1`, id).Scan(&capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrAircraftNotFound
		}
		return 0, err
	}
	return capacity, nil
}

var _ ReferenceRepository = (*PGReferenceRepository)(nil)
