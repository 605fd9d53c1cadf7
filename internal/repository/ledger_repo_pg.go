package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dakshgarg/flightdesk/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LedgerRepository is the durable record of bookings, tickets and payments.
// Foreign keys make a ticket or payment insert fail when its booking is absent
// from the same transaction.
type LedgerRepository interface {
	InsertBookingTx(ctx context.Context, tx pgx.Tx, booking *domain.Booking) error
	InsertTicketsTx(ctx context.Context, tx pgx.Tx, tickets []domain.Ticket) error
	InsertPaymentTx(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error
	GetByRefTx(ctx context.Context, tx pgx.Tx, ref string) (*domain.Booking, error)
	TicketCountTx(ctx context.Context, tx pgx.Tx, bookingID int64) (int, error)
	MarkCancelledTx(ctx context.Context, tx pgx.Tx, bookingID int64) error
	FindByCustomerEmail(ctx context.Context, email string) ([]domain.BookingSummary, error)
	CreateOrGetCustomer(ctx context.Context, customer *domain.Customer) (int64, error)
	GetCustomerEmail(ctx context.Context, customerID int64) (string, error)
}

type PGLedgerRepository struct {
	db *pgxpool.Pool
}

func NewLedgerRepository(db *pgxpool.Pool) LedgerRepository {
	return &PGLedgerRepository{db: db}
}

const uniqueViolation = "23505"

// InsertBookingTx reports domain.ErrRefCollision when the generated reference
// already exists, so the engine can retry with a fresh one.
func (r *PGLedgerRepository) InsertBookingTx(ctx context.Context, tx pgx.Tx, booking *domain.Booking) error {
	err := tx.QueryRow(ctx, `INSERT INTO bookings (booking_ref, customer_id, flight_id, status, total_amount_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		booking.BookingRef, booking.CustomerID, booking.FlightID, booking.Status, booking.TotalAmountCents).
		Scan(&booking.ID, &booking.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && strings.Contains(pgErr.ConstraintName, "booking_ref") {
			return fmt.Errorf("ref %s: %w", booking.BookingRef, domain.ErrRefCollision)
		}
		return err
	}
	return nil
}

func (r *PGLedgerRepository) InsertTicketsTx(ctx context.Context, tx pgx.Tx, tickets []domain.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO tickets (booking_id, passenger_name, seat_no) VALUES `)
	args := make([]any, 0, len(tickets)*3)
	for i, t := range tickets {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, "($%d, $%d, $%d)", i*3+1, i*3+2, i*3+3)
		args = append(args, t.BookingID, t.PassengerName, t.SeatLabel)
	}
	_, err := tx.Exec(ctx, sb.String(), args...)
	return err
}

func (r *PGLedgerRepository) InsertPaymentTx(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error {
	return tx.QueryRow(ctx, `INSERT INTO payments (booking_id, amount_cents, method, status, transaction_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		payment.BookingID, payment.AmountCents, payment.Method, payment.Status, payment.TransactionID).
		Scan(&payment.ID, &payment.CreatedAt)
}

// GetByRefTx locks the booking row for the rest of the transaction.
func (r *PGLedgerRepository) GetByRefTx(ctx context.Context, tx pgx.Tx, ref string) (*domain.Booking, error) {
	row := tx.QueryRow(ctx, `SELECT id, booking_ref, customer_id, flight_id, status, total_amount_cents, created_at
		FROM bookings WHERE booking_ref=$1 FOR UPDATE`, ref)
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.BookingRef, &b.CustomerID, &b.FlightID, &b.Status, &b.TotalAmountCents, &b.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGLedgerRepository) TicketCountTx(ctx context.Context, tx pgx.Tx, bookingID int64) (int, error) {
	var count int
	err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE booking_id=$1`, bookingID).Scan(&count)
	return count, err
}

func (r *PGLedgerRepository) MarkCancelledTx(ctx context.Context, tx pgx.Tx, bookingID int64) error {
	cmd, err := tx.Exec(ctx, `UPDATE bookings SET status=$1 WHERE id=$2 AND status=$3`,
		domain.BookingStatusCancelled, bookingID, domain.BookingStatusConfirmed)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (r *PGLedgerRepository) FindByCustomerEmail(ctx context.Context, email string) ([]domain.BookingSummary, error) {
	rows, err := r.db.Query(ctx, `SELECT b.booking_ref, b.status, a.name, f.flight_no,
			src.code, dst.code, f.departure_time, f.arrival_time, b.total_amount_cents, b.created_at
		FROM bookings b
		JOIN customers c ON b.customer_id = c.id
		JOIN flights f ON b.flight_id = f.id
		JOIN airlines a ON f.airline_id = a.id
		JOIN airports src ON f.source_airport_id = src.id
		JOIN airports dst ON f.dest_airport_id = dst.id
		WHERE c.email = $1
		ORDER BY b.created_at DESC`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]domain.BookingSummary, 0)
	for rows.Next() {
		var s domain.BookingSummary
		if err := rows.Scan(&s.BookingRef, &s.Status, &s.Airline, &s.FlightNo, &s.FromCode, &s.ToCode,
			&s.DepartureTime, &s.ArrivalTime, &s.TotalAmountCents, &s.CreatedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// CreateOrGetCustomer is idempotent by email. A concurrent first-insert race
// surfaces as a unique violation, which is resolved by re-reading.
func (r *PGLedgerRepository) CreateOrGetCustomer(ctx context.Context, customer *domain.Customer) (int64, error) {
	err := r.db.QueryRow(ctx, `SELECT id FROM customers WHERE email=$1`, customer.Email).Scan(&customer.ID)
	if err == nil {
		return customer.ID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	err = r.db.QueryRow(ctx, `INSERT INTO customers (first_name, last_name, email, phone)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		customer.FirstName, customer.LastName, customer.Email, customer.Phone).Scan(&customer.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if err := r.db.QueryRow(ctx, `SELECT id FROM customers WHERE email=$1`, customer.Email).Scan(&customer.ID); err != nil {
				return 0, err
			}
			return customer.ID, nil
		}
		return 0, err
	}
	return customer.ID, nil
}

func (r *PGLedgerRepository) GetCustomerEmail(ctx context.Context, customerID int64) (string, error) {
	var email string
	err := r.db.QueryRow(ctx, `SELECT email FROM customers WHERE id=$1`, customerID).Scan(&email)
	return email, err
}

var _ LedgerRepository = (*PGLedgerRepository)(nil)
