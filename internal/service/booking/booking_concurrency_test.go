package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dakshgarg/flightdesk/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lockingBeginner serializes transactions with a mutex the way the row lock on
// the flight serializes them in Postgres. The lock is released exactly once,
// whether the transaction commits or rolls back.
type lockingBeginner struct {
	mu sync.Mutex
}

func (b *lockingBeginner) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	b.mu.Lock()
	return &lockedTx{release: &b.mu}, nil
}

type lockedTx struct {
	pgx.Tx
	release *sync.Mutex
	once    sync.Once
}

func (t *lockedTx) Commit(ctx context.Context) error {
	t.once.Do(t.release.Unlock)
	return nil
}

func (t *lockedTx) Rollback(ctx context.Context) error {
	t.once.Do(t.release.Unlock)
	return nil
}

type memFlight struct {
	fareCents int64
	available int
	total     int
}

type memInventory struct {
	flights map[int64]*memFlight
}

func (m *memInventory) GetAvailabilityTx(ctx context.Context, tx pgx.Tx, flightID int64) (int64, int, error) {
	f, ok := m.flights[flightID]
	if !ok {
		return 0, 0, domain.ErrFlightNotFound
	}
	return f.fareCents, f.available, nil
}

func (m *memInventory) AdjustAvailabilityTx(ctx context.Context, tx pgx.Tx, flightID int64, delta int) error {
	f, ok := m.flights[flightID]
	if !ok {
		return domain.ErrFlightNotFound
	}
	next := f.available + delta
	if next < 0 || next > f.total {
		return fmt.Errorf("flight %d availability %d out of range: %w", flightID, next, domain.ErrInventoryBounds)
	}
	f.available = next
	return nil
}

func (m *memInventory) CreateFlight(ctx context.Context, flight *domain.Flight) error {
	return errors.New("not used")
}

func (m *memInventory) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return nil, errors.New("not used")
}

func (m *memInventory) List(ctx context.Context) ([]domain.Flight, error) {
	return nil, errors.New("not used")
}

func (m *memInventory) Search(ctx context.Context, src, dst int64, day time.Time) ([]domain.Flight, error) {
	return nil, errors.New("not used")
}

type memLedger struct {
	nextID   int64
	bookings map[string]*domain.Booking
	tickets  map[int64][]domain.Ticket
	payments []domain.Payment
}

func newMemLedger() *memLedger {
	return &memLedger{
		nextID:   1,
		bookings: make(map[string]*domain.Booking),
		tickets:  make(map[int64][]domain.Ticket),
	}
}

func (m *memLedger) InsertBookingTx(ctx context.Context, tx pgx.Tx, booking *domain.Booking) error {
	if _, exists := m.bookings[booking.BookingRef]; exists {
		return fmt.Errorf("ref %s: %w", booking.BookingRef, domain.ErrRefCollision)
	}
	booking.ID = m.nextID
	m.nextID++
	copied := *booking
	m.bookings[booking.BookingRef] = &copied
	return nil
}

func (m *memLedger) InsertTicketsTx(ctx context.Context, tx pgx.Tx, tickets []domain.Ticket) error {
	for _, t := range tickets {
		m.tickets[t.BookingID] = append(m.tickets[t.BookingID], t)
	}
	return nil
}

func (m *memLedger) InsertPaymentTx(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error {
	m.payments = append(m.payments, *payment)
	return nil
}

func (m *memLedger) GetByRefTx(ctx context.Context, tx pgx.Tx, ref string) (*domain.Booking, error) {
	b, ok := m.bookings[ref]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *memLedger) TicketCountTx(ctx context.Context, tx pgx.Tx, bookingID int64) (int, error) {
	return len(m.tickets[bookingID]), nil
}

func (m *memLedger) MarkCancelledTx(ctx context.Context, tx pgx.Tx, bookingID int64) error {
	for _, b := range m.bookings {
		if b.ID == bookingID && b.Status == domain.BookingStatusConfirmed {
			b.Status = domain.BookingStatusCancelled
			return nil
		}
	}
	return domain.ErrBookingNotFound
}

func (m *memLedger) FindByCustomerEmail(ctx context.Context, email string) ([]domain.BookingSummary, error) {
	return nil, errors.New("not used")
}

func (m *memLedger) CreateOrGetCustomer(ctx context.Context, customer *domain.Customer) (int64, error) {
	return 0, errors.New("not used")
}

func (m *memLedger) GetCustomerEmail(ctx context.Context, customerID int64) (string, error) {
	return "customer@example.com", nil
}

func newMemService(inv *memInventory, led *memLedger) *BookingService {
	return NewBookingService(&lockingBeginner{}, inv, led, nil, nil, "")
}

func TestBookingService_ConcurrentReservesNeverOverbook(t *testing.T) {
	const seats = 10
	inv := &memInventory{flights: map[int64]*memFlight{
		4: {fareCents: 2500, available: seats, total: seats},
	}}
	led := newMemLedger()
	svc := newMemService(inv, led)

	const workers = 40
	var wg sync.WaitGroup
	var succeeded, rejected int64
	var counts sync.Mutex

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), ReserveInput{
				CustomerID:     1,
				FlightID:       4,
				PassengerNames: []string{"One", "Two"},
				PaymentMethod:  "CARD",
			})
			counts.Lock()
			defer counts.Unlock()
			if err == nil {
				succeeded++
				return
			}
			if errors.Is(err, domain.ErrInsufficientSeats) {
				rejected++
				return
			}
			t.Errorf("unexpected reserve error: %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5), succeeded, "10 seats fit exactly 5 two-passenger bookings")
	assert.Equal(t, int64(workers-5), rejected)
	assert.Equal(t, 0, inv.flights[4].available)
	assert.Len(t, led.bookings, 5)
}

func TestBookingService_ReserveCancelRestoresAvailability(t *testing.T) {
	inv := &memInventory{flights: map[int64]*memFlight{
		4: {fareCents: 5000, available: 6, total: 6},
	}}
	led := newMemLedger()
	svc := newMemService(inv, led)
	ctx := context.Background()

	reserved, err := svc.Reserve(ctx, ReserveInput{
		CustomerID:     1,
		FlightID:       4,
		PassengerNames: []string{"Daksh Garg", "Asha Rao"},
		PaymentMethod:  "UPI",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10000), reserved.TotalAmountCents)
	assert.Equal(t, 4, inv.flights[4].available)

	cancelled, err := svc.Cancel(ctx, reserved.BookingRef)
	require.NoError(t, err)
	assert.True(t, cancelled.Released)
	assert.Equal(t, 2, cancelled.SeatsReleased)
	assert.Equal(t, 6, inv.flights[4].available)

	// one PAID and one REFUNDED row, nothing mutated in place
	require.Len(t, led.payments, 2)
	assert.Equal(t, domain.PaymentStatusPaid, led.payments[0].Status)
	assert.Equal(t, domain.PaymentStatusRefunded, led.payments[1].Status)
	assert.Equal(t, "REFUND", led.payments[1].Method)
	assert.Equal(t, reserved.TotalAmountCents, led.payments[1].AmountCents)
}

func TestBookingService_DoubleCancelReleasesSeatsOnce(t *testing.T) {
	inv := &memInventory{flights: map[int64]*memFlight{
		4: {fareCents: 5000, available: 6, total: 6},
	}}
	led := newMemLedger()
	svc := newMemService(inv, led)
	ctx := context.Background()

	reserved, err := svc.Reserve(ctx, ReserveInput{
		CustomerID:     1,
		FlightID:       4,
		PassengerNames: []string{"Daksh Garg", "Asha Rao", "Ravi Iyer"},
		PaymentMethod:  "CARD",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, inv.flights[4].available)

	first, err := svc.Cancel(ctx, reserved.BookingRef)
	require.NoError(t, err)
	assert.True(t, first.Released)
	assert.Equal(t, 6, inv.flights[4].available)

	second, err := svc.Cancel(ctx, reserved.BookingRef)
	require.NoError(t, err)
	assert.False(t, second.Released)
	assert.Equal(t, "Already cancelled.", second.Message)
	assert.Equal(t, 6, inv.flights[4].available)
	assert.Len(t, led.payments, 2, "no second refund row")
}

func TestBookingService_TotalAmountIsFareTimesPassengers(t *testing.T) {
	inv := &memInventory{flights: map[int64]*memFlight{
		4: {fareCents: 7350, available: 30, total: 30},
	}}
	led := newMemLedger()
	svc := newMemService(inv, led)
	ctx := context.Background()

	for n := 1; n <= 4; n++ {
		names := make([]string, n)
		for i := range names {
			names[i] = fmt.Sprintf("Passenger %d", i+1)
		}
		result, err := svc.Reserve(ctx, ReserveInput{
			CustomerID:     1,
			FlightID:       4,
			PassengerNames: names,
			PaymentMethod:  "CARD",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(7350*n), result.TotalAmountCents)

		booking := led.bookings[result.BookingRef]
		require.NotNil(t, booking)
		assert.Equal(t, result.TotalAmountCents, booking.TotalAmountCents)
		assert.Len(t, led.tickets[booking.ID], n)
	}
}
