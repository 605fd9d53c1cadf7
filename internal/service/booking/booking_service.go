package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dakshgarg/flightdesk/internal/domain"
	"github.com/dakshgarg/flightdesk/internal/kafka"
	"github.com/dakshgarg/flightdesk/internal/refgen"
	"github.com/dakshgarg/flightdesk/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BookingUseCase is the transaction engine for reservations and cancellations.
type BookingUseCase interface {
	Reserve(ctx context.Context, input ReserveInput) (*ReserveResult, error)
	Cancel(ctx context.Context, bookingRef string) (*CancelResult, error)
	CreateOrGetCustomer(ctx context.Context, input CustomerInput) (int64, error)
	BookingsByEmail(ctx context.Context, email string) ([]domain.BookingSummary, error)
}

// TxBeginner opens the transaction that spans the inventory and ledger writes
// of a single reserve or cancel. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type Cache interface {
	InvalidateFlights(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	db                 TxBeginner
	inventory          repository.InventoryRepository
	ledger             repository.LedgerRepository
	cache              Cache
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	refs               *refgen.Generator
	maxRefAttempts     int
}

type ReserveInput struct {
	CustomerID     int64
	FlightID       int64
	PassengerNames []string
	PaymentMethod  string
}

type ReserveResult struct {
	BookingRef       string
	TotalAmountCents int64
	Seats            int
}

type CancelResult struct {
	Released      bool
	SeatsReleased int
	Message       string
}

type CustomerInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithRefGenerator(g *refgen.Generator) BookingServiceOption {
	return func(s *BookingService) {
		s.refs = g
	}
}

func WithMaxRefAttempts(n int) BookingServiceOption {
	return func(s *BookingService) {
		s.maxRefAttempts = n
	}
}

func NewBookingService(
	db TxBeginner,
	inventory repository.InventoryRepository,
	ledger repository.LedgerRepository,
	cache Cache,
	producer Producer,
	bookingTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		db:             db,
		inventory:      inventory,
		ledger:         ledger,
		cache:          cache,
		producer:       producer,
		bookingTopic:   bookingTopic,
		refs:           refgen.New(),
		maxRefAttempts: 3,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Reserve books seats for every passenger as one atomic unit: availability
// check, booking, tickets, payment and the seat decrement either all commit or
// none do. A booking reference collision retries the whole transaction with a
// fresh reference.
func (s *BookingService) Reserve(ctx context.Context, input ReserveInput) (*ReserveResult, error) {
	if len(input.PassengerNames) == 0 {
		return nil, fmt.Errorf("passenger list is empty: %w", domain.ErrValidation)
	}
	names := make([]string, 0, len(input.PassengerNames))
	for _, name := range input.PassengerNames {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("blank passenger name: %w", domain.ErrValidation)
		}
		names = append(names, name)
	}
	if strings.TrimSpace(input.PaymentMethod) == "" {
		return nil, fmt.Errorf("payment method is required: %w", domain.ErrValidation)
	}

	var result *ReserveResult
	for attempt := 0; attempt < s.maxRefAttempts; attempt++ {
		ref := s.refs.BookingRef()
		res, err := s.reserveOnce(ctx, input, names, ref)
		if err != nil {
			if errors.Is(err, domain.ErrRefCollision) {
				log.Printf("booking ref %s collided, retrying (attempt %d)", ref, attempt+1)
				continue
			}
			if errors.Is(err, domain.ErrInventoryBounds) {
				log.Printf("inventory bounds violation on reserve, flight %d: %v", input.FlightID, err)
			}
			return nil, err
		}
		result = res
		break
	}
	if result == nil {
		return nil, fmt.Errorf("gave up after %d attempts: %w", s.maxRefAttempts, domain.ErrRefCollision)
	}

	s.publish(ctx, "booking_confirmed", result.BookingRef, input.CustomerID, input.FlightID, result.Seats, result.TotalAmountCents)
	s.invalidateFlights(ctx)
	return result, nil
}

func (s *BookingService) reserveOnce(ctx context.Context, input ReserveInput, names []string, ref string) (*ReserveResult, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	fareCents, available, err := s.inventory.GetAvailabilityTx(ctx, tx, input.FlightID)
	if err != nil {
		return nil, err
	}
	if available < len(names) {
		return nil, fmt.Errorf("flight %d has %d seats for %d passengers: %w",
			input.FlightID, available, len(names), domain.ErrInsufficientSeats)
	}

	totalCents := fareCents * int64(len(names))
	booking := &domain.Booking{
		BookingRef:       ref,
		CustomerID:       input.CustomerID,
		FlightID:         input.FlightID,
		Status:           domain.BookingStatusConfirmed,
		TotalAmountCents: totalCents,
	}
	if err := s.ledger.InsertBookingTx(ctx, tx, booking); err != nil {
		return nil, err
	}

	tickets := make([]domain.Ticket, 0, len(names))
	for _, name := range names {
		tickets = append(tickets, domain.Ticket{
			BookingID:     booking.ID,
			PassengerName: name,
			SeatLabel:     s.refs.SeatLabel(),
		})
	}
	if err := s.ledger.InsertTicketsTx(ctx, tx, tickets); err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		BookingID:     booking.ID,
		AmountCents:   totalCents,
		Method:        input.PaymentMethod,
		Status:        domain.PaymentStatusPaid,
		TransactionID: uuid.NewString(),
	}
	if err := s.ledger.InsertPaymentTx(ctx, tx, payment); err != nil {
		return nil, err
	}

	if err := s.inventory.AdjustAvailabilityTx(ctx, tx, input.FlightID, -len(names)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &ReserveResult{BookingRef: ref, TotalAmountCents: totalCents, Seats: len(names)}, nil
}

// Cancel reverses a reservation: status flip, refund row and seat release in
// one transaction. Cancelling an already-cancelled booking is a no-op report,
// not an error. Seats go back even when the flight is no longer SCHEDULED.
func (s *BookingService) Cancel(ctx context.Context, bookingRef string) (*CancelResult, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	booking, err := s.ledger.GetByRefTx(ctx, tx, bookingRef)
	if err != nil {
		return nil, err
	}
	if booking.Status == domain.BookingStatusCancelled {
		return &CancelResult{Released: false, Message: "Already cancelled."}, nil
	}

	seats, err := s.ledger.TicketCountTx(ctx, tx, booking.ID)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.MarkCancelledTx(ctx, tx, booking.ID); err != nil {
		return nil, err
	}

	refund := &domain.Payment{
		BookingID:     booking.ID,
		AmountCents:   booking.TotalAmountCents,
		Method:        "REFUND",
		Status:        domain.PaymentStatusRefunded,
		TransactionID: uuid.NewString(),
	}
	if err := s.ledger.InsertPaymentTx(ctx, tx, refund); err != nil {
		return nil, err
	}

	if err := s.inventory.AdjustAvailabilityTx(ctx, tx, booking.FlightID, seats); err != nil {
		if errors.Is(err, domain.ErrInventoryBounds) {
			log.Printf("inventory bounds violation on cancel, flight %d: %v", booking.FlightID, err)
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.publish(ctx, "booking_cancelled", booking.BookingRef, booking.CustomerID, booking.FlightID, seats, booking.TotalAmountCents)
	s.invalidateFlights(ctx)
	return &CancelResult{
		Released:      true,
		SeatsReleased: seats,
		Message:       fmt.Sprintf("Cancelled %s. Seats released: %d.", bookingRef, seats),
	}, nil
}

// CreateOrGetCustomer is idempotent by email.
func (s *BookingService) CreateOrGetCustomer(ctx context.Context, input CustomerInput) (int64, error) {
	if strings.TrimSpace(input.Email) == "" {
		return 0, fmt.Errorf("email is required: %w", domain.ErrValidation)
	}
	customer := &domain.Customer{
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Email:     strings.TrimSpace(input.Email),
		Phone:     strings.TrimSpace(input.Phone),
	}
	return s.ledger.CreateOrGetCustomer(ctx, customer)
}

// BookingsByEmail returns a customer's booking history, most recent first.
func (s *BookingService) BookingsByEmail(ctx context.Context, email string) ([]domain.BookingSummary, error) {
	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("email is required: %w", domain.ErrValidation)
	}
	return s.ledger.FindByCustomerEmail(ctx, email)
}

// publish emits a booking lifecycle event after commit. Failures are logged
// and never unwind the committed reservation.
func (s *BookingService) publish(ctx context.Context, eventType, ref string, customerID, flightID int64, seats int, amountCents int64) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	email, err := s.ledger.GetCustomerEmail(ctx, customerID)
	if err != nil {
		log.Printf("lookup customer %d email for %s event: %v", customerID, eventType, err)
	}
	event := kafka.BookingEvent{
		Type:          eventType,
		BookingRef:    ref,
		FlightID:      flightID,
		CustomerEmail: email,
		Seats:         seats,
		AmountCents:   amountCents,
		OccurredAt:    time.Now(),
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, ref, event); err != nil {
		log.Printf("publish %s for booking %s: %v", eventType, ref, err)
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, ref, event); err != nil {
			log.Printf("publish %s notification for booking %s: %v", eventType, ref, err)
		}
	}
}

func (s *BookingService) invalidateFlights(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		log.Printf("invalidate flights cache: %v", err)
	}
}

var _ BookingUseCase = (*BookingService)(nil)
