package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dakshgarg/flightdesk/internal/domain"
	"github.com/dakshgarg/flightdesk/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockBookingUseCase is a mock implementation of booking.BookingUseCase
type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) Reserve(ctx context.Context, input booking.ReserveInput) (*booking.ReserveResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.ReserveResult), args.Error(1)
}

func (m *MockBookingUseCase) Cancel(ctx context.Context, bookingRef string) (*booking.CancelResult, error) {
	args := m.Called(ctx, bookingRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.CancelResult), args.Error(1)
}

func (m *MockBookingUseCase) CreateOrGetCustomer(ctx context.Context, input booking.CustomerInput) (int64, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookingUseCase) BookingsByEmail(ctx context.Context, email string) ([]domain.BookingSummary, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BookingSummary), args.Error(1)
}

func TestBookingHandler_reserve(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	req := reserveRequest{
		FlightID: 4,
		Customer: customerPayload{
			FirstName: "Daksh",
			LastName:  "Garg",
			Email:     "daksh@example.com",
			Phone:     "+91-9000000000",
		},
		PassengerNames: []string{"Daksh Garg", "Asha Rao"},
		PaymentMethod:  "UPI",
	}
	body, _ := json.Marshal(req)
	c.Request = httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("CreateOrGetCustomer", mock.Anything, booking.CustomerInput{
		FirstName: "Daksh",
		LastName:  "Garg",
		Email:     "daksh@example.com",
		Phone:     "+91-9000000000",
	}).Return(int64(7), nil)
	mockService.On("Reserve", mock.Anything, booking.ReserveInput{
		CustomerID:     7,
		FlightID:       4,
		PassengerNames: []string{"Daksh Garg", "Asha Rao"},
		PaymentMethod:  "UPI",
	}).Return(&booking.ReserveResult{
		BookingRef:       "FBXA1B2C3",
		TotalAmountCents: 10000,
		Seats:            2,
	}, nil)

	handler.reserve(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp reserveResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "FBXA1B2C3", resp.BookingRef)
	assert.Equal(t, int64(10000), resp.TotalAmountCents)
	assert.Equal(t, 2, resp.Seats)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_reserve_InsufficientSeats(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(reserveRequest{
		FlightID:       4,
		Customer:       customerPayload{Email: "daksh@example.com"},
		PassengerNames: []string{"A", "B", "C"},
		PaymentMethod:  "CARD",
	})
	c.Request = httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("CreateOrGetCustomer", mock.Anything, mock.Anything).Return(int64(7), nil)
	mockService.On("Reserve", mock.Anything, mock.Anything).Return(nil, domain.ErrInsufficientSeats)

	handler.reserve(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBookingHandler_reserve_ValidationError(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(reserveRequest{FlightID: 4})
	c.Request = httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("CreateOrGetCustomer", mock.Anything, mock.Anything).Return(int64(0), domain.ErrValidation)

	handler.reserve(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Reserve")
}

func TestBookingHandler_cancel(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("DELETE", "/bookings/FBXA1B2C3", nil)
	c.Params = gin.Params{{Key: "ref", Value: "FBXA1B2C3"}}

	mockService.On("Cancel", mock.Anything, "FBXA1B2C3").Return(&booking.CancelResult{
		Released:      true,
		SeatsReleased: 2,
		Message:       "Cancelled FBXA1B2C3. Seats released: 2.",
	}, nil)

	handler.cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp cancelResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Released)
	assert.Equal(t, 2, resp.SeatsReleased)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_cancel_NotFound(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("DELETE", "/bookings/FBXZZZZZZ", nil)
	c.Params = gin.Params{{Key: "ref", Value: "FBXZZZZZZ"}}

	mockService.On("Cancel", mock.Anything, "FBXZZZZZZ").Return(nil, domain.ErrBookingNotFound)

	handler.cancel(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingHandler_listByEmail(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/bookings?email=daksh@example.com", nil)

	departure := time.Date(2026, 9, 14, 9, 30, 0, 0, time.UTC)
	mockService.On("BookingsByEmail", mock.Anything, "daksh@example.com").Return([]domain.BookingSummary{
		{
			BookingRef:       "FBXA1B2C3",
			Status:           domain.BookingStatusConfirmed,
			Airline:          "FlightDesk Air",
			FlightNo:         "FD910",
			FromCode:         "DEL",
			ToCode:           "BLR",
			DepartureTime:    departure,
			ArrivalTime:      departure.Add(2 * time.Hour),
			TotalAmountCents: 10000,
		},
	}, nil)

	handler.listByEmail(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []bookingSummaryResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
	assert.Equal(t, "FBXA1B2C3", resp[0].BookingRef)
	assert.Equal(t, "CONFIRMED", resp[0].Status)
	assert.Equal(t, "2026-09-14T09:30:00Z", resp[0].DepartureTime)
	mockService.AssertExpectations(t)
}
