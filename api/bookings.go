package api

import (
	"net/http"
	"time"

	"github.com/dakshgarg/flightdesk/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type customerPayload struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type reserveRequest struct {
	FlightID       int64           `json:"flight_id"`
	Customer       customerPayload `json:"customer"`
	PassengerNames []string        `json:"passenger_names"`
	PaymentMethod  string          `json:"payment_method"`
}

type reserveResponse struct {
	BookingRef       string `json:"booking_ref"`
	TotalAmountCents int64  `json:"total_amount_cents"`
	Seats            int    `json:"seats"`
}

type cancelResponse struct {
	Released      bool   `json:"released"`
	SeatsReleased int    `json:"seats_released"`
	Message       string `json:"message"`
}

type bookingSummaryResponse struct {
	BookingRef       string `json:"booking_ref"`
	Status           string `json:"status"`
	Airline          string `json:"airline"`
	FlightNo         string `json:"flight_no"`
	FromCode         string `json:"from_code"`
	ToCode           string `json:"to_code"`
	DepartureTime    string `json:"departure_time"`
	ArrivalTime      string `json:"arrival_time"`
	TotalAmountCents int64  `json:"total_amount_cents"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.reserve)
	router.DELETE("/:ref", h.cancel)
	router.GET("/", h.listByEmail)
}

func (h *BookingHandler) reserve(c *gin.Context) {
	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customerID, err := h.service.CreateOrGetCustomer(c.Request.Context(), booking.CustomerInput{
		FirstName: req.Customer.FirstName,
		LastName:  req.Customer.LastName,
		Email:     req.Customer.Email,
		Phone:     req.Customer.Phone,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := h.service.Reserve(c.Request.Context(), booking.ReserveInput{
		CustomerID:     customerID,
		FlightID:       req.FlightID,
		PassengerNames: req.PassengerNames,
		PaymentMethod:  req.PaymentMethod,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, reserveResponse{
		BookingRef:       result.BookingRef,
		TotalAmountCents: result.TotalAmountCents,
		Seats:            result.Seats,
	})
}

func (h *BookingHandler) cancel(c *gin.Context) {
	result, err := h.service.Cancel(c.Request.Context(), c.Param("ref"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, cancelResponse{
		Released:      result.Released,
		SeatsReleased: result.SeatsReleased,
		Message:       result.Message,
	})
}

func (h *BookingHandler) listByEmail(c *gin.Context) {
	email := c.Query("email")
	summaries, err := h.service.BookingsByEmail(c.Request.Context(), email)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]bookingSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, bookingSummaryResponse{
			BookingRef:       s.BookingRef,
			Status:           string(s.Status),
			Airline:          s.Airline,
			FlightNo:         s.FlightNo,
			FromCode:         s.FromCode,
			ToCode:           s.ToCode,
			DepartureTime:    s.DepartureTime.Format(time.RFC3339),
			ArrivalTime:      s.ArrivalTime.Format(time.RFC3339),
			TotalAmountCents: s.TotalAmountCents,
		})
	}
	c.JSON(http.StatusOK, resp)
}
