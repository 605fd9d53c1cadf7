package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dakshgarg/flightdesk/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

type addFlightRequest struct {
	AirlineID       int64  `json:"airline_id"`
	AircraftID      int64  `json:"aircraft_id"`
	FlightNo        string `json:"flight_no"`
	SourceAirportID int64  `json:"source_airport_id"`
	DestAirportID   int64  `json:"dest_airport_id"`
	DepartureTime   string `json:"departure_time"`
	ArrivalTime     string `json:"arrival_time"`
	BaseFareCents   int64  `json:"base_fare_cents"`
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:id", h.get)
	router.POST("/", h.add)
}

// list serves both the plain listing and the route/date search, depending on
// which query parameters are present.
func (h *FlightHandler) list(c *gin.Context) {
	src := c.Query("src")
	dst := c.Query("dst")
	date := c.Query("date")

	if src == "" && dst == "" && date == "" {
		result, err := h.service.List(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	srcID, err := strconv.ParseInt(src, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid src"})
		return
	}
	dstID, err := strconv.ParseInt(dst, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dst"})
		return
	}
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, want YYYY-MM-DD"})
		return
	}

	result, err := h.service.Search(c.Request.Context(), srcID, dstID, day)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *FlightHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) add(c *gin.Context) {
	var req addFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	departure, err := time.Parse(time.RFC3339, req.DepartureTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid departure_time, want RFC3339"})
		return
	}
	arrival, err := time.Parse(time.RFC3339, req.ArrivalTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid arrival_time, want RFC3339"})
		return
	}

	id, err := h.service.AddFlight(c.Request.Context(), flights.AddFlightInput{
		AirlineID:       req.AirlineID,
		AircraftID:      req.AircraftID,
		FlightNo:        req.FlightNo,
		SourceAirportID: req.SourceAirportID,
		DestAirportID:   req.DestAirportID,
		DepartureTime:   departure,
		ArrivalTime:     arrival,
		BaseFareCents:   req.BaseFareCents,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"flight_id": id})
}
