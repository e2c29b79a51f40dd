package handlers

import (
	"net/http"
	"strconv"
	"time"

	intconfig "busline/internal/config"
	"busline/internal/domain"
	"busline/internal/http/middleware"
	"busline/internal/repositories"
	"busline/internal/services"
	"busline/internal/utils"

	"github.com/gin-gonic/gin"
)

func tripService(c *gin.Context) services.TripService {
	return services.TripService{
		Env:       currentEnv(),
		DB:        intconfig.DB,
		RequestID: middleware.GetRequestID(c),
	}
}

func fareService(c *gin.Context) services.FareService {
	return services.FareService{
		Pricing:   currentEnv().Pricing,
		DB:        intconfig.DB,
		RequestID: middleware.GetRequestID(c),
	}
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, name+" tidak valid", err)
		return 0, false
	}
	return id, true
}

// GET /api/trips
func ListTrips(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	trips, err := repositories.TripRepo{DB: intconfig.DB}.ListUpcoming(limit)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": trips})
}

type createTripRequest struct {
	BusID      int64  `json:"busId"`
	RouteID    int64  `json:"routeId"`
	Departure  string `json:"departure"` // "2006-01-02 15:04:05"
	Price      int64  `json:"price"`
	LinkReturn bool   `json:"linkReturn"`
}

// POST /api/trips
func CreateTrip(c *gin.Context) {
	var req createTripRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	departure, err := utils.ParseDateTime(req.Departure)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "format jadwal tidak valid", err)
		return
	}
	trips, err := tripService(c).CreateTrip(req.BusID, req.RouteID, departure, req.Price, req.LinkReturn)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"trips": trips})
}

type generateTripsRequest struct {
	TemplateID  int64 `json:"templateId"`
	HorizonDays int   `json:"horizonDays"`
}

// POST /api/trips/generate
func GenerateTrips(c *gin.Context) {
	var req generateTripsRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	svc := tripService(c)
	if req.TemplateID > 0 {
		created, err := svc.GenerateForTemplate(req.TemplateID, req.HorizonDays)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"created": len(created), "trips": created})
		return
	}
	created, err := svc.GenerateAll(req.HorizonDays)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"created": len(created), "trips": created})
}

type delayTripRequest struct {
	Minutes int    `json:"minutes"`
	Reason  string `json:"reason"`
}

// PUT /api/trips/:id/delay
func DelayTrip(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req delayTripRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	trip, err := tripService(c).Delay(id, req.Minutes, req.Reason)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

type tripStatusRequest struct {
	Status string `json:"status"`
}

// PUT /api/trips/:id/status
func UpdateTripStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req tripStatusRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	status, ok := domain.ParseTripStatus(req.Status)
	if !ok {
		RespondError(c, http.StatusBadRequest, "status tidak dikenal", nil)
		return
	}
	trip, err := tripService(c).UpdateStatus(id, status)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

// GET /api/trips/:id/seats
func TripSeats(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	svc := services.BookingService{
		Env:       currentEnv(),
		DB:        intconfig.DB,
		RequestID: middleware.GetRequestID(c),
	}
	seats, err := svc.Availability(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip_id": id, "seats": seats})
}

type quoteRequest struct {
	SeatCount       int   `json:"seatCount"`
	PassengerID     int64 `json:"passengerId"`
	PointsRequested int64 `json:"pointsRequested"`
}

// POST /api/trips/:id/quote
func QuoteTrip(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req quoteRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if req.SeatCount <= 0 {
		req.SeatCount = 1
	}
	trip, bd, err := fareService(c).QuoteByID(id, req.SeatCount, req.PassengerID, req.PointsRequested, time.Now())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"trip":      trip,
		"breakdown": bd,
		"total":     utils.FormatRupiah(bd.FinalPrice),
	})
}
