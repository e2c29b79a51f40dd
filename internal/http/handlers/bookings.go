package handlers

import (
	"net/http"
	"time"

	intconfig "busline/internal/config"
	"busline/internal/http/middleware"
	"busline/internal/repositories"
	"busline/internal/services"

	"github.com/gin-gonic/gin"
)

func bookingService(c *gin.Context) services.BookingService {
	return services.BookingService{
		Env:       currentEnv(),
		DB:        intconfig.DB,
		RequestID: middleware.GetRequestID(c),
	}
}

type reserveRequest struct {
	PassengerID     int64    `json:"passengerId"`
	PassengerName   string   `json:"passengerName"`
	PassengerPhone  string   `json:"passengerPhone"`
	Seats           []string `json:"seats"`
	PointsRequested int64    `json:"pointsRequested"`
}

// POST /api/trips/:id/bookings
func ReserveSeats(c *gin.Context) {
	tripID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req reserveRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	booking, bd, err := bookingService(c).Reserve(services.ReserveInput{
		TripID:          tripID,
		PassengerID:     req.PassengerID,
		PassengerName:   req.PassengerName,
		PassengerPhone:  req.PassengerPhone,
		Seats:           req.Seats,
		PointsRequested: req.PointsRequested,
	}, time.Now())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"booking":   booking,
		"breakdown": bd,
	})
}

// GET /api/bookings/:id
func GetBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	booking, err := repositories.BookingRepo{DB: intconfig.DB}.GetByID(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// PUT /api/bookings/:id/confirm
func ConfirmBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	booking, err := bookingService(c).Confirm(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// DELETE /api/bookings/:id
func ReleaseBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	booking, err := bookingService(c).Release(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking, "message": "booking dibatalkan, kursi dilepas"})
}

// GET /api/bookings/:id/e-ticket
func BookingETicket(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	svc := services.DocsService{
		DB:        intconfig.DB,
		RequestID: middleware.GetRequestID(c),
	}
	pdf, filename, err := svc.GenerateETicket(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
