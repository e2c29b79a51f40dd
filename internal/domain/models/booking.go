package models

import (
	"time"

	"busline/internal/domain"
)

// Booking is the ledger record for a set of claimed seats. Cancellation
// releases the seats but never deletes the record.
type Booking struct {
	ID             int64                `json:"id"`
	Code           string               `json:"code"`
	TripID         int64                `json:"tripId"`
	PassengerID    int64                `json:"passengerId"`
	PassengerName  string               `json:"passengerName"`
	PassengerPhone string               `json:"passengerPhone"`
	Seats          []string             `json:"seats"`
	Total          int64                `json:"total"`
	Discount       int64                `json:"discount"`
	PointsUsed     int64                `json:"pointsUsed"`
	Status         domain.BookingStatus `json:"status"`
	FreeCancel     bool                 `json:"freeCancel"`
	CreatedAt      time.Time            `json:"createdAt"`
}
