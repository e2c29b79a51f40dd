package models

import (
	"time"

	"busline/internal/domain"
)

// TripInstance is a single dated departure of a bus on a route. Its seat map
// is fixed at creation and never regenerated. The paired return trip is held
// by ID only, so neither side owns the cycle.
type TripInstance struct {
	ID           int64             `json:"id"`
	BusID        int64             `json:"busId"`
	RouteID      int64             `json:"routeId"`
	DepartureAt  time.Time         `json:"departureAt"`
	ArrivalAt    time.Time         `json:"arrivalAt"`
	Price        int64             `json:"price"`
	Status       domain.TripStatus `json:"status"`
	DelayMinutes int               `json:"delayMinutes"`
	ReturnTripID *int64            `json:"returnTripId,omitempty"`
}

// Seat belongs to exactly one trip instance.
type Seat struct {
	ID       int64               `json:"id"`
	TripID   int64               `json:"tripId"`
	Code     string              `json:"code"` // e.g. "3B", "B2", "WC"
	Row      int                 `json:"row"`
	Column   string              `json:"column"`
	Position domain.SeatPosition `json:"position"`
}

// SeatAvailability annotates a seat with its booked state for listings.
type SeatAvailability struct {
	Seat
	Available bool `json:"available"`
}
