package models

// Bus is owned by one driver/operator. Capacity counts sellable seats; a
// toilet slot is extra.
type Bus struct {
	ID        int64    `json:"id"`
	Code      string   `json:"code"`
	Capacity  int      `json:"capacity"`
	HasToilet bool     `json:"hasToilet"`
	Amenities []string `json:"amenities,omitempty"`
	Rating    float64  `json:"rating"`
	DriverID  *int64   `json:"driverId,omitempty"`
}

// DailyTemplate is the recurring definition the generator expands into
// dated trip instances. One bus may have several (multiple departures/day).
type DailyTemplate struct {
	ID               int64  `json:"id"`
	BusID            int64  `json:"busId"`
	RouteID          int64  `json:"routeId"`
	DepartureTime    string `json:"departureTime"` // HH:MM
	Price            int64  `json:"price"`
	Active           bool   `json:"active"`
	IsReturnTrip     bool   `json:"isReturnTrip"`
	ReturnTemplateID *int64 `json:"returnTemplateId,omitempty"`
}
