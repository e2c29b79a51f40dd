package models

import "time"

// Route is reference data; immutable once trips point at it except via
// explicit edit.
type Route struct {
	ID               int64    `json:"id"`
	Origin           string   `json:"origin"`
	Destination      string   `json:"destination"`
	DistanceKM       float64  `json:"distanceKm"`
	EstimatedMinutes int      `json:"estimatedMinutes"`
	BaseFare         int64    `json:"baseFare"`
	OriginLat        *float64 `json:"originLat,omitempty"`
	OriginLng        *float64 `json:"originLng,omitempty"`
	DestLat          *float64 `json:"destLat,omitempty"`
	DestLng          *float64 `json:"destLng,omitempty"`
	Waypoints        []string `json:"waypoints,omitempty"`
}

func (r Route) EstimatedTime() time.Duration {
	return time.Duration(r.EstimatedMinutes) * time.Minute
}

// Reversed builds the opposite direction: origin/destination swapped,
// waypoints in reverse order.
func (r Route) Reversed() Route {
	rev := Route{
		Origin:           r.Destination,
		Destination:      r.Origin,
		DistanceKM:       r.DistanceKM,
		EstimatedMinutes: r.EstimatedMinutes,
		BaseFare:         r.BaseFare,
		OriginLat:        r.DestLat,
		OriginLng:        r.DestLng,
		DestLat:          r.OriginLat,
		DestLng:          r.OriginLng,
	}
	if len(r.Waypoints) > 0 {
		rev.Waypoints = make([]string, len(r.Waypoints))
		for i, w := range r.Waypoints {
			rev.Waypoints[len(r.Waypoints)-1-i] = w
		}
	}
	return rev
}
