package models

import (
	"time"

	"busline/internal/domain"
)

// PricingRule is pure configuration; the fare engine evaluates it and never
// mutates it. Exactly one applicability condition is expected per rule:
// MinDaysBefore/MinHoursBefore for the time-gated types, StartDate/EndDate
// for windowed ones. RouteID nil means the rule covers all routes.
type PricingRule struct {
	ID             int64           `json:"id"`
	Type           domain.RuleType `json:"type"`
	Multiplier     float64         `json:"multiplier"`
	MinDaysBefore  *int            `json:"minDaysBefore,omitempty"`
	MinHoursBefore *int            `json:"minHoursBefore,omitempty"`
	StartDate      *time.Time      `json:"startDate,omitempty"`
	EndDate        *time.Time      `json:"endDate,omitempty"`
	RouteID        *int64          `json:"routeId,omitempty"`
	Active         bool            `json:"active"`
}

// WindowHours normalizes the rule's time gate to hours, whichever unit the
// rule uses. Zero when the rule carries no time gate.
func (r PricingRule) WindowHours() int {
	if r.MinHoursBefore != nil {
		return *r.MinHoursBefore
	}
	if r.MinDaysBefore != nil {
		return *r.MinDaysBefore * 24
	}
	return 0
}
