package domain

import "strings"

// ID is used across domain entities.
type ID int64

// TripStatus is the lifecycle state of a trip instance.
type TripStatus string

const (
	TripScheduled  TripStatus = "SCHEDULED"
	TripInProgress TripStatus = "IN_PROGRESS"
	TripCompleted  TripStatus = "COMPLETED"
	TripCancelled  TripStatus = "CANCELLED"
)

func ParseTripStatus(s string) (TripStatus, bool) {
	switch TripStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case TripScheduled:
		return TripScheduled, true
	case TripInProgress:
		return TripInProgress, true
	case TripCompleted:
		return TripCompleted, true
	case TripCancelled:
		return TripCancelled, true
	}
	return "", false
}

// BookingStatus mirrors the booking state machine. COMPLETED and CANCELLED
// are terminal.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

// RuleType is a closed set; pricing evaluation dispatches on it through a
// lookup table instead of string branching.
type RuleType string

const (
	RuleSurge     RuleType = "SURGE"
	RuleEarlyBird RuleType = "EARLY_BIRD"
	RuleSeasonal  RuleType = "SEASONAL"
	RuleDiscount  RuleType = "DISCOUNT"
)

func ParseRuleType(s string) (RuleType, bool) {
	switch RuleType(strings.ToUpper(strings.TrimSpace(s))) {
	case RuleSurge:
		return RuleSurge, true
	case RuleEarlyBird:
		return RuleEarlyBird, true
	case RuleSeasonal:
		return RuleSeasonal, true
	case RuleDiscount:
		return RuleDiscount, true
	}
	return "", false
}

// Tier is the loyalty classification derived from lifetime points earned.
type Tier string

const (
	TierBronze Tier = "BRONZE"
	TierSilver Tier = "SILVER"
	TierGold   Tier = "GOLD"
)

// SeatPosition categorizes a seat within the layout. A TOILET slot is not
// sellable and does not count toward bus capacity.
type SeatPosition string

const (
	SeatRegular SeatPosition = "REGULAR"
	SeatBack    SeatPosition = "BACK"
	SeatToilet  SeatPosition = "TOILET"
)
