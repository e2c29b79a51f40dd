package services

import (
	"database/sql"
	"fmt"
	"time"

	"busline/internal/config"
	"busline/internal/domain"
	"busline/internal/domain/models"
	"busline/internal/fare"
	"busline/internal/repositories"
	"busline/internal/utils"
)

// FareService quotes ticket prices: it loads the active rules and the
// passenger's loyalty account, then hands everything to the pure engine.
type FareService struct {
	TripRepo    repositories.TripRepo
	RuleRepo    repositories.PricingRuleRepo
	LoyaltyRepo repositories.LoyaltyRepo
	Pricing     config.Pricing
	DB          *sql.DB
	RequestID   string

	// Test hooks; nil means hit the repos.
	FetchRules   func(routeID int64) ([]models.PricingRule, error)
	FetchAccount func(passengerID int64) (models.LoyaltyAccount, error)
}

func (s FareService) trips() repositories.TripRepo {
	if s.TripRepo.DB != nil {
		return s.TripRepo
	}
	return repositories.TripRepo{DB: s.DB}
}

func (s FareService) rules(routeID int64) ([]models.PricingRule, error) {
	if s.FetchRules != nil {
		return s.FetchRules(routeID)
	}
	r := s.RuleRepo
	if r.DB == nil {
		r = repositories.PricingRuleRepo{DB: s.DB}
	}
	return r.ListActiveForRoute(routeID)
}

func (s FareService) account(passengerID int64) (models.LoyaltyAccount, error) {
	if s.FetchAccount != nil {
		return s.FetchAccount(passengerID)
	}
	r := s.LoyaltyRepo
	if r.DB == nil {
		r = repositories.LoyaltyRepo{DB: s.DB}
	}
	return r.GetOrCreate(passengerID)
}

// QuoteTrip prices seatCount seats on the given trip. passengerID 0 quotes
// anonymously (BRONZE, no points).
func (s FareService) QuoteTrip(trip models.TripInstance, seatCount int, passengerID, pointsRequested int64, now time.Time) (fare.Breakdown, error) {
	if seatCount <= 0 {
		return fare.Breakdown{}, domain.ValidationError{Field: "seats", Msg: "jumlah kursi harus lebih dari nol"}
	}

	rules, err := s.rules(trip.RouteID)
	if err != nil {
		return fare.Breakdown{}, err
	}

	loyalty := fare.LoyaltyContext{Tier: domain.TierBronze}
	if passengerID > 0 {
		acct, err := s.account(passengerID)
		if err != nil {
			return fare.Breakdown{}, err
		}
		loyalty = fare.LoyaltyContext{Tier: acct.Tier, Points: acct.Points}
	}

	eng := fare.New(s.Pricing)
	eng.Warnf = func(format string, args ...any) {
		utils.LogEvent(s.RequestID, "fare", "rule_ambiguity", fmt.Sprintf(format, args...))
	}

	base := trip.Price * int64(seatCount)
	bd, err := eng.Compute(base, rules, trip.RouteID, trip.DepartureAt, now, loyalty, pointsRequested)
	if err != nil {
		return bd, err
	}
	utils.LogEvent(s.RequestID, "fare", "quote",
		fmt.Sprintf("trip_id=%d seats=%d base=%d final=%d", trip.ID, seatCount, base, bd.FinalPrice))
	return bd, nil
}

// QuoteByID is QuoteTrip after a trip lookup.
func (s FareService) QuoteByID(tripID int64, seatCount int, passengerID, pointsRequested int64, now time.Time) (models.TripInstance, fare.Breakdown, error) {
	trip, err := s.trips().GetByID(tripID)
	if err != nil {
		return trip, fare.Breakdown{}, err
	}
	bd, err := s.QuoteTrip(trip, seatCount, passengerID, pointsRequested, now)
	return trip, bd, err
}
