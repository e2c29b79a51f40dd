package services

import (
	"database/sql"
	"fmt"
	"math"

	"busline/internal/config"
	"busline/internal/domain"
	"busline/internal/domain/models"
	"busline/internal/repositories"
	"busline/internal/utils"
)

// LoyaltyService is the points ledger: earning on paid amounts, redemption
// against balances, tier bookkeeping. Every mutation is atomic with its
// ledger append (the repo runs both in one transaction).
type LoyaltyService struct {
	Repo      repositories.LoyaltyRepo
	Pricing   config.Pricing
	DB        *sql.DB
	RequestID string
}

func (s LoyaltyService) repo() repositories.LoyaltyRepo {
	if s.Repo.DB != nil {
		return s.Repo
	}
	return repositories.LoyaltyRepo{DB: s.DB}
}

// TierFor derives the tier from lifetime earned points. Pure; thresholds
// come from config so tests can vary them.
func (s LoyaltyService) TierFor(totalEarned int64) domain.Tier {
	switch {
	case s.Pricing.GoldMinPoints > 0 && totalEarned >= s.Pricing.GoldMinPoints:
		return domain.TierGold
	case s.Pricing.SilverMinPoints > 0 && totalEarned >= s.Pricing.SilverMinPoints:
		return domain.TierSilver
	default:
		return domain.TierBronze
	}
}

// AwardForAmount converts a paid currency amount into points and credits
// them. A zero-point award (tiny amount) is a no-op, not an error.
func (s LoyaltyService) AwardForAmount(passengerID, amount int64, description string) (int64, models.LoyaltyAccount, error) {
	if amount < 0 {
		return 0, models.LoyaltyAccount{}, domain.ValidationError{Field: "amount", Msg: "nominal tidak boleh negatif"}
	}
	acct, err := s.repo().GetOrCreate(passengerID)
	if err != nil {
		return 0, acct, err
	}

	points := int64(math.Floor(float64(amount) * s.Pricing.PointsPerUnit))
	if points <= 0 {
		return 0, acct, nil
	}

	acct, err = s.repo().Award(acct.ID, points, description, s.TierFor)
	if err != nil {
		return 0, acct, err
	}
	utils.LogEvent(s.RequestID, "loyalty", "award",
		fmt.Sprintf("passenger_id=%d points=%d tier=%s", passengerID, points, acct.Tier))
	return points, acct, nil
}

// Redeem burns points and returns the equivalent currency discount.
func (s LoyaltyService) Redeem(passengerID, points int64, description string) (int64, models.LoyaltyAccount, error) {
	acct, err := s.repo().GetOrCreate(passengerID)
	if err != nil {
		return 0, acct, err
	}
	acct, err = s.repo().Redeem(acct.ID, points, description)
	if err != nil {
		return 0, acct, err
	}

	discount := int64(0)
	if s.Pricing.RedemptionRate > 0 {
		discount = int64(math.Floor(float64(points) / s.Pricing.RedemptionRate))
	}
	utils.LogEvent(s.RequestID, "loyalty", "redeem",
		fmt.Sprintf("passenger_id=%d points=%d discount=%d", passengerID, points, discount))
	return discount, acct, nil
}

// Account returns the ledger view: balance, tier and recent transactions.
func (s LoyaltyService) Account(passengerID int64) (models.LoyaltyAccount, []models.LoyaltyTransaction, error) {
	acct, err := s.repo().GetOrCreate(passengerID)
	if err != nil {
		return acct, nil, err
	}
	txns, err := s.repo().ListTransactions(acct.ID, 50)
	return acct, txns, err
}
