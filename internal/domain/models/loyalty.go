package models

import (
	"time"

	"busline/internal/domain"
)

// LoyaltyAccount: one per passenger. Tier is a pure function of TotalEarned
// against the configured thresholds; TotalEarned is monotonic.
type LoyaltyAccount struct {
	ID          int64       `json:"id"`
	PassengerID int64       `json:"passengerId"`
	Points      int64       `json:"points"`
	Tier        domain.Tier `json:"tier"`
	TotalEarned int64       `json:"totalEarned"`
}

const (
	LoyaltyEarned   = "EARNED"
	LoyaltyRedeemed = "REDEEMED"
)

// LoyaltyTransaction is an append-only ledger entry, immutable once written.
type LoyaltyTransaction struct {
	ID          int64     `json:"id"`
	AccountID   int64     `json:"accountId"`
	Kind        string    `json:"kind"` // EARNED / REDEEMED
	Points      int64     `json:"points"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}
