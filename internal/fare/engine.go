// Package fare composes the final ticket price from the configured pricing
// rules, the passenger's loyalty tier and any points redemption. Compute is
// pure: same inputs, same breakdown.
package fare

import (
	"log"
	"math"
	"time"

	"busline/internal/config"
	"busline/internal/domain"
	"busline/internal/domain/models"
)

// LoyaltyContext is the slice of the loyalty account the engine needs.
type LoyaltyContext struct {
	Tier   domain.Tier
	Points int64
}

// Breakdown records every intermediate value so a quoted price can be
// audited after the fact.
type Breakdown struct {
	BasePrice int64 `json:"basePrice"`

	TimeRuleType       domain.RuleType `json:"timeRuleType,omitempty"`
	TimeMultiplier     float64         `json:"timeMultiplier"`
	SeasonalMultiplier float64         `json:"seasonalMultiplier"`
	DiscountMultiplier float64         `json:"discountMultiplier"`
	AfterRules         int64           `json:"afterRules"`

	Tier         domain.Tier `json:"tier"`
	TierDiscount int64       `json:"tierDiscount"`
	AfterTier    int64       `json:"afterTier"`

	PointsRequested int64 `json:"pointsRequested"`
	PointsUsed      int64 `json:"pointsUsed"`
	PointsDiscount  int64 `json:"pointsDiscount"`

	FinalPrice   int64 `json:"finalPrice"`
	PointsEarned int64 `json:"pointsEarned"`
}

type Engine struct {
	Cfg config.Pricing

	// Warnf receives rule_ambiguity warnings; defaults to log.Printf.
	Warnf func(format string, args ...any)
}

func New(cfg config.Pricing) Engine {
	return Engine{Cfg: cfg}
}

func (e Engine) warnf(format string, args ...any) {
	if e.Warnf != nil {
		e.Warnf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// evaluator reports whether a rule applies at evaluation time. One per rule
// variant; dispatch goes through the table, never through string branching
// at call sites.
type evaluator func(r models.PricingRule, departure, now time.Time) bool

var evaluators = map[domain.RuleType]evaluator{
	domain.RuleSurge: func(r models.PricingRule, departure, now time.Time) bool {
		wh := r.WindowHours()
		if wh <= 0 {
			return false
		}
		until := departure.Sub(now)
		return until > 0 && until <= time.Duration(wh)*time.Hour
	},
	domain.RuleEarlyBird: func(r models.PricingRule, departure, now time.Time) bool {
		wh := r.WindowHours()
		if wh <= 0 {
			return false
		}
		return departure.Sub(now) >= time.Duration(wh)*time.Hour
	},
	domain.RuleSeasonal: func(r models.PricingRule, _, now time.Time) bool {
		return dateWithin(now, r.StartDate, r.EndDate)
	},
	domain.RuleDiscount: func(r models.PricingRule, _, now time.Time) bool {
		if r.StartDate == nil && r.EndDate == nil {
			return true
		}
		return dateWithin(now, r.StartDate, r.EndDate)
	},
}

// dateWithin compares calendar dates, inclusive on both ends.
func dateWithin(now time.Time, start, end *time.Time) bool {
	if start == nil || end == nil {
		return false
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	en := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(s) && !day.After(en)
}

// Compute runs the fixed pricing pipeline: rule selection, multiplier
// composition, tier discount, points redemption, points earned. Absence of a
// matching rule is normal, not an error.
func (e Engine) Compute(basePrice int64, rules []models.PricingRule, routeID int64, departure, now time.Time, loyalty LoyaltyContext, pointsRequested int64) (Breakdown, error) {
	if basePrice < 0 {
		return Breakdown{}, domain.ValidationError{Field: "base_price", Msg: "harga tidak boleh negatif"}
	}
	if pointsRequested < 0 {
		return Breakdown{}, domain.ValidationError{Field: "points_requested", Msg: "poin tidak boleh negatif"}
	}

	matched := e.selectRules(rules, routeID, departure, now)

	bd := Breakdown{
		BasePrice:          basePrice,
		TimeMultiplier:     1,
		SeasonalMultiplier: 1,
		DiscountMultiplier: 1,
		Tier:               loyalty.Tier,
		PointsRequested:    pointsRequested,
	}
	if bd.Tier == "" {
		bd.Tier = domain.TierBronze
	}

	var applied []float64
	if r, ok := matched[timeSlot]; ok {
		bd.TimeRuleType = r.Type
		bd.TimeMultiplier = r.Multiplier
		applied = append(applied, r.Multiplier)
	}
	if r, ok := matched[seasonalSlot]; ok {
		bd.SeasonalMultiplier = r.Multiplier
		applied = append(applied, r.Multiplier)
	}
	if r, ok := matched[discountSlot]; ok {
		bd.DiscountMultiplier = r.Multiplier
		applied = append(applied, r.Multiplier)
	}

	factor := 1.0
	switch {
	case e.Cfg.Composition == "max" && len(applied) > 0:
		// max over what actually matched, so a lone sub-1 discount still
		// applies instead of being shadowed by the neutral 1.0
		factor = applied[0]
		for _, m := range applied[1:] {
			if m > factor {
				factor = m
			}
		}
	case e.Cfg.Composition != "max":
		factor = bd.TimeMultiplier * bd.SeasonalMultiplier * bd.DiscountMultiplier
	}
	bd.AfterRules = roundMoney(float64(basePrice) * factor)

	tierPct := e.TierDiscount(bd.Tier)
	bd.TierDiscount = roundMoney(float64(bd.AfterRules) * tierPct)
	bd.AfterTier = bd.AfterRules - bd.TierDiscount

	maxRedeemable := int64(math.Floor(float64(bd.AfterTier) * e.Cfg.MaxRedeemShare * e.Cfg.RedemptionRate))
	if loyalty.Points < maxRedeemable {
		maxRedeemable = loyalty.Points
	}
	if maxRedeemable < 0 {
		maxRedeemable = 0
	}
	bd.PointsUsed = pointsRequested
	if bd.PointsUsed > maxRedeemable {
		bd.PointsUsed = maxRedeemable
	}
	if e.Cfg.RedemptionRate > 0 {
		bd.PointsDiscount = int64(math.Floor(float64(bd.PointsUsed) / e.Cfg.RedemptionRate))
	}

	bd.FinalPrice = bd.AfterTier - bd.PointsDiscount
	if bd.FinalPrice < 0 {
		bd.FinalPrice = 0
	}
	bd.PointsEarned = int64(math.Floor(float64(bd.FinalPrice) * e.Cfg.PointsPerUnit))

	return bd, nil
}

// TierDiscount returns the fixed fare discount for a loyalty tier.
func (e Engine) TierDiscount(t domain.Tier) float64 {
	switch t {
	case domain.TierSilver:
		return e.Cfg.SilverDiscount
	case domain.TierGold:
		return e.Cfg.GoldDiscount
	default:
		return 0
	}
}

// Multiplier slots. SURGE and EARLY_BIRD share one slot since they are
// mutually time-gated.
const (
	timeSlot     = "time"
	seasonalSlot = "seasonal"
	discountSlot = "discount"
)

func (e Engine) selectRules(rules []models.PricingRule, routeID int64, departure, now time.Time) map[string]models.PricingRule {
	byType := map[domain.RuleType][]models.PricingRule{}
	for _, r := range rules {
		if !r.Active || r.Multiplier <= 0 {
			continue
		}
		if r.RouteID != nil && *r.RouteID != routeID {
			continue
		}
		eval, ok := evaluators[r.Type]
		if !ok {
			continue
		}
		if eval(r, departure, now) {
			byType[r.Type] = append(byType[r.Type], r)
		}
	}

	out := map[string]models.PricingRule{}

	surge, hasSurge := e.pickOne(byType[domain.RuleSurge], narrowestWindow)
	early, hasEarly := e.pickOne(byType[domain.RuleEarlyBird], lowestMultiplier)
	switch {
	case hasSurge && hasEarly:
		// Overlapping gates are a configuration problem; the urgent rule wins.
		e.warnf("[FARE] action=rule_ambiguity msg=surge and early_bird both match, surge rule %d wins over %d", surge.ID, early.ID)
		out[timeSlot] = surge
	case hasSurge:
		out[timeSlot] = surge
	case hasEarly:
		out[timeSlot] = early
	}

	if r, ok := e.pickOne(byType[domain.RuleSeasonal], lowestMultiplier); ok {
		out[seasonalSlot] = r
	}
	if r, ok := e.pickOne(byType[domain.RuleDiscount], lowestMultiplier); ok {
		out[discountSlot] = r
	}
	return out
}

// pickOne applies the within-type tie-break and logs when more than one rule
// of the same type matched.
func (e Engine) pickOne(matches []models.PricingRule, better func(a, b models.PricingRule) bool) (models.PricingRule, bool) {
	if len(matches) == 0 {
		return models.PricingRule{}, false
	}
	best := matches[0]
	for _, r := range matches[1:] {
		if better(r, best) {
			best = r
		}
	}
	if len(matches) > 1 {
		e.warnf("[FARE] action=rule_ambiguity msg=%d %s rules match, picked rule %d", len(matches), best.Type, best.ID)
	}
	return best, true
}

// lowestMultiplier favors the passenger: the biggest discount wins.
func lowestMultiplier(a, b models.PricingRule) bool {
	return a.Multiplier < b.Multiplier
}

// narrowestWindow picks the most urgent surge rule.
func narrowestWindow(a, b models.PricingRule) bool {
	return a.WindowHours() < b.WindowHours()
}

func roundMoney(x float64) int64 {
	return int64(math.Round(x))
}
