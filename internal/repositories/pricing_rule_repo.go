package repositories

import (
	"database/sql"

	intconfig "busline/internal/config"
	"busline/internal/domain"
	"busline/internal/domain/models"
)

type PricingRuleRepo struct {
	DB *sql.DB
}

func (r PricingRuleRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// ListActiveForRoute returns every active rule that could cover the route:
// route-scoped rules for this route plus the global ones. The fare engine
// does the time-applicability filtering.
func (r PricingRuleRepo) ListActiveForRoute(routeID int64) ([]models.PricingRule, error) {
	rows, err := r.db().Query(`
		SELECT id, rule_type, multiplier, min_days_before, min_hours_before,
			start_date, end_date, route_id, active
		FROM pricing_rules
		WHERE active=1 AND (route_id IS NULL OR route_id=?)
		ORDER BY id ASC`, routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.PricingRule{}
	for rows.Next() {
		var rule models.PricingRule
		var ruleType string
		if err := rows.Scan(&rule.ID, &ruleType, &rule.Multiplier,
			&rule.MinDaysBefore, &rule.MinHoursBefore,
			&rule.StartDate, &rule.EndDate, &rule.RouteID, &rule.Active); err != nil {
			return out, err
		}
		parsed, ok := domain.ParseRuleType(ruleType)
		if !ok {
			// Unknown types are configuration noise; skip rather than guess.
			continue
		}
		rule.Type = parsed
		out = append(out, rule)
	}
	return out, rows.Err()
}
