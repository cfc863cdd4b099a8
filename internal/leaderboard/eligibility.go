package leaderboard

import (
	"fmt"
	"strings"

	"github.com/fardannozami/ecotrace-leaderboard/internal/domain"
)

// ReasonCorruptData prefixes every disqualification reason.
const ReasonCorruptData = "duplicate or corrupted activity data"

// Evaluate decides whether an aggregate qualifies for ranking. A reason is
// attached only to invalid aggregates; falling short on days is visible
// through DaysTracked and DaysRequired alone.
func Evaluate(agg domain.AggregatedUserImpact, p domain.PeriodType) domain.Eligibility {
	required := DaysRequired(p, agg.Window)

	result := domain.Eligibility{
		IsEligible:   agg.IsValid && agg.DaysTracked >= required,
		DaysRequired: required,
	}
	if !agg.IsValid {
		reason := disqualificationReason(agg.Violations)
		result.DisqualificationReason = &reason
	}
	return result
}

func disqualificationReason(violations []domain.Violation) string {
	if len(violations) == 0 {
		return ReasonCorruptData
	}
	parts := make([]string, 0, len(violations))
	for _, v := range violations {
		parts = append(parts, fmt.Sprintf("%s too high on %s (%s)", v.Metric, v.Day.Format(dayKeyLayout), formatAmount(v.Metric, v.Amount)))
	}
	return ReasonCorruptData + ": " + strings.Join(parts, "; ")
}

func formatAmount(metric string, amount float64) string {
	switch metric {
	case domain.MetricWater:
		return fmt.Sprintf("%.0f L", amount)
	case domain.MetricElectricity:
		return fmt.Sprintf("%.1f kWh", amount)
	default:
		return fmt.Sprintf("%.1f kg", amount)
	}
}
