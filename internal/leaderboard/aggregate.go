package leaderboard

import (
	"math"
	"sort"
	"time"

	"github.com/fardannozami/ecotrace-leaderboard/internal/domain"
)

const dayKeyLayout = "2006-01-02"

// Limits are per-day sanity ceilings. A day whose total exceeds a ceiling
// invalidates the aggregate. A zero ceiling is not enforced.
type Limits struct {
	MaxDailyCo2         float64
	MaxDailyWater       float64
	MaxDailyElectricity float64
}

// DefaultLimits are roughly ten times an average person's daily footprint.
func DefaultLimits() Limits {
	return Limits{
		MaxDailyCo2:         100.0,
		MaxDailyWater:       2000.0,
		MaxDailyElectricity: 100.0,
	}
}

type Aggregator struct {
	limits Limits
}

func NewAggregator(limits Limits) *Aggregator {
	return &Aggregator{limits: limits}
}

type dayTotal struct {
	day         time.Time
	co2         float64
	water       float64
	electricity float64
}

// Aggregate folds a user's records for one window. Every record must belong
// to userID, carry non-negative impacts and fall inside w; records generated
// from recurring templates count exactly like manual ones.
func (a *Aggregator) Aggregate(userID string, w domain.PeriodWindow, activities []domain.ActivityRecord) (domain.AggregatedUserImpact, error) {
	loc := w.Start.Location()
	days := make(map[string]*dayTotal)

	agg := domain.AggregatedUserImpact{
		UserID:  userID,
		Window:  w,
		IsValid: true,
	}

	for _, rec := range activities {
		if rec.UserID != userID {
			return domain.AggregatedUserImpact{}, domain.Validation("record %s belongs to user %s, not %s", rec.ID, rec.UserID, userID)
		}
		if err := checkImpacts(rec); err != nil {
			return domain.AggregatedUserImpact{}, err
		}

		y, m, d := calendarDate(rec.OccurredOn, loc)
		day := time.Date(y, m, d, 0, 0, 0, 0, loc)
		if !w.Contains(day) {
			return domain.AggregatedUserImpact{}, domain.OutOfWindowRecord("record %s on %s outside %s window [%s, %s)",
				rec.ID, day.Format(dayKeyLayout), w.Type, w.Start.Format(dayKeyLayout), w.End.Format(dayKeyLayout))
		}

		key := day.Format(dayKeyLayout)
		dt, ok := days[key]
		if !ok {
			dt = &dayTotal{day: day}
			days[key] = dt
		}
		dt.co2 += rec.Co2Impact
		dt.water += rec.WaterImpact
		dt.electricity += rec.ElectricityImpact

		agg.TotalCo2 += rec.Co2Impact
		agg.TotalWater += rec.WaterImpact
		agg.TotalElectricity += rec.ElectricityImpact
	}

	agg.DaysTracked = len(days)

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		agg.Violations = append(agg.Violations, a.violations(days[k])...)
	}
	if len(agg.Violations) > 0 {
		agg.IsValid = false
	}

	return agg, nil
}

func (a *Aggregator) violations(dt *dayTotal) []domain.Violation {
	var out []domain.Violation
	check := func(metric string, amount, limit float64) {
		if limit > 0 && amount > limit {
			out = append(out, domain.Violation{Day: dt.day, Metric: metric, Amount: amount, Limit: limit})
		}
	}
	check(domain.MetricCo2, dt.co2, a.limits.MaxDailyCo2)
	check(domain.MetricWater, dt.water, a.limits.MaxDailyWater)
	check(domain.MetricElectricity, dt.electricity, a.limits.MaxDailyElectricity)
	return out
}

func checkImpacts(rec domain.ActivityRecord) error {
	values := [...]struct {
		metric string
		v      float64
	}{
		{domain.MetricCo2, rec.Co2Impact},
		{domain.MetricWater, rec.WaterImpact},
		{domain.MetricElectricity, rec.ElectricityImpact},
	}
	for _, val := range values {
		if math.IsNaN(val.v) || math.IsInf(val.v, 0) {
			return domain.Validation("record %s has non-finite %s impact", rec.ID, val.metric)
		}
		if val.v < 0 {
			return domain.NegativeImpact("record %s has negative %s impact %.3f", rec.ID, val.metric, val.v)
		}
	}
	return nil
}

// calendarDate reads a midnight as the date it names. Any other instant is
// taken in loc, so local midnights stored as UTC keep their day.
func calendarDate(t time.Time, loc *time.Location) (int, time.Month, int) {
	if h, mi, sec := t.Clock(); h != 0 || mi != 0 || sec != 0 || t.Nanosecond() != 0 {
		t = t.In(loc)
	}
	return t.Date()
}
