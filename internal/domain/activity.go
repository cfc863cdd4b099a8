package domain

import (
	"context"
	"time"
)

// Recurrence describes how often a recurring activity happens.
type Recurrence struct {
	TimesPerWeek int `json:"times_per_week" db:"times_per_week"`
	WeeksPerYear int `json:"weeks_per_year" db:"weeks_per_year"`
}

// ActivityRecord is one day's worth of logged impact for a user. OccurredOn
// carries a calendar date: a midnight names its own year, month and day,
// any other instant is read in the leaderboard's location.
type ActivityRecord struct {
	ID                string      `json:"id" db:"id"`
	UserID            string      `json:"user_id" db:"user_id"`
	OccurredOn        time.Time   `json:"occurred_on" db:"occurred_on"`
	Co2Impact         float64     `json:"co2_impact" db:"co2_impact"`
	WaterImpact       float64     `json:"water_impact" db:"water_impact"`
	ElectricityImpact float64     `json:"electricity_impact" db:"electricity_impact"`
	Recurrence        *Recurrence `json:"recurrence,omitempty"`
	SourceRecurringID string      `json:"source_recurring_id,omitempty" db:"source_recurring_id"`
}

// Materialized reports whether the record was generated from a recurring template.
// Materialized records count toward totals but stay out of "recent activity" feeds.
func (a ActivityRecord) Materialized() bool {
	return a.SourceRecurringID != ""
}

// RecurringTemplate is a recurring activity from which one record per day is materialized.
type RecurringTemplate struct {
	ID                string     `json:"id" db:"id"`
	UserID            string     `json:"user_id" db:"user_id"`
	StartOn           time.Time  `json:"start_on" db:"start_on"`
	Co2Impact         float64    `json:"co2_impact" db:"co2_impact"`
	WaterImpact       float64    `json:"water_impact" db:"water_impact"`
	ElectricityImpact float64    `json:"electricity_impact" db:"electricity_impact"`
	Recurrence        Recurrence `json:"recurrence"`
	LastGeneratedOn   time.Time  `json:"last_generated_on" db:"last_generated_on"`
}

// DailyFactor scales a single occurrence to its per-day share so a week of
// materialized records adds up to TimesPerWeek occurrences.
func (t RecurringTemplate) DailyFactor() float64 {
	if t.Recurrence.TimesPerWeek <= 0 {
		return 1.0
	}
	return float64(t.Recurrence.TimesPerWeek) / 7.0
}

// ActivityStore returns a user's records with OccurredOn in [from, to).
// Recurring templates are already expanded, one record per occurrence.
type ActivityStore interface {
	FetchActivities(ctx context.Context, userID string, from, to time.Time) ([]ActivityRecord, error)
}

type ActivityRepository interface {
	ActivityStore
	InsertActivity(ctx context.Context, record *ActivityRecord) error
	InsertRecurringTemplate(ctx context.Context, tmpl *RecurringTemplate) error
	// ListRecurringDue returns templates not yet materialized through day.
	ListRecurringDue(ctx context.Context, day time.Time) ([]*RecurringTemplate, error)
	// SaveOccurrences stores occurrences (skipping days already present for the
	// template) and advances the template's LastGeneratedOn to through.
	SaveOccurrences(ctx context.Context, tmpl *RecurringTemplate, occurrences []ActivityRecord, through time.Time) error
}
