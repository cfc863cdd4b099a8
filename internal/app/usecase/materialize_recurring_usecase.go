package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fardannozami/ecotrace-leaderboard/internal/domain"
	"github.com/fardannozami/ecotrace-leaderboard/internal/leaderboard"
)

// MaterializeRecurringUsecase expands recurring templates into one activity
// record per day, each carrying the template's daily share of impact.
type MaterializeRecurringUsecase struct {
	activities domain.ActivityRepository
	clock      domain.Clock
	periods    *leaderboard.PeriodClock
	cache      Invalidator
	log        zerolog.Logger
}

func NewMaterializeRecurringUsecase(activities domain.ActivityRepository, clock domain.Clock, periods *leaderboard.PeriodClock, cache Invalidator, logger zerolog.Logger) *MaterializeRecurringUsecase {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &MaterializeRecurringUsecase{activities: activities, clock: clock, periods: periods, cache: cache, log: logger}
}

// Execute fills every due template up to and including today and returns the
// number of records generated. A failing template is logged and skipped.
func (uc *MaterializeRecurringUsecase) Execute(ctx context.Context) (int, error) {
	today := uc.periods.DayOf(uc.clock.Now())

	due, err := uc.activities.ListRecurringDue(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("list recurring activities: %w", err)
	}

	total := 0
	for _, tmpl := range due {
		occ := uc.occurrences(tmpl, today)
		if len(occ) == 0 {
			continue
		}
		if err := uc.activities.SaveOccurrences(ctx, tmpl, occ, today); err != nil {
			uc.log.Error().Err(err).Str("recurring_id", tmpl.ID).Str("user_id", tmpl.UserID).Msg("failed to materialize recurring activity")
			continue
		}
		total += len(occ)
	}

	if total > 0 {
		uc.log.Info().Int("records", total).Int("templates", len(due)).Msg("recurring activities materialized")
		if uc.cache != nil {
			uc.cache.Invalidate()
		}
	}
	return total, nil
}

// Run materializes once immediately and then on every tick until ctx is done.
func (uc *MaterializeRecurringUsecase) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := uc.Execute(ctx); err != nil {
			uc.log.Error().Err(err).Msg("recurring materialization failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (uc *MaterializeRecurringUsecase) occurrences(tmpl *domain.RecurringTemplate, today time.Time) []domain.ActivityRecord {
	from := uc.periods.DayOf(tmpl.StartOn)
	if !tmpl.LastGeneratedOn.IsZero() {
		from = uc.periods.DayOf(tmpl.LastGeneratedOn).AddDate(0, 0, 1)
	}

	factor := tmpl.DailyFactor()
	var out []domain.ActivityRecord
	for d := from; !d.After(today); d = d.AddDate(0, 0, 1) {
		out = append(out, domain.ActivityRecord{
			UserID:            tmpl.UserID,
			OccurredOn:        d,
			Co2Impact:         tmpl.Co2Impact * factor,
			WaterImpact:       tmpl.WaterImpact * factor,
			ElectricityImpact: tmpl.ElectricityImpact * factor,
			Recurrence:        &tmpl.Recurrence,
			SourceRecurringID: tmpl.ID,
		})
	}
	return out
}
