package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/fardannozami/ecotrace-leaderboard/internal/domain"
	"github.com/fardannozami/ecotrace-leaderboard/internal/leaderboard"
)

// Invalidator drops cached leaderboard results after a write.
type Invalidator interface {
	Invalidate()
}

type LogActivityInput struct {
	UserID            string
	Name              string
	Co2Impact         float64
	WaterImpact       float64
	ElectricityImpact float64
	// OccurredOn defaults to today in the leaderboard time zone.
	OccurredOn time.Time
}

type LogActivityUsecase struct {
	users      domain.UserRepository
	activities domain.ActivityRepository
	clock      domain.Clock
	periods    *leaderboard.PeriodClock
	cache      Invalidator
}

func NewLogActivityUsecase(users domain.UserRepository, activities domain.ActivityRepository, clock domain.Clock, periods *leaderboard.PeriodClock, cache Invalidator) *LogActivityUsecase {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &LogActivityUsecase{users: users, activities: activities, clock: clock, periods: periods, cache: cache}
}

func (uc *LogActivityUsecase) Execute(ctx context.Context, in LogActivityInput) (*domain.ActivityRecord, error) {
	if err := validateImpacts(in.Co2Impact, in.WaterImpact, in.ElectricityImpact); err != nil {
		return nil, err
	}
	if err := uc.users.EnsureUser(ctx, in.UserID, in.Name); err != nil {
		return nil, fmt.Errorf("ensure user %s: %w", in.UserID, err)
	}

	day := in.OccurredOn
	if day.IsZero() {
		day = uc.clock.Now()
	}

	rec := &domain.ActivityRecord{
		UserID:            in.UserID,
		OccurredOn:        uc.periods.DayOf(day),
		Co2Impact:         in.Co2Impact,
		WaterImpact:       in.WaterImpact,
		ElectricityImpact: in.ElectricityImpact,
	}
	if err := uc.activities.InsertActivity(ctx, rec); err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}

	if uc.cache != nil {
		uc.cache.Invalidate()
	}
	return rec, nil
}

type CreateRecurringInput struct {
	UserID            string
	Name              string
	Co2Impact         float64
	WaterImpact       float64
	ElectricityImpact float64
	TimesPerWeek      int
	WeeksPerYear      int
}

// CreateRecurringUsecase stores a recurring template starting today and
// materializes it right away so today's share shows up immediately.
type CreateRecurringUsecase struct {
	users       domain.UserRepository
	activities  domain.ActivityRepository
	clock       domain.Clock
	periods     *leaderboard.PeriodClock
	materialize *MaterializeRecurringUsecase
}

func NewCreateRecurringUsecase(users domain.UserRepository, activities domain.ActivityRepository, clock domain.Clock, periods *leaderboard.PeriodClock, materialize *MaterializeRecurringUsecase) *CreateRecurringUsecase {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &CreateRecurringUsecase{users: users, activities: activities, clock: clock, periods: periods, materialize: materialize}
}

func (uc *CreateRecurringUsecase) Execute(ctx context.Context, in CreateRecurringInput) (*domain.RecurringTemplate, error) {
	if err := validateImpacts(in.Co2Impact, in.WaterImpact, in.ElectricityImpact); err != nil {
		return nil, err
	}
	if in.TimesPerWeek < 1 || in.TimesPerWeek > 7 {
		return nil, domain.Validation("times per week must be between 1 and 7, got %d", in.TimesPerWeek)
	}
	if in.WeeksPerYear == 0 {
		in.WeeksPerYear = 52
	}
	if in.WeeksPerYear < 1 || in.WeeksPerYear > 53 {
		return nil, domain.Validation("weeks per year must be between 1 and 53, got %d", in.WeeksPerYear)
	}
	if err := uc.users.EnsureUser(ctx, in.UserID, in.Name); err != nil {
		return nil, fmt.Errorf("ensure user %s: %w", in.UserID, err)
	}

	tmpl := &domain.RecurringTemplate{
		UserID:            in.UserID,
		StartOn:           uc.periods.DayOf(uc.clock.Now()),
		Co2Impact:         in.Co2Impact,
		WaterImpact:       in.WaterImpact,
		ElectricityImpact: in.ElectricityImpact,
		Recurrence: domain.Recurrence{
			TimesPerWeek: in.TimesPerWeek,
			WeeksPerYear: in.WeeksPerYear,
		},
	}
	if err := uc.activities.InsertRecurringTemplate(ctx, tmpl); err != nil {
		return nil, fmt.Errorf("insert recurring activity: %w", err)
	}

	if uc.materialize != nil {
		if _, err := uc.materialize.Execute(ctx); err != nil {
			return tmpl, err
		}
	}
	return tmpl, nil
}

func validateImpacts(values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.Validation("impact must be a finite number")
		}
		if v < 0 {
			return domain.NegativeImpact("impact must not be negative, got %g", v)
		}
	}
	return nil
}
