package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fardannozami/ecotrace-leaderboard/internal/app/usecase"
	"github.com/fardannozami/ecotrace-leaderboard/internal/domain"
	"github.com/fardannozami/ecotrace-leaderboard/internal/leaderboard"
)

func TestMaterializeRecurring_CatchesUpAndIsIdempotent(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	require.NoError(t, store.InsertRecurringTemplate(ctx, &domain.RecurringTemplate{
		ID:         "commute",
		UserID:     "ann",
		StartOn:    day(2025, time.March, 10),
		Co2Impact:  7,
		Recurrence: domain.Recurrence{TimesPerWeek: 3, WeeksPerYear: 52},
	}))

	clock := newFakeClock(time.Date(2025, time.March, 12, 6, 0, 0, 0, time.UTC))
	inv := &countingInvalidator{}
	uc := usecase.NewMaterializeRecurringUsecase(store, clock, leaderboard.NewPeriodClock(time.UTC), inv, zerolog.Nop())

	n, err := uc.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.EqualValues(t, 1, inv.calls.Load())

	recs := store.recordsOf("ann")
	require.Len(t, recs, 3)
	for i, r := range recs {
		assert.Equal(t, day(2025, time.March, 10+i), r.OccurredOn)
		assert.InDelta(t, 3.0, r.Co2Impact, 1e-9)
		require.NotNil(t, r.Recurrence)
		assert.Equal(t, 3, r.Recurrence.TimesPerWeek)
	}

	n, err = uc.Execute(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.EqualValues(t, 1, inv.calls.Load(), "nothing generated, nothing invalidated")

	clock.Advance(24 * time.Hour)
	n, err = uc.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, store.recordsOf("ann"), 4)
}

func TestMaterializeRecurring_FutureTemplateWaits(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	require.NoError(t, store.InsertRecurringTemplate(ctx, &domain.RecurringTemplate{
		ID:         "later",
		UserID:     "ann",
		StartOn:    day(2025, time.April, 1),
		Co2Impact:  1,
		Recurrence: domain.Recurrence{TimesPerWeek: 7},
	}))

	uc := usecase.NewMaterializeRecurringUsecase(store, newFakeClock(time.Date(2025, time.March, 12, 6, 0, 0, 0, time.UTC)),
		leaderboard.NewPeriodClock(time.UTC), nil, zerolog.Nop())

	n, err := uc.Execute(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMaterializeRecurring_RunStopsWithContext(t *testing.T) {
	store := newMemStore()
	uc := usecase.NewMaterializeRecurringUsecase(store, newFakeClock(time.Date(2025, time.March, 12, 6, 0, 0, 0, time.UTC)),
		leaderboard.NewPeriodClock(time.UTC), nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		uc.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
