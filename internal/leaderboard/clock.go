// Package leaderboard holds the pure stages of the periodic impact
// leaderboard: period windows, aggregation, eligibility and ranking.
// Nothing here performs I/O or reads the wall clock.
package leaderboard

import (
	"time"
	_ "time/tzdata"

	"github.com/fardannozami/ecotrace-leaderboard/internal/domain"
)

// WindowFor returns the window of period p containing ref, with boundaries at
// local midnight in loc. Weeks start on Monday.
func WindowFor(p domain.PeriodType, ref time.Time, loc *time.Location) (domain.PeriodWindow, error) {
	if loc == nil {
		loc = time.UTC
	}
	t := ref.In(loc)
	y, m, d := t.Date()

	var start, end time.Time
	switch p {
	case domain.PeriodDaily:
		start = time.Date(y, m, d, 0, 0, 0, 0, loc)
		end = time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	case domain.PeriodWeekly:
		sinceMonday := (int(t.Weekday()) + 6) % 7
		start = time.Date(y, m, d-sinceMonday, 0, 0, 0, 0, loc)
		end = time.Date(y, m, d-sinceMonday+7, 0, 0, 0, 0, loc)
	case domain.PeriodMonthly:
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		end = time.Date(y, m+1, 1, 0, 0, 0, 0, loc)
	case domain.PeriodYearly:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		end = time.Date(y+1, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return domain.PeriodWindow{}, domain.ErrInvalidPeriod
	}

	return domain.PeriodWindow{Type: p, Start: start, End: end}, nil
}

// TimeUntilNext returns the countdown from ref to the end of its window.
func TimeUntilNext(p domain.PeriodType, ref time.Time, loc *time.Location) (domain.ResetCountdown, error) {
	w, err := WindowFor(p, ref, loc)
	if err != nil {
		return domain.ResetCountdown{}, err
	}
	return countdown(w, ref)
}

func countdown(w domain.PeriodWindow, ref time.Time) (domain.ResetCountdown, error) {
	if !w.Contains(ref) {
		return domain.ResetCountdown{}, domain.InvalidReference("%s not within %s window [%s, %s)",
			ref.Format(time.RFC3339), w.Type, w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}

	millis := w.End.Sub(ref).Milliseconds()
	totalSeconds := millis / 1000

	return domain.ResetCountdown{
		PeriodType:       w.Type,
		MillisUntilReset: millis,
		TimeRemaining: domain.TimeRemaining{
			Days:    totalSeconds / (24 * 3600),
			Hours:   (totalSeconds % (24 * 3600)) / 3600,
			Minutes: (totalSeconds % 3600) / 60,
			Seconds: totalSeconds % 60,
		},
	}, nil
}

// DaysRequired is the number of tracked days needed for eligibility: every
// calendar day of the window.
func DaysRequired(p domain.PeriodType, w domain.PeriodWindow) int {
	switch p {
	case domain.PeriodDaily:
		return 1
	case domain.PeriodWeekly:
		return 7
	case domain.PeriodMonthly, domain.PeriodYearly:
		return calendarDays(w.Start, w.End)
	default:
		return 1
	}
}

// calendarDays counts dates in [start, end) independent of DST shifts.
func calendarDays(start, end time.Time) int {
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	from := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	to := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// PeriodClock binds WindowFor and TimeUntilNext to one configured location.
type PeriodClock struct {
	loc *time.Location
}

func NewPeriodClock(loc *time.Location) *PeriodClock {
	if loc == nil {
		loc = time.UTC
	}
	return &PeriodClock{loc: loc}
}

func (c *PeriodClock) Location() *time.Location {
	return c.loc
}

func (c *PeriodClock) WindowFor(p domain.PeriodType, ref time.Time) (domain.PeriodWindow, error) {
	return WindowFor(p, ref, c.loc)
}

func (c *PeriodClock) TimeUntilNext(p domain.PeriodType, ref time.Time) (domain.ResetCountdown, error) {
	return TimeUntilNext(p, ref, c.loc)
}

// DayOf returns local midnight of t's calendar date in the clock's location.
func (c *PeriodClock) DayOf(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}
