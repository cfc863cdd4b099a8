package domain

import (
	"strings"
	"time"
)

// PeriodType is the closed set of leaderboard periods.
type PeriodType int

const (
	PeriodDaily PeriodType = iota + 1
	PeriodWeekly
	PeriodMonthly
	PeriodYearly
)

// AllPeriodTypes lists every period in ascending window length.
var AllPeriodTypes = []PeriodType{PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly}

func (p PeriodType) String() string {
	switch p {
	case PeriodDaily:
		return "DAILY"
	case PeriodWeekly:
		return "WEEKLY"
	case PeriodMonthly:
		return "MONTHLY"
	case PeriodYearly:
		return "YEARLY"
	default:
		return "UNKNOWN"
	}
}

func (p PeriodType) Valid() bool {
	return p >= PeriodDaily && p <= PeriodYearly
}

// ParsePeriodType accepts the period name in any case.
func ParsePeriodType(s string) (PeriodType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DAILY":
		return PeriodDaily, nil
	case "WEEKLY":
		return PeriodWeekly, nil
	case "MONTHLY":
		return PeriodMonthly, nil
	case "YEARLY":
		return PeriodYearly, nil
	}
	return 0, ErrInvalidPeriod
}

func (p PeriodType) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, ErrInvalidPeriod
	}
	return []byte(p.String()), nil
}

func (p *PeriodType) UnmarshalText(b []byte) error {
	parsed, err := ParsePeriodType(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// PeriodWindow is the half-open interval [Start, End) of one period.
type PeriodWindow struct {
	Type  PeriodType `json:"periodType"`
	Start time.Time  `json:"start"`
	End   time.Time  `json:"end"`
}

func (w PeriodWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func (w PeriodWindow) Length() time.Duration {
	return w.End.Sub(w.Start)
}
