package domain

import "time"

// Metric names used in violations and disqualification reasons.
const (
	MetricCo2         = "CO2"
	MetricWater       = "Water"
	MetricElectricity = "Electricity"
)

// Violation records one calendar day whose total exceeded a sanity ceiling.
type Violation struct {
	Day    time.Time
	Metric string
	Amount float64
	Limit  float64
}

// AggregatedUserImpact is a user's folded totals for one window. It is
// produced once per recompute and never mutated afterwards.
type AggregatedUserImpact struct {
	UserID           string
	Window           PeriodWindow
	TotalCo2         float64
	TotalWater       float64
	TotalElectricity float64
	DaysTracked      int
	IsValid          bool
	Violations       []Violation
}

// Eligibility is the outcome of evaluating an aggregate against its period.
type Eligibility struct {
	IsEligible             bool
	DaysRequired           int
	DisqualificationReason *string
}

// LeaderboardEntry is one row of a ranked leaderboard. Rank is 1-based among
// eligible and valid entries; 0 means unranked.
type LeaderboardEntry struct {
	UserID          string `json:"userId"`
	Username        string `json:"username"`
	FullName        string `json:"fullName"`
	AvatarColor     string `json:"avatarColor"`
	ProfileImageURL string `json:"profileImageUrl"`
	HasSolarPanels  bool   `json:"hasSolarPanels"`
	HasHeatPump     bool   `json:"hasHeatPump"`

	PeriodType  PeriodType `json:"periodType"`
	PeriodStart time.Time  `json:"periodStart"`
	PeriodEnd   time.Time  `json:"periodEnd"`

	TotalCo2         float64 `json:"totalCo2"`
	TotalWater       float64 `json:"totalWater"`
	TotalElectricity float64 `json:"totalElectricity"`

	DaysTracked            int     `json:"daysTracked"`
	DaysRequired           int     `json:"daysRequired"`
	IsEligible             bool    `json:"isEligible"`
	IsValid                bool    `json:"isValid"`
	DisqualificationReason *string `json:"disqualificationReason"`

	Rank int `json:"rank"`
}

// Ranked reports whether the entry takes part in the ordering.
func (e LeaderboardEntry) Ranked() bool {
	return e.IsEligible && e.IsValid
}

// TimeRemaining is a countdown split into whole units.
type TimeRemaining struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
}

// ResetCountdown is the time left until the current window of a period closes.
type ResetCountdown struct {
	PeriodType       PeriodType    `json:"periodType"`
	MillisUntilReset int64         `json:"millisUntilReset"`
	TimeRemaining    TimeRemaining `json:"timeRemaining"`
}
