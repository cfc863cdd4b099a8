package leaderboard

import (
	"sort"

	"github.com/fardannozami/ecotrace-leaderboard/internal/domain"
)

// BuildEntry assembles an unranked entry from an aggregate, its eligibility
// and the user's display profile.
func BuildEntry(agg domain.AggregatedUserImpact, elig domain.Eligibility, profile domain.UserProfile) domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		UserID:          agg.UserID,
		Username:        profile.Username,
		FullName:        profile.DisplayName(),
		AvatarColor:     profile.AvatarColor,
		ProfileImageURL: profile.ProfileImageURL,
		HasSolarPanels:  profile.HasSolarPanels,
		HasHeatPump:     profile.HasHeatPump,

		PeriodType:  agg.Window.Type,
		PeriodStart: agg.Window.Start,
		PeriodEnd:   agg.Window.End,

		TotalCo2:         agg.TotalCo2,
		TotalWater:       agg.TotalWater,
		TotalElectricity: agg.TotalElectricity,

		DaysTracked:            agg.DaysTracked,
		DaysRequired:           elig.DaysRequired,
		IsEligible:             elig.IsEligible,
		IsValid:                agg.IsValid,
		DisqualificationReason: elig.DisqualificationReason,
	}
}

// Rank orders entries by ascending CO2 with user id as tie-break. Eligible
// and valid entries get ranks 1..N; the rest follow in user id order with
// rank 0. The input slice is left untouched.
func Rank(entries []domain.LeaderboardEntry) []domain.LeaderboardEntry {
	var ranked, unranked []domain.LeaderboardEntry
	for _, e := range entries {
		if e.Ranked() {
			ranked = append(ranked, e)
		} else {
			unranked = append(unranked, e)
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalCo2 != ranked[j].TotalCo2 {
			return ranked[i].TotalCo2 < ranked[j].TotalCo2
		}
		return ranked[i].UserID < ranked[j].UserID
	})
	sort.Slice(unranked, func(i, j int) bool {
		return unranked[i].UserID < unranked[j].UserID
	})

	out := make([]domain.LeaderboardEntry, 0, len(entries))
	for i, e := range ranked {
		e.Rank = i + 1
		out = append(out, e)
	}
	for _, e := range unranked {
		e.Rank = 0
		out = append(out, e)
	}
	return out
}

// FriendsView keeps self and friends, then ranks that subset on its own.
func FriendsView(all []domain.LeaderboardEntry, friendIDs map[string]struct{}, selfUserID string) []domain.LeaderboardEntry {
	subset := make([]domain.LeaderboardEntry, 0, len(friendIDs)+1)
	for _, e := range all {
		if _, ok := friendIDs[e.UserID]; ok || e.UserID == selfUserID {
			subset = append(subset, e)
		}
	}
	return Rank(subset)
}
