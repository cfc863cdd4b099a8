package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fardannozami/ecotrace-leaderboard/internal/domain"
)

func entry(user string, co2 float64, eligible, valid bool) domain.LeaderboardEntry {
	return domain.LeaderboardEntry{UserID: user, TotalCo2: co2, IsEligible: eligible, IsValid: valid}
}

func userIDs(entries []domain.LeaderboardEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.UserID
	}
	return ids
}

func ranks(entries []domain.LeaderboardEntry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Rank
	}
	return out
}

func TestRank_LowestImpactWins(t *testing.T) {
	got := Rank([]domain.LeaderboardEntry{
		entry("A", 5.0, true, true),
		entry("B", 3.0, true, true),
	})

	assert.Equal(t, []string{"B", "A"}, userIDs(got))
	assert.Equal(t, []int{1, 2}, ranks(got))
}

func TestRank_TiesBrokenByUserID(t *testing.T) {
	got := Rank([]domain.LeaderboardEntry{
		entry("carol", 2.0, true, true),
		entry("alice", 2.0, true, true),
		entry("bob", 2.0, true, true),
	})

	assert.Equal(t, []string{"alice", "bob", "carol"}, userIDs(got))
	assert.Equal(t, []int{1, 2, 3}, ranks(got))
}

func TestRank_UnrankedFollowWithZero(t *testing.T) {
	got := Rank([]domain.LeaderboardEntry{
		entry("zed", 0.5, false, true),  // too few days
		entry("amy", 9.0, true, true),
		entry("kim", 0.1, true, false),  // disqualified
		entry("bea", 4.0, true, true),
		entry("dan", 0.0, false, false),
	})

	assert.Equal(t, []string{"bea", "amy", "dan", "kim", "zed"}, userIDs(got))
	assert.Equal(t, []int{1, 2, 0, 0, 0}, ranks(got))
}

func TestRank_DeterministicAcrossInputOrders(t *testing.T) {
	base := []domain.LeaderboardEntry{
		entry("u1", 3.0, true, true),
		entry("u2", 1.0, true, true),
		entry("u3", 3.0, true, true),
		entry("u4", 2.0, false, true),
		entry("u5", 0.5, true, false),
	}
	want := Rank(base)

	var permute func(prefix, rest []domain.LeaderboardEntry)
	permute = func(prefix, rest []domain.LeaderboardEntry) {
		if len(rest) == 0 {
			require.Equal(t, want, Rank(prefix))
			return
		}
		for i := range rest {
			next := append(append([]domain.LeaderboardEntry{}, prefix...), rest[i])
			remaining := append(append([]domain.LeaderboardEntry{}, rest[:i]...), rest[i+1:]...)
			permute(next, remaining)
		}
	}
	permute(nil, base)

	// Ranked entries get 1..N with no gaps.
	assert.Equal(t, []int{1, 2, 3, 0, 0}, ranks(want))
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	in := []domain.LeaderboardEntry{entry("b", 2, true, true), entry("a", 1, true, true)}

	_ = Rank(in)

	assert.Equal(t, "b", in[0].UserID)
	assert.Zero(t, in[0].Rank)
}

func TestFriendsView_RanksLocally(t *testing.T) {
	all := Rank([]domain.LeaderboardEntry{
		entry("stranger", 0.5, true, true),
		entry("me", 4.0, true, true),
		entry("friend1", 2.0, true, true),
		entry("friend2", 1.0, false, true),
		entry("friend3", 6.0, true, true),
	})
	friends := map[string]struct{}{"friend1": {}, "friend2": {}, "friend3": {}, "ghost": {}}

	got := FriendsView(all, friends, "me")

	assert.Equal(t, []string{"friend1", "me", "friend3", "friend2"}, userIDs(got))
	assert.Equal(t, []int{1, 2, 3, 0}, ranks(got))

	// Relative order of the subset matches the unrestricted list.
	pos := map[string]int{}
	for i, e := range all {
		pos[e.UserID] = i
	}
	for i := 1; i < len(got); i++ {
		if got[i].Ranked() && got[i-1].Ranked() {
			assert.Less(t, pos[got[i-1].UserID], pos[got[i].UserID])
		}
	}
	for _, e := range got {
		_, isFriend := friends[e.UserID]
		assert.True(t, isFriend || e.UserID == "me")
	}
}

func TestFriendsView_NoFriends(t *testing.T) {
	all := []domain.LeaderboardEntry{entry("me", 1, true, true), entry("x", 0.5, true, true)}

	got := FriendsView(all, nil, "me")

	require.Len(t, got, 1)
	assert.Equal(t, "me", got[0].UserID)
	assert.Equal(t, 1, got[0].Rank)
}

func TestBuildEntry_DisplayFallback(t *testing.T) {
	w := weekWindow(t)
	agg := domain.AggregatedUserImpact{UserID: "u1", Window: w, TotalCo2: 6, DaysTracked: 3, IsValid: true}

	e := BuildEntry(agg, Evaluate(agg, domain.PeriodWeekly), domain.UserProfile{UserID: "u1", Username: "eco_viking", HasHeatPump: true})

	assert.Equal(t, "eco_viking", e.FullName)
	assert.True(t, e.HasHeatPump)
	assert.Equal(t, domain.PeriodWeekly, e.PeriodType)
	assert.True(t, e.PeriodStart.Equal(w.Start))
	assert.Equal(t, 7, e.DaysRequired)
	assert.Zero(t, e.Rank)
}
