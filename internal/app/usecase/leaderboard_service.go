package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/fardannozami/ecotrace-leaderboard/internal/domain"
	"github.com/fardannozami/ecotrace-leaderboard/internal/leaderboard"
)

const defaultFetchConcurrency = 8

type LeaderboardOptions struct {
	Location *time.Location
	Limits   leaderboard.Limits
	// CacheTTL bounds how long a computed leaderboard is served. Zero
	// recomputes on every call.
	CacheTTL         time.Duration
	FetchConcurrency int
	Logger           zerolog.Logger
}

// snapshot is one complete ranked computation. It is never modified after
// being published.
type snapshot struct {
	window     domain.PeriodWindow
	entries    []domain.LeaderboardEntry
	computedAt time.Time
}

// LeaderboardService serves ranked leaderboards, single entries and reset
// countdowns. All I/O happens while gathering inputs; ranking itself runs on
// the pure stages in package leaderboard.
type LeaderboardService struct {
	activities domain.ActivityStore
	users      domain.UserDirectory
	friends    domain.FriendDirectory
	clock      domain.Clock
	periods    *leaderboard.PeriodClock
	aggregator *leaderboard.Aggregator

	cacheTTL    time.Duration
	concurrency int
	log         zerolog.Logger

	snapshots  [domain.PeriodYearly + 1]atomic.Pointer[snapshot]
	generation atomic.Uint64
	group      singleflight.Group
}

func NewLeaderboardService(
	activities domain.ActivityStore,
	users domain.UserDirectory,
	friends domain.FriendDirectory,
	clock domain.Clock,
	opts LeaderboardOptions,
) *LeaderboardService {
	if clock == nil {
		clock = domain.SystemClock
	}
	if opts.FetchConcurrency <= 0 {
		opts.FetchConcurrency = defaultFetchConcurrency
	}
	return &LeaderboardService{
		activities:  activities,
		users:       users,
		friends:     friends,
		clock:       clock,
		periods:     leaderboard.NewPeriodClock(opts.Location),
		aggregator:  leaderboard.NewAggregator(opts.Limits),
		cacheTTL:    opts.CacheTTL,
		concurrency: opts.FetchConcurrency,
		log:         opts.Logger,
	}
}

// GetLeaderboard returns every known user's entry for the current window of p,
// ranked entries first.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, p domain.PeriodType) ([]domain.LeaderboardEntry, error) {
	snap, err := s.current(ctx, p, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return append([]domain.LeaderboardEntry(nil), snap.entries...), nil
}

// GetLeaderboardForUserAndFriends ranks userID and their friends among
// themselves. Friend ids missing from the user directory are skipped.
func (s *LeaderboardService) GetLeaderboardForUserAndFriends(ctx context.Context, userID string, p domain.PeriodType) ([]domain.LeaderboardEntry, error) {
	if !p.Valid() {
		return nil, domain.ErrInvalidPeriod
	}
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	friendIDs, err := s.friends.GetFriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get friends of %s: %w", userID, err)
	}

	snap, err := s.current(ctx, p, s.clock.Now())
	if err != nil {
		return nil, err
	}

	present := make(map[string]struct{}, len(snap.entries))
	for _, e := range snap.entries {
		present[e.UserID] = struct{}{}
	}

	all := snap.entries
	wanted := make([]string, 0, len(friendIDs)+1)
	wanted = append(wanted, userID)
	for id := range friendIDs {
		wanted = append(wanted, id)
	}
	for _, id := range wanted {
		if _, ok := present[id]; ok {
			continue
		}
		// Registered after the snapshot was taken.
		e, err := s.buildEntry(ctx, snap.window, id)
		if errors.Is(err, domain.ErrNotFound) && id != userID {
			continue
		}
		if err != nil {
			return nil, err
		}
		all = append(append([]domain.LeaderboardEntry(nil), all...), e)
		present[id] = struct{}{}
	}

	return leaderboard.FriendsView(all, friendIDs, userID), nil
}

// GetUserEntry returns the user's entry for the current window. A known user
// without activity gets a zero entry; an unknown user is ErrNotFound.
func (s *LeaderboardService) GetUserEntry(ctx context.Context, userID string, p domain.PeriodType) (domain.LeaderboardEntry, error) {
	if !p.Valid() {
		return domain.LeaderboardEntry{}, domain.ErrInvalidPeriod
	}
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return domain.LeaderboardEntry{}, err
	}

	now := s.clock.Now()
	snap, err := s.current(ctx, p, now)
	if err != nil {
		return domain.LeaderboardEntry{}, err
	}
	if e, ok := findEntry(snap.entries, userID); ok {
		return e, nil
	}

	// The snapshot predates this user; rank them against it without
	// dropping what is cached.
	e, err := s.buildEntry(ctx, snap.window, userID)
	if err != nil {
		return domain.LeaderboardEntry{}, err
	}
	ranked := leaderboard.Rank(append(append([]domain.LeaderboardEntry(nil), snap.entries...), e))
	if e, ok := findEntry(ranked, userID); ok {
		return e, nil
	}
	return domain.LeaderboardEntry{}, domain.NotFound("user %s has no %s entry", userID, p)
}

// GetTimeUntilReset returns the countdown to the end of p's current window.
func (s *LeaderboardService) GetTimeUntilReset(_ context.Context, p domain.PeriodType) (domain.ResetCountdown, error) {
	return s.periods.TimeUntilNext(p, s.clock.Now())
}

// CurrentWindow returns the window of p containing now.
func (s *LeaderboardService) CurrentWindow(p domain.PeriodType) (domain.PeriodWindow, error) {
	return s.periods.WindowFor(p, s.clock.Now())
}

// Recalculate drops cached leaderboards so the user's next read reflects
// their latest activity.
func (s *LeaderboardService) Recalculate(ctx context.Context, userID string) error {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

// Invalidate drops every cached snapshot. Computations already in flight
// still answer their callers but are not cached.
func (s *LeaderboardService) Invalidate() {
	s.generation.Add(1)
	for i := range s.snapshots {
		s.snapshots[i].Store(nil)
	}
}

func (s *LeaderboardService) current(ctx context.Context, p domain.PeriodType, now time.Time) (*snapshot, error) {
	w, err := s.periods.WindowFor(p, now)
	if err != nil {
		return nil, err
	}
	if snap := s.snapshots[p].Load(); s.fresh(snap, w, now) {
		return snap, nil
	}

	// Callers only share a computation for the same window and cache
	// generation, so a shared result always covers the caller's now.
	gen := s.generation.Load()
	key := p.String() + "/" + strconv.FormatInt(w.Start.Unix(), 10) + "/" + strconv.FormatUint(gen, 10)

	// The shared computation outlives any single caller; each caller only
	// stops waiting when its own context ends.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		snap, err := s.compute(shared, w, now)
		if err != nil {
			return nil, err
		}
		if s.generation.Load() == gen {
			s.snapshots[p].Store(snap)
		}
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*snapshot), nil
	}
}

func (s *LeaderboardService) fresh(snap *snapshot, w domain.PeriodWindow, now time.Time) bool {
	if snap == nil || s.cacheTTL <= 0 {
		return false
	}
	return snap.window.Start.Equal(w.Start) &&
		now.Before(snap.window.End) &&
		now.Sub(snap.computedAt) < s.cacheTTL
}

func (s *LeaderboardService) compute(ctx context.Context, w domain.PeriodWindow, now time.Time) (*snapshot, error) {
	started := time.Now()

	ids, err := s.users.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			e, err := s.buildEntry(gctx, w, id)
			if err != nil {
				return err
			}
			entries[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ranked := leaderboard.Rank(entries)

	s.log.Debug().
		Str("period", w.Type.String()).
		Time("window_start", w.Start).
		Int("participants", len(ranked)).
		Dur("took", time.Since(started)).
		Msg("leaderboard recomputed")

	return &snapshot{window: w, entries: ranked, computedAt: now}, nil
}

func (s *LeaderboardService) buildEntry(ctx context.Context, w domain.PeriodWindow, userID string) (domain.LeaderboardEntry, error) {
	profile, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return domain.LeaderboardEntry{}, err
	}
	records, err := s.activities.FetchActivities(ctx, userID, w.Start, w.End)
	if err != nil {
		return domain.LeaderboardEntry{}, fmt.Errorf("fetch activities of %s: %w", userID, err)
	}
	agg, err := s.aggregator.Aggregate(userID, w, records)
	if err != nil {
		return domain.LeaderboardEntry{}, err
	}
	return leaderboard.BuildEntry(agg, leaderboard.Evaluate(agg, w.Type), profile), nil
}

func findEntry(entries []domain.LeaderboardEntry, userID string) (domain.LeaderboardEntry, bool) {
	for _, e := range entries {
		if e.UserID == userID {
			return e, true
		}
	}
	return domain.LeaderboardEntry{}, false
}
