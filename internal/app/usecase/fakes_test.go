package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fardannozami/ecotrace-leaderboard/internal/domain"
)

// memStore is an in-memory user, friend and activity repository.
type memStore struct {
	mu         sync.Mutex
	users      map[string]domain.UserProfile
	friends    map[string]map[string]struct{}
	activities []domain.ActivityRecord
	templates  map[string]*domain.RecurringTemplate
	nextID     int

	fetches atomic.Int64
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[string]domain.UserProfile),
		friends:   make(map[string]map[string]struct{}),
		templates: make(map[string]*domain.RecurringTemplate),
	}
}

func (m *memStore) addUser(id, fullName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = domain.UserProfile{UserID: id, Username: id, FullName: fullName}
}

func (m *memStore) log(userID string, day time.Time, co2 float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.activities = append(m.activities, domain.ActivityRecord{
		ID:         fmt.Sprintf("act-%d", m.nextID),
		UserID:     userID,
		OccurredOn: day,
		Co2Impact:  co2,
	})
}

func (m *memStore) GetUser(_ context.Context, userID string) (domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return domain.UserProfile{}, domain.NotFound("user %s not found", userID)
	}
	return u, nil
}

func (m *memStore) ListUserIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memStore) UpsertUser(_ context.Context, user domain.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.UserID] = user
	return nil
}

func (m *memStore) EnsureUser(_ context.Context, userID, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		u = domain.UserProfile{UserID: userID}
	}
	u.Username = username
	m.users[userID] = u
	return nil
}

func (m *memStore) ResolveLIDToPhone(_ context.Context, lid string) string {
	return lid
}

func (m *memStore) GetFriendIDs(_ context.Context, userID string) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]struct{})
	for id := range m.friends[userID] {
		out[id] = struct{}{}
	}
	return out, nil
}

func (m *memStore) AddFriendship(_ context.Context, userID, friendID string) error {
	if userID == friendID {
		return domain.Validation("cannot befriend yourself")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pair := range [][2]string{{userID, friendID}, {friendID, userID}} {
		if m.friends[pair[0]] == nil {
			m.friends[pair[0]] = make(map[string]struct{})
		}
		m.friends[pair[0]][pair[1]] = struct{}{}
	}
	return nil
}

func (m *memStore) FetchActivities(_ context.Context, userID string, from, to time.Time) ([]domain.ActivityRecord, error) {
	m.fetches.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ActivityRecord
	for _, a := range m.activities {
		if a.UserID == userID && !a.OccurredOn.Before(from) && a.OccurredOn.Before(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

// gatedStore holds every fetch until release is closed or the fetch's
// context ends.
type gatedStore struct {
	*memStore
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func newGatedStore(m *memStore) *gatedStore {
	return &gatedStore{memStore: m, started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedStore) FetchActivities(ctx context.Context, userID string, from, to time.Time) ([]domain.ActivityRecord, error) {
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.memStore.FetchActivities(ctx, userID, from, to)
}

func (m *memStore) InsertActivity(_ context.Context, record *domain.ActivityRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	if record.ID == "" {
		record.ID = fmt.Sprintf("act-%d", m.nextID)
	}
	m.activities = append(m.activities, *record)
	return nil
}

func (m *memStore) InsertRecurringTemplate(_ context.Context, tmpl *domain.RecurringTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	if tmpl.ID == "" {
		tmpl.ID = fmt.Sprintf("rec-%d", m.nextID)
	}
	cp := *tmpl
	m.templates[tmpl.ID] = &cp
	return nil
}

func (m *memStore) ListRecurringDue(_ context.Context, day time.Time) ([]*domain.RecurringTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.RecurringTemplate
	for _, t := range m.templates {
		if t.StartOn.After(day) {
			continue
		}
		if !t.LastGeneratedOn.IsZero() && !t.LastGeneratedOn.Before(day) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) SaveOccurrences(_ context.Context, tmpl *domain.RecurringTemplate, occurrences []domain.ActivityRecord, through time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	for _, a := range m.activities {
		if a.SourceRecurringID == tmpl.ID {
			seen[a.OccurredOn.Format(time.DateOnly)] = true
		}
	}
	for _, occ := range occurrences {
		key := occ.OccurredOn.Format(time.DateOnly)
		if seen[key] {
			continue
		}
		seen[key] = true
		m.nextID++
		occ.ID = fmt.Sprintf("occ-%d", m.nextID)
		m.activities = append(m.activities, occ)
	}
	m.templates[tmpl.ID].LastGeneratedOn = through
	return nil
}

func (m *memStore) recordsOf(userID string) []domain.ActivityRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ActivityRecord
	for _, a := range m.activities {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type countingInvalidator struct {
	calls atomic.Int64
}

func (c *countingInvalidator) Invalidate() {
	c.calls.Add(1)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
