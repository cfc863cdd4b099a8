package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fardannozami/ecotrace-leaderboard/internal/domain"
)

type countingDirectory struct {
	users map[string]domain.UserProfile
	calls map[string]int
}

func (c *countingDirectory) GetUser(_ context.Context, userID string) (domain.UserProfile, error) {
	c.calls[userID]++
	u, ok := c.users[userID]
	if !ok {
		return domain.UserProfile{}, domain.NotFound("user %s not found", userID)
	}
	return u, nil
}

func (c *countingDirectory) ListUserIDs(context.Context) ([]string, error) {
	var ids []string
	for id := range c.users {
		ids = append(ids, id)
	}
	return ids, nil
}

func newCounting() *countingDirectory {
	return &countingDirectory{
		users: map[string]domain.UserProfile{"u1": {UserID: "u1", Username: "alice"}},
		calls: map[string]int{},
	}
}

func TestUserDirectory_CachesHits(t *testing.T) {
	next := newCounting()
	dir := NewUserDirectory(next, 8, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		u, err := dir.GetUser(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "alice", u.Username)
	}
	assert.Equal(t, 1, next.calls["u1"])
	assert.Equal(t, 1, dir.Len())
}

func TestUserDirectory_DoesNotCacheMisses(t *testing.T) {
	next := newCounting()
	dir := NewUserDirectory(next, 8, 0)

	_, err := dir.GetUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = dir.GetUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, 2, next.calls["ghost"])
	assert.Zero(t, dir.Len())
}

func TestUserDirectory_Expiry(t *testing.T) {
	next := newCounting()
	dir := NewUserDirectory(next, 8, time.Minute)
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	dir.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := dir.GetUser(ctx, "u1")
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, _ = dir.GetUser(ctx, "u1")
	assert.Equal(t, 1, next.calls["u1"])

	now = now.Add(time.Minute)
	_, _ = dir.GetUser(ctx, "u1")
	assert.Equal(t, 2, next.calls["u1"])
}

func TestUserDirectory_Invalidate(t *testing.T) {
	next := newCounting()
	dir := NewUserDirectory(next, 8, 0)
	ctx := context.Background()

	_, _ = dir.GetUser(ctx, "u1")
	next.users["u1"] = domain.UserProfile{UserID: "u1", Username: "alice2"}
	dir.Invalidate("u1")

	u, err := dir.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice2", u.Username)

	dir.Purge()
	assert.Zero(t, dir.Len())
}
