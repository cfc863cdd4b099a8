package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/fardannozami/ecotrace-leaderboard/internal/domain"
)

const defaultProfileCacheSize = 512

type cachedProfile struct {
	profile   domain.UserProfile
	timestamp time.Time
}

// UserDirectory caches profile lookups of another directory. A recompute
// denormalizes every known user, so without it each leaderboard read would
// hit the store once per participant.
type UserDirectory struct {
	next   domain.UserDirectory
	cache  *lru.Cache
	expiry time.Duration
	now    func() time.Time
}

// NewUserDirectory wraps next. A zero expiry keeps entries until evicted or
// invalidated.
func NewUserDirectory(next domain.UserDirectory, size int, expiry time.Duration) *UserDirectory {
	if size <= 0 {
		size = defaultProfileCacheSize
	}
	c, _ := lru.New(size)
	return &UserDirectory{next: next, cache: c, expiry: expiry, now: time.Now}
}

func (d *UserDirectory) GetUser(ctx context.Context, userID string) (domain.UserProfile, error) {
	if v, ok := d.cache.Get(userID); ok {
		entry := v.(cachedProfile)
		if d.expiry == 0 || d.now().Sub(entry.timestamp) < d.expiry {
			return entry.profile, nil
		}
		d.cache.Remove(userID)
	}

	profile, err := d.next.GetUser(ctx, userID)
	if err != nil {
		return domain.UserProfile{}, err
	}
	d.cache.Add(userID, cachedProfile{profile: profile, timestamp: d.now()})
	return profile, nil
}

// ListUserIDs is never cached so new users show up immediately.
func (d *UserDirectory) ListUserIDs(ctx context.Context) ([]string, error) {
	return d.next.ListUserIDs(ctx)
}

func (d *UserDirectory) Invalidate(userID string) {
	d.cache.Remove(userID)
}

func (d *UserDirectory) Purge() {
	d.cache.Purge()
}

func (d *UserDirectory) Len() int {
	return d.cache.Len()
}
