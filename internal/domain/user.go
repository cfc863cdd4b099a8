package domain

import (
	"context"
	"time"
)

// UserProfile holds the display fields denormalized into leaderboard entries.
type UserProfile struct {
	UserID          string `json:"user_id" db:"user_id"`
	Username        string `json:"username" db:"username"`
	FullName        string `json:"full_name" db:"full_name"`
	AvatarColor     string `json:"avatar_color" db:"avatar_color"`
	ProfileImageURL string `json:"profile_image_url" db:"profile_image_url"`
	HasSolarPanels  bool   `json:"has_solar_panels" db:"has_solar_panels"`
	HasHeatPump     bool   `json:"has_heat_pump" db:"has_heat_pump"`
}

// DisplayName falls back to the username when no full name is set.
func (u UserProfile) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// UserDirectory resolves profiles. GetUser fails with ErrNotFound for unknown ids.
type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (UserProfile, error)
	ListUserIDs(ctx context.Context) ([]string, error)
}

type UserRepository interface {
	UserDirectory
	UpsertUser(ctx context.Context, user UserProfile) error
	EnsureUser(ctx context.Context, userID, username string) error
	ResolveLIDToPhone(ctx context.Context, lid string) string
}

// FriendDirectory returns the set of a user's friends. No friends is an empty set, not an error.
type FriendDirectory interface {
	GetFriendIDs(ctx context.Context, userID string) (map[string]struct{}, error)
}

type FriendRepository interface {
	FriendDirectory
	AddFriendship(ctx context.Context, userID, friendID string) error
}

type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)
