package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/fardannozami/ecotrace-leaderboard/internal/domain"
)

var avatarPalette = []string{
	"#10B981", "#6366F1", "#F59E0B", "#EC4899", "#8B5CF6", "#14B8A6",
	"#F43F5E", "#22C55E", "#3B82F6", "#EAB308", "#06B6D4", "#A855F7",
}

// AvatarColor picks a stable palette color for a user id.
func AvatarColor(userID string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return avatarPalette[h.Sum32()%uint32(len(avatarPalette))]
}

// UserRepository is the user and friendship directory.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) InitTable(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			full_name TEXT NOT NULL DEFAULT '',
			avatar_color TEXT NOT NULL DEFAULT '',
			profile_image_url TEXT NOT NULL DEFAULT '',
			has_solar_panels INTEGER NOT NULL DEFAULT 0,
			has_heat_pump INTEGER NOT NULL DEFAULT 0,
			created_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS friendships (
			user_id TEXT NOT NULL,
			friend_id TEXT NOT NULL,
			created_at TEXT,
			PRIMARY KEY (user_id, friend_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init user tables: %w", err)
		}
	}
	return nil
}

func (r *UserRepository) GetUser(ctx context.Context, userID string) (domain.UserProfile, error) {
	query := `
		SELECT user_id, username, full_name, avatar_color, profile_image_url, has_solar_panels, has_heat_pump
		FROM users WHERE user_id = ?
	`
	var u domain.UserProfile
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&u.UserID, &u.Username, &u.FullName, &u.AvatarColor, &u.ProfileImageURL, &u.HasSolarPanels, &u.HasHeatPump)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UserProfile{}, domain.NotFound("user %s not found", userID)
	}
	if err != nil {
		return domain.UserProfile{}, err
	}
	return u, nil
}

func (r *UserRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id FROM users ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpsertUser writes every profile field.
func (r *UserRepository) UpsertUser(ctx context.Context, u domain.UserProfile) error {
	if u.AvatarColor == "" {
		u.AvatarColor = AvatarColor(u.UserID)
	}
	query := `
		INSERT INTO users (user_id, username, full_name, avatar_color, profile_image_url, has_solar_panels, has_heat_pump, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			full_name = excluded.full_name,
			avatar_color = excluded.avatar_color,
			profile_image_url = excluded.profile_image_url,
			has_solar_panels = excluded.has_solar_panels,
			has_heat_pump = excluded.has_heat_pump
	`
	_, err := r.db.ExecContext(ctx, query, u.UserID, u.Username, u.FullName, u.AvatarColor, u.ProfileImageURL,
		u.HasSolarPanels, u.HasHeatPump, time.Now().UTC().Format(time.RFC3339))
	return err
}

// EnsureUser registers a chat user on first contact and keeps the username
// current afterwards, leaving the rest of the profile alone.
func (r *UserRepository) EnsureUser(ctx context.Context, userID, username string) error {
	query := `
		INSERT INTO users (user_id, username, avatar_color, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET username = excluded.username
	`
	_, err := r.db.ExecContext(ctx, query, userID, username, AvatarColor(userID), time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetFriendIDs treats a friendship row as mutual.
func (r *UserRepository) GetFriendIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	query := `
		SELECT friend_id FROM friendships WHERE user_id = ?
		UNION
		SELECT user_id FROM friendships WHERE friend_id = ?
	`
	rows, err := r.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	friends := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		friends[id] = struct{}{}
	}
	return friends, rows.Err()
}

func (r *UserRepository) AddFriendship(ctx context.Context, userID, friendID string) error {
	if userID == friendID {
		return domain.Validation("cannot befriend yourself")
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO friendships (user_id, friend_id, created_at) VALUES (?, ?, ?)`,
		userID, friendID, time.Now().UTC().Format(time.RFC3339))
	return err
}

// ResolveLIDToPhone maps a WhatsApp LID to the phone number whatsmeow learned
// for it, returning lid unchanged when no mapping exists.
func (r *UserRepository) ResolveLIDToPhone(ctx context.Context, lid string) string {
	var pn string
	err := r.db.QueryRowContext(ctx, `SELECT pn FROM whatsmeow_lid_map WHERE lid = ?`, lid).Scan(&pn)
	if err != nil || pn == "" {
		return lid
	}
	return pn
}
