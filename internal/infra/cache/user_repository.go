package cache

import (
	"context"

	"github.com/fardannozami/ecotrace-leaderboard/internal/domain"
)

// UserRepository reads profiles through a UserDirectory and evicts the
// cached profile on every write, so renames show up on the next read.
type UserRepository struct {
	domain.UserRepository
	dir *UserDirectory
}

func NewUserRepository(next domain.UserRepository, dir *UserDirectory) *UserRepository {
	return &UserRepository{UserRepository: next, dir: dir}
}

func (r *UserRepository) GetUser(ctx context.Context, userID string) (domain.UserProfile, error) {
	return r.dir.GetUser(ctx, userID)
}

func (r *UserRepository) UpsertUser(ctx context.Context, user domain.UserProfile) error {
	defer r.dir.Invalidate(user.UserID)
	return r.UserRepository.UpsertUser(ctx, user)
}

func (r *UserRepository) EnsureUser(ctx context.Context, userID, username string) error {
	defer r.dir.Invalidate(userID)
	return r.UserRepository.EnsureUser(ctx, userID, username)
}
