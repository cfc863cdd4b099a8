package usecase

import (
	"context"
	"fmt"

	"github.com/fardannozami/ecotrace-leaderboard/internal/domain"
)

type AddFriendUsecase struct {
	users   domain.UserRepository
	friends domain.FriendRepository
}

func NewAddFriendUsecase(users domain.UserRepository, friends domain.FriendRepository) *AddFriendUsecase {
	return &AddFriendUsecase{users: users, friends: friends}
}

// Execute links userID and friendID. The friend must already be known.
func (uc *AddFriendUsecase) Execute(ctx context.Context, userID, name, friendID string) (domain.UserProfile, error) {
	if err := uc.users.EnsureUser(ctx, userID, name); err != nil {
		return domain.UserProfile{}, fmt.Errorf("ensure user %s: %w", userID, err)
	}
	friend, err := uc.users.GetUser(ctx, friendID)
	if err != nil {
		return domain.UserProfile{}, err
	}
	if err := uc.friends.AddFriendship(ctx, userID, friendID); err != nil {
		return domain.UserProfile{}, err
	}
	return friend, nil
}
