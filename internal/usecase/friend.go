package usecase

import (
	"context"
	"fmt"

	"github.com/redchat/redchat/internal/domain"
)

// FriendRepository defines persistence for the directed friend graph.
type FriendRepository interface {
	CreatePair(ctx context.Context, userID, friendID string) error
	DeletePair(ctx context.Context, userID, friendID string) error
	HasEdge(ctx context.Context, fromID, toID string) (bool, error)
	ListFriends(ctx context.Context, userID string) ([]domain.User, error)
}

type FriendUsecase struct {
	friends FriendRepository
	users   UserRepository
}

func NewFriendUsecase(friends FriendRepository, users UserRepository) *FriendUsecase {
	return &FriendUsecase{friends: friends, users: users}
}

// Add creates the friendship as two directed edges. Both users must exist
// and must not already be friends.
func (uc *FriendUsecase) Add(ctx context.Context, userID, friendID string) error {
	if userID == friendID {
		return fmt.Errorf("users cannot befriend themselves")
	}

	if _, err := uc.users.GetByID(ctx, userID); err != nil {
		return err
	}
	if _, err := uc.users.GetByID(ctx, friendID); err != nil {
		return err
	}

	return uc.friends.CreatePair(ctx, userID, friendID)
}

// Remove deletes both directed edges. Either party may remove the
// friendship; a half-present one is reported as not found.
func (uc *FriendUsecase) Remove(ctx context.Context, userID, friendID string) error {
	return uc.friends.DeletePair(ctx, userID, friendID)
}

func (uc *FriendUsecase) List(ctx context.Context, userID string) ([]domain.User, error) {
	return uc.friends.ListFriends(ctx, userID)
}

// HasEdge reports whether the directed edge fromID->toID exists right now.
func (uc *FriendUsecase) HasEdge(ctx context.Context, fromID, toID string) (bool, error) {
	return uc.friends.HasEdge(ctx, fromID, toID)
}
