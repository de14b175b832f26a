package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/redchat/redchat/internal/domain"
	"github.com/redchat/redchat/internal/infra/database/models"
)

type FriendRepository struct {
	db *gorm.DB
}

func NewFriendRepository(db *gorm.DB) *FriendRepository {
	return &FriendRepository{db: db}
}

// CreatePair inserts both directed edges of a friendship in one
// transaction. A duplicate in either direction aborts both.
func (r *FriendRepository) CreatePair(ctx context.Context, userID, friendID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		edges := []models.Friend{
			{UserID: userID, FriendID: friendID},
			{UserID: friendID, FriendID: userID},
		}
		for _, edge := range edges {
			if err := tx.Create(&edge).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return domain.ConflictError{Resource: "friendship"}
				}
				return err
			}
		}
		return nil
	})
}

// DeletePair removes both directed edges. Both must exist; a half-present
// friendship is treated as not found.
func (r *FriendRepository) DeletePair(ctx context.Context, userID, friendID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pairs := [][2]string{
			{userID, friendID},
			{friendID, userID},
		}
		for _, pair := range pairs {
			var edge models.Friend
			err := tx.Where("user_id = ? AND friend_id = ?", pair[0], pair[1]).Take(&edge).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundError{Resource: "friendship"}
			}
			if err != nil {
				return err
			}
		}
		for _, pair := range pairs {
			err := tx.Where("user_id = ? AND friend_id = ?", pair[0], pair[1]).
				Delete(&models.Friend{}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// HasEdge reports whether the directed edge from → to exists right now.
// The read is not atomic with any later write; a concurrent removal can
// race a send, which the relay accepts as documented behavior.
func (r *FriendRepository) HasEdge(ctx context.Context, fromID, toID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Friend{}).
		Where("user_id = ? AND friend_id = ?", fromID, toID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *FriendRepository) ListFriends(ctx context.Context, userID string) ([]domain.User, error) {
	var records []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN friends ON friends.friend_id = users.id").
		Where("friends.user_id = ?", userID).
		Order("users.username asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	friends := make([]domain.User, 0, len(records))
	for _, record := range records {
		friends = append(friends, toDomainUser(record))
	}
	return friends, nil
}
