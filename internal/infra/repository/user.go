package repository

import (
	"context"
	"errors"

	"github.com/bradfitz/gomemcache/memcache"
	"gorm.io/gorm"

	"github.com/redchat/redchat/internal/domain"
	"github.com/redchat/redchat/internal/infra/database/models"
)

const pubKeyCachePrefix = "pubkey:"

type UserRepository struct {
	db *gorm.DB
	mc *memcache.Client
}

func NewUserRepository(db *gorm.DB, mc *memcache.Client) *UserRepository {
	return &UserRepository{db: db, mc: mc}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	record := models.User{
		ID:           user.ID,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		PublicKey:    user.PublicKey,
	}

	err := r.db.WithContext(ctx).Create(&record).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ConflictError{Resource: "user"}
	}
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	var record models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, domain.NotFoundError{Resource: "user"}
	}
	if err != nil {
		return domain.User{}, err
	}
	return toDomainUser(record), nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	var record models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, domain.NotFoundError{Resource: "user"}
	}
	if err != nil {
		return domain.User{}, err
	}
	return toDomainUser(record), nil
}

func (r *UserRepository) ListUsernames(ctx context.Context) ([]string, error) {
	var usernames []string
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Order("username asc").
		Pluck("username", &usernames).Error
	return usernames, err
}

// GetPublicKey reads a user's published key through memcached. Entries
// never expire: keys are published once at registration and never rotate.
func (r *UserRepository) GetPublicKey(ctx context.Context, id string) (string, error) {
	cacheKey := pubKeyCachePrefix + id

	if r.mc != nil {
		item, err := r.mc.Get(cacheKey)
		if err == nil {
			return string(item.Value), nil
		}
	}

	var publicKey string
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Pluck("public_key", &publicKey).Error
	if err != nil {
		return "", err
	}
	if publicKey == "" {
		return "", domain.NotFoundError{Resource: "public key"}
	}

	if r.mc != nil {
		// best effort; a failed set only means another fetch later
		r.mc.Set(&memcache.Item{Key: cacheKey, Value: []byte(publicKey)})
	}

	return publicKey, nil
}

func toDomainUser(record models.User) domain.User {
	return domain.User{
		ID:           record.ID,
		Username:     record.Username,
		PasswordHash: record.PasswordHash,
		PublicKey:    record.PublicKey,
	}
}
