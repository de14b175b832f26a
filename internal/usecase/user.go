package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/redchat/redchat/envelope"
	"github.com/redchat/redchat/internal/domain"
)

// UserRepository defines persistence/lookup for users and their published
// public keys.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	ListUsernames(ctx context.Context) ([]string, error)
	GetPublicKey(ctx context.Context, id string) (string, error)
}

type UserUsecase struct {
	repo UserRepository
}

func NewUserUsecase(repo UserRepository) *UserUsecase {
	return &UserUsecase{repo: repo}
}

// Register creates a user and publishes their public key in one step. The
// key is published exactly once; registering the same username again is a
// conflict, and there is no rotation path.
func (uc *UserUsecase) Register(ctx context.Context, username, password, publicKeyPEM string) (domain.User, error) {
	if username == "" || password == "" {
		return domain.User{}, fmt.Errorf("username and password are required")
	}

	if _, err := envelope.ParsePublicKey(publicKeyPEM); err != nil {
		return domain.User{}, errors.Wrap(err, "rejecting registration")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		PublicKey:    publicKeyPEM,
	}

	if err := uc.repo.Create(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Login checks credentials and returns the user. Wrong username and wrong
// password are indistinguishable to the caller.
func (uc *UserUsecase) Login(ctx context.Context, username, password string) (domain.User, error) {
	user, err := uc.repo.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (uc *UserUsecase) GetPublicKey(ctx context.Context, id string) (string, error) {
	return uc.repo.GetPublicKey(ctx, id)
}

func (uc *UserUsecase) ListUsernames(ctx context.Context) ([]string, error) {
	return uc.repo.ListUsernames(ctx)
}
