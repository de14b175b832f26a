package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/redchat/redchat/internal/domain"
	"github.com/redchat/redchat/jwt"
)

var tracer = otel.Tracer("auth")

const tokenLifetime = 24 * time.Hour

type AuthService struct {
	config domain.Config
}

func NewAuthService(config domain.Config) *AuthService {
	return &AuthService{
		config: config,
	}
}

type AuthResult struct {
	UserID string
}

// IssueToken creates a session token for a logged-in user. The token
// carries only the user id; no key material ever enters a token.
func (s *AuthService) IssueToken(ctx context.Context, userID string) (string, error) {
	_, span := tracer.Start(ctx, "Auth.Service.IssueToken")
	defer span.End()

	claims := jwt.Claims{
		Issuer:         s.config.JwtIssuer,
		Subject:        userID,
		Audience:       s.config.JwtIssuer,
		IssuedAt:       strconv.FormatInt(time.Now().Unix(), 10),
		ExpirationTime: strconv.FormatInt(time.Now().Add(tokenLifetime).Unix(), 10),
	}

	token, err := jwt.Create(claims, []byte(s.config.JwtSecret))
	if err != nil {
		span.RecordError(errors.Wrap(err, "token creation failed"))
		return "", err
	}
	return token, nil
}

// AuthToken validates a session token and resolves the requester identity.
func (s *AuthService) AuthToken(ctx context.Context, token string) (*AuthResult, error) {
	_, span := tracer.Start(ctx, "Auth.Service.AuthToken")
	defer span.End()

	_, claims, err := jwt.Validate(token, []byte(s.config.JwtSecret))
	if err != nil {
		span.RecordError(errors.Wrap(err, "jwt validation failed"))
		return nil, err
	}

	if claims.Audience != s.config.JwtIssuer {
		err := fmt.Errorf("jwt audience mismatch: expected %s, got %s", s.config.JwtIssuer, claims.Audience)
		span.RecordError(err)
		return nil, err
	}

	if claims.Subject == "" {
		err := fmt.Errorf("jwt subject missing")
		span.RecordError(err)
		return nil, err
	}

	return &AuthResult{UserID: claims.Subject}, nil
}
