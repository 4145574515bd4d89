// leaderboard/service/auth_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/playhive/leaderboard-service/leaderboard/auth"
	"github.com/playhive/leaderboard-service/leaderboard/store"
	"github.com/playhive/leaderboard-service/shared/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// AuthService handles registration and login.
type AuthService struct {
	users     *store.UserStore
	passwords *auth.PasswordHasher
	tokens    *auth.TokenManager
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(us *store.UserStore, ph *auth.PasswordHasher, tm *auth.TokenManager) *AuthService {
	return &AuthService{
		users:     us,
		passwords: ph,
		tokens:    tm,
	}
}

// Register creates a user, storing only the salted password hash. A taken
// username yields ErrUserExists and leaves the existing record untouched.
func (s *AuthService) Register(ctx context.Context, username, password string) error {
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return fmt.Errorf("service failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateUser) {
			return ErrUserExists
		}
		return fmt.Errorf("service failed to create user: %w", err)
	}
	return nil
}

// Login verifies credentials and issues a signed, time-limited token. An
// unknown username and a wrong password both return ErrInvalidCredentials —
// the caller must not be able to tell which it was.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("service failed to look up user: %w", err)
	}

	if !s.passwords.Compare(user.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return "", fmt.Errorf("service failed to sign token: %w", err)
	}
	return token, nil
}
