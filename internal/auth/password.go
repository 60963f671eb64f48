// Package auth implements credential checks and JWT sessions. It
// replaces the device-fingerprint login heuristics of earlier iterations
// with bcrypt-hashed passwords; nothing here trusts the client.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/uestliguci/LifestyleCalculator/internal/core"
	"github.com/uestliguci/LifestyleCalculator/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmptyUsername      = errors.New("username must not be empty")
)

// Authenticator verifies and registers users against a UserStore.
type Authenticator struct {
	users storage.UserStore
}

func NewAuthenticator(users storage.UserStore) *Authenticator {
	return &Authenticator{users: users}
}

// Register creates an account with a bcrypt-hashed password.
func (a *Authenticator) Register(ctx context.Context, username, password string) (*storage.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrEmptyUsername
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &storage.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    core.Now(),
	}
	if err := a.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies username and password, returning the user when
// valid. Unknown user and wrong password are indistinguishable to the
// caller.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*storage.User, error) {
	user, err := a.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
