package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/go-ssohub/ssohub/internal/store"
)

// LocalProvider verifies credentials against the local user store.
type LocalProvider struct {
	store *store.Store
}

// NewLocalProvider creates a new local authentication provider
func NewLocalProvider(s *store.Store) *LocalProvider {
	return &LocalProvider{store: s}
}

// Authenticate looks up the user by email and compares the bcrypt hash.
// Disabled accounts fail the same way as unknown emails.
func (p *LocalProvider) Authenticate(
	ctx context.Context,
	email, password string,
) (*Result, error) {
	user, err := p.store.GetUserByEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(
		[]byte(user.PasswordHash),
		[]byte(password),
	); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &Result{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName(),
		Success:  true,
	}, nil
}

// Name returns provider name for logging
func (p *LocalProvider) Name() string {
	return "local"
}
