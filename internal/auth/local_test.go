package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/go-ssohub/ssohub/internal/models"
	"github.com/go-ssohub/ssohub/internal/store"
)

func createLocalUser(t *testing.T, s *store.Store, email, password string, active bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     "alice",
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    "Alice",
		LastName:     "Smith",
		Department:   models.OrgFieldUnset,
		Team:         models.OrgFieldUnset,
		Supervisor:   models.OrgFieldUnset,
		Role:         models.RoleUser,
		IsActive:     active,
	}
	require.NoError(t, s.CreateUser(user))
	return user
}

func TestLocalProvider_Authenticate(t *testing.T) {
	s, err := store.New("sqlite", ":memory:")
	require.NoError(t, err)
	user := createLocalUser(t, s, "alice@example.com", "correct horse", true)

	provider := NewLocalProvider(s)
	result, err := provider.Authenticate(context.Background(), "alice@example.com", "correct horse")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, user.ID, result.UserID)
	assert.Equal(t, "alice", result.Username)
	assert.Equal(t, "Alice Smith", result.FullName)
}

func TestLocalProvider_WrongPassword(t *testing.T) {
	s, err := store.New("sqlite", ":memory:")
	require.NoError(t, err)
	createLocalUser(t, s, "alice@example.com", "correct horse", true)

	provider := NewLocalProvider(s)
	_, err = provider.Authenticate(context.Background(), "alice@example.com", "battery staple")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLocalProvider_UnknownEmail(t *testing.T) {
	s, err := store.New("sqlite", ":memory:")
	require.NoError(t, err)

	provider := NewLocalProvider(s)
	_, err = provider.Authenticate(context.Background(), "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLocalProvider_DisabledAccount(t *testing.T) {
	s, err := store.New("sqlite", ":memory:")
	require.NoError(t, err)
	createLocalUser(t, s, "alice@example.com", "correct horse", false)

	provider := NewLocalProvider(s)
	_, err = provider.Authenticate(context.Background(), "alice@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
