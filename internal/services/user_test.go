package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/go-ssohub/ssohub/internal/models"
	"github.com/go-ssohub/ssohub/internal/store"
)

func TestCreateUserValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		req  CreateUserRequest
		want error
	}{
		{
			name: "missing fields",
			req:  CreateUserRequest{Username: "bob"},
			want: ErrUserDataRequired,
		},
		{
			name: "bad email",
			req: CreateUserRequest{
				Username: "bob",
				Email:    "not-an-email",
				Password: "secret1",
			},
			want: ErrInvalidEmail,
		},
		{
			name: "weak password",
			req: CreateUserRequest{
				Username: "bob",
				Email:    "bob@example.com",
				Password: "short",
			},
			want: ErrWeakPassword,
		},
		{
			name: "bad role",
			req: CreateUserRequest{
				Username: "bob",
				Email:    "bob@example.com",
				Password: "secret1",
				Role:     "superuser",
			},
			want: ErrInvalidRole,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.users.CreateUser(tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateUserDefaults(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.users.CreateUser(CreateUserRequest{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "secret1",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleUser, user.Role)
	assert.True(t, user.IsActive)
	assert.Equal(t, models.OrgFieldUnset, user.Department)
	assert.Equal(t, models.OrgFieldUnset, user.Team)
	assert.Equal(t, models.OrgFieldUnset, user.Supervisor)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))
}

func TestCreateUserDuplicates(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.users.CreateUser(CreateUserRequest{
		Username: "bob", Email: "bob@example.com", Password: "secret1",
	})
	require.NoError(t, err)

	_, err = env.users.CreateUser(CreateUserRequest{
		Username: "bob2", Email: "bob@example.com", Password: "secret1",
	})
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = env.users.CreateUser(CreateUserRequest{
		Username: "bob", Email: "other@example.com", Password: "secret1",
	})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestUpdateUserSelfProtection(t *testing.T) {
	env := newTestEnv(t)

	admin, err := env.users.CreateUser(CreateUserRequest{
		Username: "root", Email: "root@example.com", Password: "secret1",
		Role: models.RoleAdmin,
	})
	require.NoError(t, err)

	t.Run("cannot demote own admin role", func(t *testing.T) {
		role := models.RoleUser
		_, err := env.users.UpdateUser(admin.ID, admin.ID, UpdateUserRequest{Role: &role})
		assert.ErrorIs(t, err, ErrCannotRemoveOwnAdmin)
	})

	t.Run("another admin may demote", func(t *testing.T) {
		role := models.RoleUser
		updated, err := env.users.UpdateUser(admin.ID, "someone-else", UpdateUserRequest{Role: &role})
		require.NoError(t, err)
		assert.Equal(t, models.RoleUser, updated.Role)

		// restore
		roleAdmin := models.RoleAdmin
		_, err = env.users.UpdateUser(admin.ID, "someone-else", UpdateUserRequest{Role: &roleAdmin})
		require.NoError(t, err)
	})

	t.Run("cannot delete self", func(t *testing.T) {
		err := env.users.DeleteUser(admin.ID, admin.ID)
		assert.ErrorIs(t, err, ErrCannotDeleteSelf)
	})

	t.Run("another actor may delete", func(t *testing.T) {
		victim, err := env.users.CreateUser(CreateUserRequest{
			Username: "victim", Email: "victim@example.com", Password: "secret1",
		})
		require.NoError(t, err)
		require.NoError(t, env.users.DeleteUser(victim.ID, admin.ID))
		_, err = env.users.GetUser(victim.ID)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUpdateUserPartial(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.users.CreateUser(CreateUserRequest{
		Username: "bob", Email: "bob@example.com", Password: "secret1",
		Department: "Engineering",
	})
	require.NoError(t, err)

	dept := "Platform"
	updated, err := env.users.UpdateUser(user.ID, "admin-actor", UpdateUserRequest{Department: &dept})
	require.NoError(t, err)
	assert.Equal(t, "Platform", updated.Department)
	assert.Equal(t, "bob@example.com", updated.Email)

	// Clearing an organization field restores the sentinel.
	empty := ""
	updated, err = env.users.UpdateUser(user.ID, "admin-actor", UpdateUserRequest{Department: &empty})
	require.NoError(t, err)
	assert.Equal(t, models.OrgFieldUnset, updated.Department)

	weak := "123"
	_, err = env.users.UpdateUser(user.ID, "admin-actor", UpdateUserRequest{Password: &weak})
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestUserStats(t *testing.T) {
	env := newTestEnv(t)

	// The seeded admin plus two created users.
	_, err := env.users.CreateUser(CreateUserRequest{
		Username: "bob", Email: "bob@example.com", Password: "secret1",
	})
	require.NoError(t, err)
	inactive := false
	_, err = env.users.CreateUser(CreateUserRequest{
		Username: "carol", Email: "carol@example.com", Password: "secret1",
		IsActive: &inactive,
	})
	require.NoError(t, err)

	stats, err := env.users.GetUserStats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Active)
	assert.Equal(t, int64(1), stats.Admins)

	users, page, err := env.users.ListUsers(store.NewPaginationParams(1, 10, "carol"), "")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "carol@example.com", users[0].Email)
	assert.Equal(t, int64(1), page.Total)
}
