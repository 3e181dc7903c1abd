package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskman-io/apiserver/internal/store"
)

func TestUserService_Create(t *testing.T) {
	tests := []struct {
		name     string
		username string
		role     string
	}{
		{
			name:     "should create user with username and role",
			username: "john",
			role:     "admin",
		},
		{
			name:     "should accept empty username and role",
			username: "",
			role:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewUserService(newFakeUserRepo())

			user, err := service.Create(context.Background(), tt.username, tt.role)

			require.NoError(t, err)
			assert.Greater(t, user.ID, 0)
			assert.Equal(t, tt.username, user.Username)
			assert.Equal(t, tt.role, user.Role)
		})
	}
}

func TestUserService_Get(t *testing.T) {
	repo := newFakeUserRepo()
	service := NewUserService(repo)
	ctx := context.Background()

	created, err := service.Create(ctx, "john", "admin")
	require.NoError(t, err)

	t.Run("should return existing user", func(t *testing.T) {
		user, err := service.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, user)
	})

	t.Run("should fail with not found for unknown id", func(t *testing.T) {
		_, err := service.Get(ctx, 999)
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.Equal(t, "User with id=999 does not exist.", err.Error())
	})
}

func TestUserService_Update(t *testing.T) {
	username := "johnny"
	role := "user"

	tests := []struct {
		name           string
		patch          UserPatch
		wantUsername   string
		wantRole       string
		errorAssertion func(t *testing.T, err error)
	}{
		{
			name:         "should replace both fields",
			patch:        UserPatch{Username: &username, Role: &role},
			wantUsername: "johnny",
			wantRole:     "user",
		},
		{
			name:         "should keep unpatched fields",
			patch:        UserPatch{Username: &username},
			wantUsername: "johnny",
			wantRole:     "admin",
		},
		{
			name:  "should keep everything with empty patch",
			patch: UserPatch{},
			wantUsername: "john",
			wantRole:     "admin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewUserService(newFakeUserRepo())
			ctx := context.Background()

			created, err := service.Create(ctx, "john", "admin")
			require.NoError(t, err)

			updated, err := service.Update(ctx, created.ID, tt.patch)
			require.NoError(t, err)
			assert.Equal(t, tt.wantUsername, updated.Username)
			assert.Equal(t, tt.wantRole, updated.Role)

			// A later Get reflects the full replacement.
			fetched, err := service.Get(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, updated, fetched)
		})
	}

	t.Run("should fail with not found for unknown id", func(t *testing.T) {
		service := NewUserService(newFakeUserRepo())
		_, err := service.Update(context.Background(), 42, UserPatch{Username: &username})
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.Equal(t, "User with id=42 does not exist.", err.Error())
	})
}

func TestUserService_Delete(t *testing.T) {
	service := NewUserService(newFakeUserRepo())
	ctx := context.Background()

	created, err := service.Create(ctx, "john", "admin")
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, created.ID))

	// Delete followed by Get always yields not found.
	_, err = service.Get(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, "User with id=1 does not exist.", err.Error())

	err = service.Delete(ctx, created.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUserService_Exists(t *testing.T) {
	service := NewUserService(newFakeUserRepo())
	ctx := context.Background()

	created, err := service.Create(ctx, "john", "admin")
	require.NoError(t, err)

	exists, err := service.Exists(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = service.Exists(ctx, 999)
	require.NoError(t, err)
	assert.False(t, exists)
}
