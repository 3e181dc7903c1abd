package services

import (
	"context"
	"errors"

	"github.com/taskman-io/apiserver/internal/store"
	"github.com/taskman-io/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user types.User) (types.User, error)
	GetByID(ctx context.Context, id int) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id int) error
}

// UserPatch holds the optional fields of a user update. Nil fields keep
// their current value.
type UserPatch struct {
	Username *string
	Role     *string
}

// UserService encapsulates user lifecycle rules. It translates the
// repository's bare not-found signal into entity-specific errors.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Create inserts a new user. Username and role are accepted as-is; the
// store is the sole source of truth for their values.
func (s *UserService) Create(ctx context.Context, username, role string) (types.User, error) {
	return s.repo.Create(ctx, types.User{
		Username: username,
		Role:     role,
	})
}

// Get returns the user with the given id.
func (s *UserService) Get(ctx context.Context, id int) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, store.NewNotFound("User", id)
		}
		return types.User{}, err
	}
	return user, nil
}

// Update fetches a snapshot of the user, applies the patch to a new
// value, and persists the result by full-record replace.
func (s *UserService) Update(ctx context.Context, id int, patch UserPatch) (types.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return types.User{}, err
	}

	if patch.Username != nil {
		user.Username = *patch.Username
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, store.NewNotFound("User", id)
		}
		return types.User{}, err
	}
	return updated, nil
}

// Delete removes the user. Deleting a user that still owns tasks is
// blocked by the store's foreign key and surfaces as a store failure.
func (s *UserService) Delete(ctx context.Context, id int) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Exists reports whether the user id is known to the store. This is the
// narrow capability the task service depends on for its cross-entity
// check.
func (s *UserService) Exists(ctx context.Context, id int) (bool, error) {
	_, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
