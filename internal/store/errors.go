package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repositories when a record does not exist.
// It is the bare "absent" signal; services wrap it with entity context.
var ErrNotFound = errors.New("not found")

// NotFoundError is the service-level not-found failure. It carries the
// entity kind and identity so callers can surface a precise message.
type NotFoundError struct {
	Entity string
	ID     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id=%d does not exist.", e.Entity, e.ID)
}

// Is lets errors.Is(err, ErrNotFound) match wrapped service errors.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFound constructs a NotFoundError for the given entity and id.
func NewNotFound(entity string, id int) error {
	return &NotFoundError{Entity: entity, ID: id}
}
