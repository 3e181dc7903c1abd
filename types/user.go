package types

import "time"

// User represents an account that owns tasks.
type User struct {
	// ID is the unique identifier of the user, assigned by the store
	// on creation.
	ID int `json:"id" db:"id"`

	// Username is the login or display name. The core performs no
	// format or uniqueness validation; the store is the source of truth.
	Username string `json:"username" db:"username"`

	// Role indicates the user's role within the system
	// (e.g., "admin", "user").
	Role string `json:"role" db:"role"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
