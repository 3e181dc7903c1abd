package types

import "time"

// TaskStatus enumerates the lifecycle states of a task. Transition
// ordering is not enforced; any enumerated value may be written at any
// time.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

// Valid reports whether s is one of the enumerated statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// TaskPriority enumerates task priorities.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Valid reports whether p is one of the enumerated priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents a unit of work owned by a user. Every task references
// an existing user at creation time.
type Task struct {
	// ID is the unique identifier of the task, assigned by the store.
	ID int `json:"task_id" db:"task_id"`

	// Name is the human-readable task name.
	Name string `json:"task_name" db:"task_name"`

	// UserID is the id of the owning user.
	UserID int `json:"user_id" db:"user_id"`

	// CreatedAt is the timestamp when the task was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Status is the lifecycle state, defaulting to "pending".
	Status TaskStatus `json:"status" db:"status"`

	// DueDate is the optional date the task is due.
	DueDate *time.Time `json:"due_date,omitempty" db:"due_date"`

	// Priority defaults to "medium".
	Priority TaskPriority `json:"priority" db:"priority"`
}
