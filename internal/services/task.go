package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskman-io/apiserver/internal/events"
	"github.com/taskman-io/apiserver/internal/store"
	"github.com/taskman-io/apiserver/types"
)

// ErrInvalidField is returned when a status or priority value is outside
// its enumeration.
var ErrInvalidField = errors.New("invalid field value")

// TaskRepository defines persistence operations for tasks.
type TaskRepository interface {
	Create(ctx context.Context, task types.Task) (types.Task, error)
	ListForUser(ctx context.Context, userID int) ([]types.Task, error)
	GetByID(ctx context.Context, taskID, userID int) (types.Task, error)
	GetAny(ctx context.Context, taskID int) (types.Task, error)
	Update(ctx context.Context, task types.Task) (types.Task, error)
	Delete(ctx context.Context, taskID, userID int) error
}

// UserExistence is the narrow capability the task service needs from the
// user side: a single existence check, implemented by UserService.
type UserExistence interface {
	Exists(ctx context.Context, id int) (bool, error)
}

// EventPublisher emits task lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, event events.TaskEvent) error
}

// TaskPatch holds the optional fields of a task update. Nil fields keep
// their current value. Moving UserID re-validates user existence.
type TaskPatch struct {
	Name     *string
	Status   *types.TaskStatus
	DueDate  *time.Time
	Priority *types.TaskPriority
	UserID   *int
}

// TaskService encapsulates task lifecycle rules, including the
// cross-entity invariant that every task references an existing user.
type TaskService struct {
	repo   TaskRepository
	users  UserExistence
	pub    EventPublisher
	logger *slog.Logger
}

func NewTaskService(repo TaskRepository, users UserExistence, pub EventPublisher, logger *slog.Logger) *TaskService {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{repo: repo, users: users, pub: pub, logger: logger}
}

func (s *TaskService) checkUser(ctx context.Context, userID int) error {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return store.NewNotFound("User", userID)
	}
	return nil
}

// publish emits an event without failing the mutation that triggered it.
func (s *TaskService) publish(ctx context.Context, eventType events.Type, task types.Task) {
	event := events.NewTaskEvent(eventType, task)
	if err := s.pub.Publish(ctx, event); err != nil {
		s.logger.Error("publish task event failed",
			slog.String("type", string(eventType)),
			slog.Int("task_id", task.ID),
			slog.String("error", err.Error()),
		)
	}
}

// Create inserts a task for an existing user. Status defaults to pending
// and priority to medium when unspecified.
func (s *TaskService) Create(ctx context.Context, name string, userID int, dueDate *time.Time, priority types.TaskPriority) (types.Task, error) {
	if err := s.checkUser(ctx, userID); err != nil {
		return types.Task{}, err
	}

	if priority == "" {
		priority = types.PriorityMedium
	}
	if !priority.Valid() {
		return types.Task{}, fmt.Errorf("%w: priority %q", ErrInvalidField, priority)
	}

	task, err := s.repo.Create(ctx, types.Task{
		Name:     name,
		UserID:   userID,
		Status:   types.StatusPending,
		DueDate:  dueDate,
		Priority: priority,
	})
	if err != nil {
		return types.Task{}, err
	}

	s.publish(ctx, events.TypeTaskCreated, task)
	return task, nil
}

// ListForUser returns all tasks owned by the user.
func (s *TaskService) ListForUser(ctx context.Context, userID int) ([]types.Task, error) {
	if err := s.checkUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.ListForUser(ctx, userID)
}

// Get returns the task scoped to its owner.
func (s *TaskService) Get(ctx context.Context, taskID, userID int) (types.Task, error) {
	if err := s.checkUser(ctx, userID); err != nil {
		return types.Task{}, err
	}
	task, err := s.repo.GetByID(ctx, taskID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Task{}, store.NewNotFound("Task", taskID)
		}
		return types.Task{}, err
	}
	return task, nil
}

// GetAny returns the task with the given id regardless of owner. This is
// an administrative lookup; Get is the canonical, owner-scoped path.
func (s *TaskService) GetAny(ctx context.Context, taskID int) (types.Task, error) {
	task, err := s.repo.GetAny(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Task{}, store.NewNotFound("Task", taskID)
		}
		return types.Task{}, err
	}
	return task, nil
}

// UpdateStatus sets the status of the task matching (taskID, userID).
// A missing user is an error; a missing task is an absent result: the
// second return value is false and no error is returned.
func (s *TaskService) UpdateStatus(ctx context.Context, taskID, userID int, status types.TaskStatus) (types.Task, bool, error) {
	if err := s.checkUser(ctx, userID); err != nil {
		return types.Task{}, false, err
	}
	if !status.Valid() {
		return types.Task{}, false, fmt.Errorf("%w: status %q", ErrInvalidField, status)
	}

	task, err := s.repo.GetByID(ctx, taskID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Task{}, false, nil
		}
		return types.Task{}, false, err
	}

	task.Status = status
	updated, err := s.repo.Update(ctx, task)
	if err != nil {
		return types.Task{}, false, err
	}

	s.publish(ctx, events.TypeTaskStatusChanged, updated)
	return updated, true, nil
}

// Patch fetches a snapshot of the task scoped to (taskID, userID),
// applies the patch to a new value, and persists the result by
// full-record replace.
func (s *TaskService) Patch(ctx context.Context, taskID, userID int, patch TaskPatch) (types.Task, error) {
	task, err := s.Get(ctx, taskID, userID)
	if err != nil {
		return types.Task{}, err
	}

	if patch.Name != nil {
		task.Name = *patch.Name
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return types.Task{}, fmt.Errorf("%w: status %q", ErrInvalidField, *patch.Status)
		}
		task.Status = *patch.Status
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return types.Task{}, fmt.Errorf("%w: priority %q", ErrInvalidField, *patch.Priority)
		}
		task.Priority = *patch.Priority
	}
	if patch.UserID != nil && *patch.UserID != task.UserID {
		if err := s.checkUser(ctx, *patch.UserID); err != nil {
			return types.Task{}, err
		}
		task.UserID = *patch.UserID
	}

	updated, err := s.repo.Update(ctx, task)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Task{}, store.NewNotFound("Task", taskID)
		}
		return types.Task{}, err
	}

	if patch.Status != nil {
		s.publish(ctx, events.TypeTaskStatusChanged, updated)
	}
	return updated, nil
}

// Delete removes the task matching (taskID, userID).
func (s *TaskService) Delete(ctx context.Context, taskID, userID int) error {
	if err := s.checkUser(ctx, userID); err != nil {
		return err
	}

	task, err := s.repo.GetByID(ctx, taskID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.NewNotFound("Task", taskID)
		}
		return err
	}

	if err := s.repo.Delete(ctx, taskID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.NewNotFound("Task", taskID)
		}
		return err
	}

	s.publish(ctx, events.TypeTaskDeleted, task)
	return nil
}
