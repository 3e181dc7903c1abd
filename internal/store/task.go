package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/taskman-io/apiserver/types"
)

// TaskRepository handles persistence for tasks. Lookups are scoped by the
// (task_id, user_id) pair; GetAny is the one unscoped exception.
type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts the task and returns it with the store-assigned id and
// creation timestamp populated.
func (r *TaskRepository) Create(ctx context.Context, task types.Task) (types.Task, error) {
	task.CreatedAt = time.Now()

	const query = `
		INSERT INTO tasks (task_name, user_id, created_at, status, due_date, priority)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING task_id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		task.Name,
		task.UserID,
		task.CreatedAt,
		task.Status,
		task.DueDate,
		task.Priority,
	).Scan(&task.ID); err != nil {
		return types.Task{}, err
	}
	return task, nil
}

// ListForUser returns all tasks owned by the given user. Order is not
// contractual; rows come back by task_id for stable responses.
func (r *TaskRepository) ListForUser(ctx context.Context, userID int) ([]types.Task, error) {
	const query = `
		SELECT task_id, task_name, user_id, created_at, status, due_date, priority
		FROM tasks
		WHERE user_id = $1
		ORDER BY task_id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]types.Task, 0)
	for rows.Next() {
		var task types.Task
		if err := rows.Scan(
			&task.ID,
			&task.Name,
			&task.UserID,
			&task.CreatedAt,
			&task.Status,
			&task.DueDate,
			&task.Priority,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetByID returns the task matching both taskID and userID, or
// ErrNotFound when the pair has no match.
func (r *TaskRepository) GetByID(ctx context.Context, taskID, userID int) (types.Task, error) {
	const query = `
		SELECT task_id, task_name, user_id, created_at, status, due_date, priority
		FROM tasks
		WHERE task_id = $1 AND user_id = $2`
	return r.getOne(ctx, query, taskID, userID)
}

// GetAny returns the task with the given id regardless of owner. This is
// an unscoped administrative lookup; GetByID is the canonical path.
func (r *TaskRepository) GetAny(ctx context.Context, taskID int) (types.Task, error) {
	const query = `
		SELECT task_id, task_name, user_id, created_at, status, due_date, priority
		FROM tasks
		WHERE task_id = $1`
	return r.getOne(ctx, query, taskID)
}

func (r *TaskRepository) getOne(ctx context.Context, query string, args ...any) (types.Task, error) {
	var task types.Task
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&task.ID,
		&task.Name,
		&task.UserID,
		&task.CreatedAt,
		&task.Status,
		&task.DueDate,
		&task.Priority,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Task{}, ErrNotFound
		}
		return types.Task{}, err
	}
	return task, nil
}

// Update overwrites all mutable fields of the row identified by task.ID,
// including user_id. The caller passes a fully-formed value.
func (r *TaskRepository) Update(ctx context.Context, task types.Task) (types.Task, error) {
	const query = `
		UPDATE tasks
		SET task_name = $1,
			status = $2,
			due_date = $3,
			priority = $4,
			user_id = $5
		WHERE task_id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		task.Name,
		task.Status,
		task.DueDate,
		task.Priority,
		task.UserID,
		task.ID,
	)
	if err != nil {
		return types.Task{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Task{}, err
	}
	if affected == 0 {
		return types.Task{}, ErrNotFound
	}
	return task, nil
}

// Delete removes the task matching both keys.
func (r *TaskRepository) Delete(ctx context.Context, taskID, userID int) error {
	const query = `DELETE FROM tasks WHERE task_id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, taskID, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
