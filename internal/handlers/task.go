package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskman-io/apiserver/internal/services"
	"github.com/taskman-io/apiserver/internal/store"
	"github.com/taskman-io/apiserver/types"
)

// TaskHandler provides HTTP handlers for tasks.
type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// TaskRouter registers task and attachment routes on the given router.
func TaskRouter(r chi.Router, taskService *services.TaskService, attachmentService *services.AttachmentService) {
	handler := NewTaskHandler(taskService)

	r.Post("/", handler.CreateTask)
	r.Get("/", handler.ListTasks)
	r.Route("/{taskID}", func(r chi.Router) {
		r.Get("/", handler.GetTask)
		r.Patch("/", handler.UpdateTask)
		r.Patch("/status", handler.UpdateTaskStatus)
		r.Delete("/", handler.DeleteTask)
		if attachmentService != nil {
			r.Route("/attachments", func(r chi.Router) {
				AttachmentRouter(r, attachmentService)
			})
		}
	})
}

type CreateTaskRequest struct {
	TaskName string  `json:"task_name"`
	UserID   int     `json:"user_id"`
	DueDate  *string `json:"due_date"`
	Priority string  `json:"priority"`
}

type UpdateTaskRequest struct {
	UserID   int     `json:"user_id"`
	TaskName *string `json:"task_name"`
	Status   *string `json:"status"`
	DueDate  *string `json:"due_date"`
	Priority *string `json:"priority"`
	NewOwner *int    `json:"new_user_id"`
}

type UpdateTaskStatusRequest struct {
	UserID int    `json:"user_id"`
	Status string `json:"status"`
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.taskService.Create(r.Context(), req.TaskName, req.UserID, dueDate, types.TaskPriority(req.Priority))
	if err != nil {
		writeTaskError(w, err, "failed to create task")
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// ListTasks returns every task owned by the user named in the user_id
// query parameter.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDQuery(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if userID == 0 {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	tasks, err := h.taskService.ListForUser(r.Context(), userID)
	if err != nil {
		writeTaskError(w, err, "failed to list tasks")
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// GetTask looks up a task. With a user_id query parameter the lookup is
// scoped to the owner; without one it falls back to the unscoped
// administrative lookup.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseIDParam(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, err := parseIDQuery(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var task types.Task
	if userID > 0 {
		task, err = h.taskService.Get(r.Context(), taskID, userID)
	} else {
		task, err = h.taskService.GetAny(r.Context(), taskID)
	}
	if err != nil {
		writeTaskError(w, err, "failed to fetch task")
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseIDParam(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.UserID < 1 {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	patch := services.TaskPatch{
		Name:    req.TaskName,
		DueDate: dueDate,
		UserID:  req.NewOwner,
	}
	if req.Status != nil {
		status := types.TaskStatus(*req.Status)
		patch.Status = &status
	}
	if req.Priority != nil {
		priority := types.TaskPriority(*req.Priority)
		patch.Priority = &priority
	}

	task, err := h.taskService.Patch(r.Context(), taskID, req.UserID, patch)
	if err != nil {
		writeTaskError(w, err, "failed to update task")
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseIDParam(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UpdateTaskStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.UserID < 1 {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	task, ok, err := h.taskService.UpdateStatus(r.Context(), taskID, req.UserID, types.TaskStatus(req.Status))
	if err != nil {
		writeTaskError(w, err, "failed to update task status")
		return
	}
	if !ok {
		// Absent pair: the service reports no match without an error.
		writeError(w, http.StatusNotFound, "task not found for user")
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseIDParam(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, err := parseIDQuery(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if userID == 0 {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := h.taskService.Delete(r.Context(), taskID, userID); err != nil {
		writeTaskError(w, err, "failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeTaskError maps service errors to status codes: not-found → 404,
// invalid enum values → 400, anything else → 500 with a generic message.
func writeTaskError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidField):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
