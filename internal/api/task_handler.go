package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/api/middleware"
	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/platform/logger"
	"github.com/taskhub/taskhub-api/internal/service/task"
	"github.com/taskhub/taskhub-api/internal/store"
)

// dueDateQueryLayout is the accepted format for the dueDate query parameter.
// Full RFC 3339 timestamps are accepted as well; comparison is day-granular
// either way.
const dueDateQueryLayout = "2006-01-02"

// TaskHandler handles the task CRUD endpoints. Every operation runs on
// behalf of the authenticated user taken from the request context.
type TaskHandler struct {
	taskService task.TaskService
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(taskService task.TaskService, log *slog.Logger) *TaskHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TaskHandler{
		taskService: taskService,
		logger:      log.With(slog.String("component", "task_handler")),
	}
}

// List handles GET /api/tasks. Supported query parameters: status, priority,
// dueDate (tasks due on or before the given day), page, pageSize.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	filter, page, err := parseListQuery(r)
	if err != nil {
		shared.RespondWithErrorAndLog(
			w, r, http.StatusBadRequest, GetSafeErrorMessage(err), err)
		return
	}

	page = page.Normalize()
	tasks, err := h.taskService.ListTasks(ctx, ownerID, filter, page)
	if err != nil {
		status := MapErrorToStatusCode(err)
		shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
		return
	}

	responses := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		responses = append(responses, ToTaskResponse(t))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{
		Tasks:    responses,
		Page:     page.Number,
		PageSize: page.Size,
	})
}

// Get handles GET /api/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	taskID, err := parseTaskID(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	found, err := h.taskService.GetTask(ctx, ownerID, taskID)
	if err != nil {
		status := MapErrorToStatusCode(err)
		shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ToTaskResponse(found))
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	ownerID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	_, params, err := decodeTaskRequest(r)
	if err != nil {
		shared.RespondWithErrorAndLog(
			w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	created, err := h.taskService.CreateTask(ctx, ownerID, task.CreateParams{
		Title:       params.Title,
		Description: params.Description,
		DueDate:     params.DueDate,
		Status:      params.Status,
		Priority:    params.Priority,
	})
	if err != nil {
		status := MapErrorToStatusCode(err)
		shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
		return
	}

	log.Info("task created",
		slog.String("task_id", created.ID.String()),
		slog.String("user_id", ownerID.String()))

	w.Header().Set("Location", fmt.Sprintf("/api/tasks/%s", created.ID))
	shared.RespondWithJSON(w, r, http.StatusCreated, ToTaskResponse(created))
}

// Update handles PUT /api/tasks/{id}. The operation replaces every mutable
// field of the task. A body ID that disagrees with the path ID is rejected.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	ownerID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	taskID, err := parseTaskID(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	req, params, err := decodeTaskRequest(r)
	if err != nil {
		shared.RespondWithErrorAndLog(
			w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	if req.ID != uuid.Nil && req.ID != taskID {
		shared.RespondWithError(
			w, r, http.StatusBadRequest, "Task ID in body does not match URL")
		return
	}

	if _, err := h.taskService.UpdateTask(ctx, ownerID, taskID, task.UpdateParams{
		Title:       params.Title,
		Description: params.Description,
		DueDate:     params.DueDate,
		Status:      params.Status,
		Priority:    params.Priority,
	}); err != nil {
		status := MapErrorToStatusCode(err)
		shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
		return
	}

	log.Info("task updated",
		slog.String("task_id", taskID.String()),
		slog.String("user_id", ownerID.String()))

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	ownerID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	taskID, err := parseTaskID(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	if err := h.taskService.DeleteTask(ctx, ownerID, taskID); err != nil {
		status := MapErrorToStatusCode(err)
		shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
		return
	}

	log.Info("task deleted",
		slog.String("task_id", taskID.String()),
		slog.String("user_id", ownerID.String()))

	w.WriteHeader(http.StatusNoContent)
}

// taskParams is a TaskRequest with its enum fields parsed.
type taskParams struct {
	Title       string
	Description string
	DueDate     *time.Time
	Status      domain.TaskStatus
	Priority    domain.TaskPriority
}

func decodeTaskRequest(r *http.Request) (TaskRequest, taskParams, error) {
	var req TaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		return req, taskParams{}, fmt.Errorf("%w: malformed request body", domain.ErrValidation)
	}
	if err := shared.ValidateRequest(req); err != nil {
		return req, taskParams{}, err
	}

	status, err := domain.ParseTaskStatus(req.Status)
	if err != nil {
		return req, taskParams{}, err
	}
	priority, err := domain.ParseTaskPriority(req.Priority)
	if err != nil {
		return req, taskParams{}, err
	}

	return req, taskParams{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Status:      status,
		Priority:    priority,
	}, nil
}

func parseTaskID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

func parseListQuery(r *http.Request) (store.TaskFilter, store.Page, error) {
	var filter store.TaskFilter
	q := r.URL.Query()

	if raw := q.Get("status"); raw != "" {
		status, err := domain.ParseTaskStatus(raw)
		if err != nil {
			return filter, store.Page{}, err
		}
		filter.Status = &status
	}

	if raw := q.Get("priority"); raw != "" {
		priority, err := domain.ParseTaskPriority(raw)
		if err != nil {
			return filter, store.Page{}, err
		}
		filter.Priority = &priority
	}

	if raw := q.Get("dueDate"); raw != "" {
		due, err := parseDueDateQuery(raw)
		if err != nil {
			return filter, store.Page{}, fmt.Errorf(
				"%w: dueDate must be a date (YYYY-MM-DD) or RFC 3339 timestamp",
				domain.ErrValidation)
		}
		filter.DueOnOrBefore = &due
	}

	page := store.Page{}
	// pageNumber is the documented parameter; page is accepted as an alias.
	raw := q.Get("pageNumber")
	if raw == "" {
		raw = q.Get("page")
	}
	if raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return filter, page, fmt.Errorf(
				"%w: pageNumber must be an integer", domain.ErrValidation)
		}
		page.Number = n
	}
	if raw := q.Get("pageSize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return filter, page, fmt.Errorf(
				"%w: pageSize must be an integer", domain.ErrValidation)
		}
		page.Size = n
	}

	return filter, page, nil
}

func parseDueDateQuery(raw string) (time.Time, error) {
	if t, err := time.Parse(dueDateQueryLayout, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
