// Package task implements the task access layer: predicate-filtered,
// ordered, paginated listing plus create/update/delete with a uniform
// ownership rule.
package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/platform/logger"
	"github.com/taskhub/taskhub-api/internal/store"
)

// Common task service errors
var (
	// ErrTaskNotFound indicates the task does not exist. DeleteTask and
	// GetTask also return it for tasks owned by someone else, so callers
	// cannot probe for the existence of other users' tasks.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskNotOwned indicates the task exists but belongs to another user.
	// Only UpdateTask surfaces this distinction.
	ErrTaskNotOwned = errors.New("task not owned by caller")

	// ErrUpdateConflict indicates the task changed concurrently while the
	// update was in flight. The caller should re-read and retry.
	ErrUpdateConflict = errors.New("task was modified concurrently")
)

// CreateParams carries the caller-supplied fields for a new task. The owner
// is never part of it: the service always assigns the authenticated caller.
type CreateParams struct {
	Title       string
	Description string
	DueDate     *time.Time
	Status      domain.TaskStatus
	Priority    domain.TaskPriority
}

// UpdateParams carries the replacement values for a task update. Updates are
// full-overwrite: every mutable field is written from these values.
// CreatedAt and the owner are carried over from the stored record.
type UpdateParams struct {
	Title       string
	Description string
	DueDate     *time.Time
	Status      domain.TaskStatus
	Priority    domain.TaskPriority
}

// TaskService mediates all task reads and mutations, binding every operation
// to the calling user's identity.
type TaskService interface {
	// ListTasks returns the page of the owner's tasks matching the filter.
	// Requesting a page past the end of the result set returns an empty
	// slice, not an error.
	ListTasks(
		ctx context.Context,
		ownerID uuid.UUID,
		filter store.TaskFilter,
		page store.Page,
	) ([]*domain.Task, error)

	// GetTask returns the task with the given ID if the caller owns it.
	// Returns ErrTaskNotFound when the task is absent or owned by another
	// user.
	GetTask(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error)

	// CreateTask creates a new task owned by ownerID.
	CreateTask(ctx context.Context, ownerID uuid.UUID, params CreateParams) (*domain.Task, error)

	// UpdateTask overwrites the mutable fields of the caller's task.
	// Returns ErrTaskNotFound if the task is absent, ErrTaskNotOwned if it
	// belongs to another user, and ErrUpdateConflict if it was modified
	// concurrently and still exists.
	UpdateTask(
		ctx context.Context,
		ownerID, taskID uuid.UUID,
		params UpdateParams,
	) (*domain.Task, error)

	// DeleteTask removes the caller's task. Returns ErrTaskNotFound both for
	// absent tasks and for tasks owned by another user.
	DeleteTask(ctx context.Context, ownerID, taskID uuid.UUID) error
}

// service is the production TaskService backed by a store.TaskStore.
type service struct {
	tasks  store.TaskStore
	logger *slog.Logger
}

// Ensure service implements TaskService interface
var _ TaskService = (*service)(nil)

// NewService creates a TaskService over the given task store.
// If logger is nil, the default logger is used.
func NewService(tasks store.TaskStore, logger *slog.Logger) TaskService {
	if tasks == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("task store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_service")),
	}
}

// assertOwnedBy is the single ownership guard applied to every mutation.
// Returns ErrTaskNotOwned when callerID is not the stored owner.
func assertOwnedBy(task *domain.Task, callerID uuid.UUID) error {
	if !task.IsOwnedBy(callerID) {
		return fmt.Errorf("%w: task %s", ErrTaskNotOwned, task.ID)
	}
	return nil
}

func (s *service) ListTasks(
	ctx context.Context,
	ownerID uuid.UUID,
	filter store.TaskFilter,
	page store.Page,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	page = page.Normalize()

	log.Debug("listing tasks",
		slog.String("owner_id", ownerID.String()),
		slog.Int("page", page.Number),
		slog.Int("page_size", page.Size))

	tasks, err := s.tasks.ListByOwner(ctx, ownerID, filter, page)
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, err
	}

	return tasks, nil
}

func (s *service) GetTask(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	existing, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, err
	}

	// Reads collapse cross-owner access into not-found so existence is
	// never leaked.
	if err := assertOwnedBy(existing, ownerID); err != nil {
		log.Debug("task read denied for non-owner",
			slog.String("task_id", taskID.String()),
			slog.String("caller_id", ownerID.String()))
		return nil, ErrTaskNotFound
	}

	return existing, nil
}

func (s *service) CreateTask(
	ctx context.Context,
	ownerID uuid.UUID,
	params CreateParams,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(
		ownerID,
		params.Title,
		params.Description,
		params.DueDate,
		params.Status,
		params.Priority,
	)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, err
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", ownerID.String()))
	return task, nil
}

func (s *service) UpdateTask(
	ctx context.Context,
	ownerID, taskID uuid.UUID,
	params UpdateParams,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	existing, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrTaskNotFound
		}
		log.Error("failed to load task for update",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, err
	}

	if err := assertOwnedBy(existing, ownerID); err != nil {
		log.Debug("task update denied for non-owner",
			slog.String("task_id", taskID.String()),
			slog.String("caller_id", ownerID.String()))
		return nil, err
	}

	// Full overwrite of mutable fields. The owner and CreatedAt are carried
	// over from the stored record regardless of what the caller supplied.
	updated := &domain.Task{
		ID:          existing.ID,
		UserID:      existing.UserID,
		Title:       params.Title,
		Description: params.Description,
		DueDate:     params.DueDate,
		Status:      params.Status,
		Priority:    params.Priority,
		CreatedAt:   existing.CreatedAt,
		UpdatedAt:   time.Now().UTC(),
	}

	if err := updated.Validate(); err != nil {
		return nil, err
	}

	if err := s.tasks.Update(ctx, updated, existing.UpdatedAt); err != nil {
		if errors.Is(err, store.ErrConcurrentUpdate) {
			// The row changed under us. If it is gone the right answer is
			// not-found; otherwise surface a retryable conflict.
			if _, getErr := s.tasks.GetByID(ctx, taskID); getErr != nil {
				if store.IsNotFoundError(getErr) {
					return nil, ErrTaskNotFound
				}
				return nil, getErr
			}
			log.Debug("concurrent task update detected",
				slog.String("task_id", taskID.String()))
			return nil, fmt.Errorf("%w: task %s", ErrUpdateConflict, taskID)
		}
		if store.IsNotFoundError(err) {
			return nil, ErrTaskNotFound
		}
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, err
	}

	log.Info("task updated",
		slog.String("task_id", taskID.String()),
		slog.String("owner_id", ownerID.String()))
	return updated, nil
}

func (s *service) DeleteTask(ctx context.Context, ownerID, taskID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// The store scopes the delete to the owner, so a task owned by someone
	// else reports not-found exactly like an absent one.
	if err := s.tasks.Delete(ctx, ownerID, taskID); err != nil {
		if store.IsNotFoundError(err) {
			return ErrTaskNotFound
		}
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return err
	}

	log.Info("task deleted",
		slog.String("task_id", taskID.String()),
		slog.String("owner_id", ownerID.String()))
	return nil
}
