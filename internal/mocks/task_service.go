package mocks

import (
	"context"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/service/task"
	"github.com/taskhub/taskhub-api/internal/store"
)

// MockTaskService implements task.TaskService for testing handlers.
type MockTaskService struct {
	ListTasksFn func(
		ctx context.Context,
		ownerID uuid.UUID,
		filter store.TaskFilter,
		page store.Page,
	) ([]*domain.Task, error)
	GetTaskFn func(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error)
	CreateTaskFn func(
		ctx context.Context,
		ownerID uuid.UUID,
		params task.CreateParams,
	) (*domain.Task, error)
	UpdateTaskFn func(
		ctx context.Context,
		ownerID, taskID uuid.UUID,
		params task.UpdateParams,
	) (*domain.Task, error)
	DeleteTaskFn func(ctx context.Context, ownerID, taskID uuid.UUID) error

	// LastFilter and LastPage record the arguments of the most recent
	// ListTasks call for assertion in tests.
	LastFilter store.TaskFilter
	LastPage   store.Page
}

var _ task.TaskService = (*MockTaskService)(nil)

// ListTasks implements the task.TaskService interface.
func (m *MockTaskService) ListTasks(
	ctx context.Context,
	ownerID uuid.UUID,
	filter store.TaskFilter,
	page store.Page,
) ([]*domain.Task, error) {
	m.LastFilter = filter
	m.LastPage = page
	if m.ListTasksFn != nil {
		return m.ListTasksFn(ctx, ownerID, filter, page)
	}
	return nil, nil
}

// GetTask implements the task.TaskService interface.
func (m *MockTaskService) GetTask(
	ctx context.Context,
	ownerID, taskID uuid.UUID,
) (*domain.Task, error) {
	if m.GetTaskFn != nil {
		return m.GetTaskFn(ctx, ownerID, taskID)
	}
	return nil, task.ErrTaskNotFound
}

// CreateTask implements the task.TaskService interface.
func (m *MockTaskService) CreateTask(
	ctx context.Context,
	ownerID uuid.UUID,
	params task.CreateParams,
) (*domain.Task, error) {
	if m.CreateTaskFn != nil {
		return m.CreateTaskFn(ctx, ownerID, params)
	}
	return domain.NewTask(
		ownerID,
		params.Title,
		params.Description,
		params.DueDate,
		params.Status,
		params.Priority,
	)
}

// UpdateTask implements the task.TaskService interface.
func (m *MockTaskService) UpdateTask(
	ctx context.Context,
	ownerID, taskID uuid.UUID,
	params task.UpdateParams,
) (*domain.Task, error) {
	if m.UpdateTaskFn != nil {
		return m.UpdateTaskFn(ctx, ownerID, taskID, params)
	}
	return nil, task.ErrTaskNotFound
}

// DeleteTask implements the task.TaskService interface.
func (m *MockTaskService) DeleteTask(ctx context.Context, ownerID, taskID uuid.UUID) error {
	if m.DeleteTaskFn != nil {
		return m.DeleteTaskFn(ctx, ownerID, taskID)
	}
	return task.ErrTaskNotFound
}
