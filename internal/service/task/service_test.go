package task

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/store"
)

// fakeTaskStore is an in-memory store.TaskStore implementing the same
// filtering, ordering and pagination contract as the postgres store.
type fakeTaskStore struct {
	tasks map[uuid.UUID]*domain.Task

	// onUpdate, when set, intercepts the next Update call.
	onUpdate func(task *domain.Task, expectedUpdatedAt time.Time) error
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (f *fakeTaskStore) Create(_ context.Context, task *domain.Task) error {
	copied := *task
	f.tasks[task.ID] = &copied
	return nil
}

func (f *fakeTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	task, ok := f.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (f *fakeTaskStore) ListByOwner(
	_ context.Context,
	ownerID uuid.UUID,
	filter store.TaskFilter,
	page store.Page,
) ([]*domain.Task, error) {
	var matched []*domain.Task
	for _, task := range f.tasks {
		if task.UserID != ownerID {
			continue
		}
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && task.Priority != *filter.Priority {
			continue
		}
		if filter.DueOnOrBefore != nil {
			if task.DueDate == nil {
				continue
			}
			cutoff := filter.DueOnOrBefore.Truncate(24 * time.Hour)
			day := task.DueDate.Truncate(24 * time.Hour)
			if day.After(cutoff) {
				continue
			}
		}
		copied := *task
		matched = append(matched, &copied)
	}

	// Due date ascending with undated tasks last, then priority rank, then
	// creation time. Mirrors the ORDER BY in the postgres store.
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch {
		case a.DueDate == nil && b.DueDate != nil:
			return false
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	offset := page.Offset()
	if offset >= len(matched) {
		return []*domain.Task{}, nil
	}
	end := offset + page.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (f *fakeTaskStore) Update(
	_ context.Context,
	task *domain.Task,
	expectedUpdatedAt time.Time,
) error {
	if f.onUpdate != nil {
		hook := f.onUpdate
		f.onUpdate = nil
		return hook(task, expectedUpdatedAt)
	}

	existing, ok := f.tasks[task.ID]
	if !ok {
		return store.ErrTaskNotFound
	}
	if !existing.UpdatedAt.Equal(expectedUpdatedAt) {
		return store.ErrConcurrentUpdate
	}

	copied := *task
	copied.UserID = existing.UserID
	copied.CreatedAt = existing.CreatedAt
	f.tasks[task.ID] = &copied
	return nil
}

func (f *fakeTaskStore) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	existing, ok := f.tasks[id]
	if !ok || existing.UserID != ownerID {
		return store.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskStore) WithTx(_ *sql.Tx) store.TaskStore {
	return f
}

func seedTask(
	t *testing.T,
	f *fakeTaskStore,
	ownerID uuid.UUID,
	title string,
	dueDate *time.Time,
	status domain.TaskStatus,
	priority domain.TaskPriority,
) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(ownerID, title, "", dueDate, status, priority)
	require.NoError(t, err)
	require.NoError(t, f.Create(context.Background(), task))
	return task
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 9, 30, 0, 0, time.UTC)
	return &d
}

func TestListTasksOwnerIsolation(t *testing.T) {
	t.Parallel()

	fake := newFakeTaskStore()
	svc := NewService(fake, nil)

	alice := uuid.New()
	bob := uuid.New()

	mine := seedTask(t, fake, alice, "mine", nil, domain.TaskStatusPending, domain.TaskPriorityLow)
	seedTask(t, fake, bob, "not mine", nil, domain.TaskStatusPending, domain.TaskPriorityLow)

	tasks, err := svc.ListTasks(context.Background(), alice, store.TaskFilter{}, store.Page{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, mine.ID, tasks[0].ID)
}

func TestListTasksFilters(t *testing.T) {
	t.Parallel()

	fake := newFakeTaskStore()
	svc := NewService(fake, nil)
	owner := uuid.New()

	pendingLow := seedTask(t, fake, owner, "pending low",
		datePtr(2025, 6, 1), domain.TaskStatusPending, domain.TaskPriorityLow)
	completedHigh := seedTask(t, fake, owner, "completed high",
		datePtr(2025, 6, 10), domain.TaskStatusCompleted, domain.TaskPriorityHigh)
	seedTask(t, fake, owner, "undated",
		nil, domain.TaskStatusPending, domain.TaskPriorityMedium)

	t.Run("status filter", func(t *testing.T) {
		status := domain.TaskStatusCompleted
		tasks, err := svc.ListTasks(context.Background(), owner,
			store.TaskFilter{Status: &status}, store.Page{})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, completedHigh.ID, tasks[0].ID)
	})

	t.Run("priority filter", func(t *testing.T) {
		priority := domain.TaskPriorityLow
		tasks, err := svc.ListTasks(context.Background(), owner,
			store.TaskFilter{Priority: &priority}, store.Page{})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, pendingLow.ID, tasks[0].ID)
	})

	t.Run("due date filter is day-granular and excludes undated", func(t *testing.T) {
		// Cutoff time-of-day is earlier than the stored due time; the match
		// still succeeds because only the calendar day counts.
		cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		tasks, err := svc.ListTasks(context.Background(), owner,
			store.TaskFilter{DueOnOrBefore: &cutoff}, store.Page{})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, pendingLow.ID, tasks[0].ID)
	})
}

func TestListTasksOrdering(t *testing.T) {
	t.Parallel()

	fake := newFakeTaskStore()
	svc := NewService(fake, nil)
	owner := uuid.New()

	undated := seedTask(t, fake, owner, "undated",
		nil, domain.TaskStatusPending, domain.TaskPriorityHigh)
	late := seedTask(t, fake, owner, "late",
		datePtr(2025, 6, 20), domain.TaskStatusPending, domain.TaskPriorityLow)
	earlyHigh := seedTask(t, fake, owner, "early high",
		datePtr(2025, 6, 1), domain.TaskStatusPending, domain.TaskPriorityHigh)
	earlyLow := seedTask(t, fake, owner, "early low",
		datePtr(2025, 6, 1), domain.TaskStatusPending, domain.TaskPriorityLow)

	tasks, err := svc.ListTasks(context.Background(), owner, store.TaskFilter{}, store.Page{})
	require.NoError(t, err)
	require.Len(t, tasks, 4)

	// Due date ascending, same-day ties broken by priority rank, undated last.
	assert.Equal(t, earlyLow.ID, tasks[0].ID)
	assert.Equal(t, earlyHigh.ID, tasks[1].ID)
	assert.Equal(t, late.ID, tasks[2].ID)
	assert.Equal(t, undated.ID, tasks[3].ID)
}

func TestListTasksPagination(t *testing.T) {
	t.Parallel()

	fake := newFakeTaskStore()
	svc := NewService(fake, nil)
	owner := uuid.New()

	for day := 1; day <= 25; day++ {
		seedTask(t, fake, owner, "task",
			datePtr(2025, 7, day), domain.TaskStatusPending, domain.TaskPriorityMedium)
	}

	t.Run("second page returns items 11 through 20", func(t *testing.T) {
		tasks, err := svc.ListTasks(context.Background(), owner, store.TaskFilter{},
			store.Page{Number: 2, Size: 10})
		require.NoError(t, err)
		require.Len(t, tasks, 10)
		assert.Equal(t, 11, tasks[0].DueDate.Day())
		assert.Equal(t, 20, tasks[9].DueDate.Day())
	})

	t.Run("page beyond result count is empty, not an error", func(t *testing.T) {
		tasks, err := svc.ListTasks(context.Background(), owner, store.TaskFilter{},
			store.Page{Number: 9, Size: 10})
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("defaults applied for unspecified page", func(t *testing.T) {
		tasks, err := svc.ListTasks(context.Background(), owner, store.TaskFilter{}, store.Page{})
		require.NoError(t, err)
		assert.Len(t, tasks, store.DefaultPageSize)
	})
}

func TestCreateTask(t *testing.T) {
	t.Parallel()

	fake := newFakeTaskStore()
	svc := NewService(fake, nil)
	owner := uuid.New()

	t.Run("assigns caller as owner with equal timestamps", func(t *testing.T) {
		created, err := svc.CreateTask(context.Background(), owner, CreateParams{
			Title:    "write report",
			Status:   domain.TaskStatusPending,
			Priority: domain.TaskPriorityMedium,
		})
		require.NoError(t, err)

		assert.Equal(t, owner, created.UserID)
		assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))

		stored, err := fake.GetByID(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, owner, stored.UserID)
	})

	t.Run("rejects empty title", func(t *testing.T) {
		_, err := svc.CreateTask(context.Background(), owner, CreateParams{
			Status:   domain.TaskStatusPending,
			Priority: domain.TaskPriorityMedium,
		})
		assert.ErrorIs(t, err, domain.ErrEmptyTaskTitle)
	})
}

func TestGetTask(t *testing.T) {
	t.Parallel()

	fake := newFakeTaskStore()
	svc := NewService(fake, nil)
	owner := uuid.New()

	created := seedTask(t, fake, owner, "mine", nil,
		domain.TaskStatusPending, domain.TaskPriorityLow)

	t.Run("owner reads own task", func(t *testing.T) {
		got, err := svc.GetTask(context.Background(), owner, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("absent task is not found", func(t *testing.T) {
		_, err := svc.GetTask(context.Background(), owner, uuid.New())
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})

	t.Run("cross-owner read collapses to not found", func(t *testing.T) {
		_, err := svc.GetTask(context.Background(), uuid.New(), created.ID)
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})
}

func TestUpdateTask(t *testing.T) {
	t.Parallel()

	owner := uuid.New()

	newParams := func() UpdateParams {
		return UpdateParams{
			Title:    "updated title",
			Status:   domain.TaskStatusCompleted,
			Priority: domain.TaskPriorityHigh,
		}
	}

	t.Run("overwrites mutable fields and preserves CreatedAt", func(t *testing.T) {
		t.Parallel()
		fake := newFakeTaskStore()
		svc := NewService(fake, nil)
		created := seedTask(t, fake, owner, "original", datePtr(2025, 6, 1),
			domain.TaskStatusPending, domain.TaskPriorityLow)

		updated, err := svc.UpdateTask(context.Background(), owner, created.ID, newParams())
		require.NoError(t, err)

		assert.Equal(t, "updated title", updated.Title)
		assert.Equal(t, domain.TaskStatusCompleted, updated.Status)
		assert.Equal(t, domain.TaskPriorityHigh, updated.Priority)
		assert.Nil(t, updated.DueDate) // full overwrite clears an omitted due date
		assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
		assert.True(t, updated.UpdatedAt.After(created.UpdatedAt) ||
			updated.UpdatedAt.Equal(created.UpdatedAt))

		stored, err := fake.GetByID(context.Background(), created.ID)
		require.NoError(t, err)
		assert.True(t, stored.CreatedAt.Equal(created.CreatedAt))
		assert.Equal(t, owner, stored.UserID)
	})

	t.Run("status may move backwards", func(t *testing.T) {
		t.Parallel()
		fake := newFakeTaskStore()
		svc := NewService(fake, nil)
		created := seedTask(t, fake, owner, "done", nil,
			domain.TaskStatusCompleted, domain.TaskPriorityLow)

		params := newParams()
		params.Status = domain.TaskStatusPending
		updated, err := svc.UpdateTask(context.Background(), owner, created.ID, params)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusPending, updated.Status)
	})

	t.Run("absent task is not found", func(t *testing.T) {
		t.Parallel()
		fake := newFakeTaskStore()
		svc := NewService(fake, nil)

		_, err := svc.UpdateTask(context.Background(), owner, uuid.New(), newParams())
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})

	t.Run("cross-owner update is forbidden", func(t *testing.T) {
		t.Parallel()
		fake := newFakeTaskStore()
		svc := NewService(fake, nil)
		created := seedTask(t, fake, owner, "mine", nil,
			domain.TaskStatusPending, domain.TaskPriorityLow)

		_, err := svc.UpdateTask(context.Background(), uuid.New(), created.ID, newParams())
		assert.ErrorIs(t, err, ErrTaskNotOwned)

		// The task is untouched.
		stored, getErr := fake.GetByID(context.Background(), created.ID)
		require.NoError(t, getErr)
		assert.Equal(t, "mine", stored.Title)
	})

	t.Run("empty title rejected before hitting the store", func(t *testing.T) {
		t.Parallel()
		fake := newFakeTaskStore()
		svc := NewService(fake, nil)
		created := seedTask(t, fake, owner, "mine", nil,
			domain.TaskStatusPending, domain.TaskPriorityLow)

		params := newParams()
		params.Title = ""
		_, err := svc.UpdateTask(context.Background(), owner, created.ID, params)
		assert.ErrorIs(t, err, domain.ErrEmptyTaskTitle)
	})

	t.Run("conflict with surviving row surfaces retryable conflict", func(t *testing.T) {
		t.Parallel()
		fake := newFakeTaskStore()
		svc := NewService(fake, nil)
		created := seedTask(t, fake, owner, "mine", nil,
			domain.TaskStatusPending, domain.TaskPriorityLow)

		fake.onUpdate = func(*domain.Task, time.Time) error {
			return store.ErrConcurrentUpdate
		}

		_, err := svc.UpdateTask(context.Background(), owner, created.ID, newParams())
		assert.ErrorIs(t, err, ErrUpdateConflict)
	})

	t.Run("conflict with deleted row reports not found", func(t *testing.T) {
		t.Parallel()
		fake := newFakeTaskStore()
		svc := NewService(fake, nil)
		created := seedTask(t, fake, owner, "mine", nil,
			domain.TaskStatusPending, domain.TaskPriorityLow)

		fake.onUpdate = func(task *domain.Task, _ time.Time) error {
			delete(fake.tasks, task.ID)
			return store.ErrConcurrentUpdate
		}

		_, err := svc.UpdateTask(context.Background(), owner, created.ID, newParams())
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()

	owner := uuid.New()

	t.Run("owner deletes own task", func(t *testing.T) {
		t.Parallel()
		fake := newFakeTaskStore()
		svc := NewService(fake, nil)
		created := seedTask(t, fake, owner, "mine", nil,
			domain.TaskStatusPending, domain.TaskPriorityLow)

		require.NoError(t, svc.DeleteTask(context.Background(), owner, created.ID))

		_, err := fake.GetByID(context.Background(), created.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("absent task is not found", func(t *testing.T) {
		t.Parallel()
		fake := newFakeTaskStore()
		svc := NewService(fake, nil)

		err := svc.DeleteTask(context.Background(), owner, uuid.New())
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})

	t.Run("cross-owner delete collapses to not found", func(t *testing.T) {
		t.Parallel()
		fake := newFakeTaskStore()
		svc := NewService(fake, nil)
		created := seedTask(t, fake, owner, "mine", nil,
			domain.TaskStatusPending, domain.TaskPriorityLow)

		err := svc.DeleteTask(context.Background(), uuid.New(), created.ID)
		assert.ErrorIs(t, err, ErrTaskNotFound)

		// Still there for the real owner.
		_, getErr := fake.GetByID(context.Background(), created.ID)
		assert.NoError(t, getErr)
	})
}
