package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/mocks"
	"github.com/taskhub/taskhub-api/internal/service/task"
	"github.com/taskhub/taskhub-api/internal/store"
)

// newTaskRequest builds an authenticated request with an optional chi "id"
// URL parameter and an optional JSON body.
func newTaskRequest(
	t *testing.T,
	method, target string,
	ownerID uuid.UUID,
	pathID string,
	body interface{},
) *http.Request {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(payload)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	ctx := context.WithValue(req.Context(), shared.UserIDContextKey, ownerID)

	rctx := chi.NewRouteContext()
	if pathID != "" {
		rctx.URLParams.Add("id", pathID)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)

	return req.WithContext(ctx)
}

func validTaskPayload() map[string]interface{} {
	return map[string]interface{}{
		"title":       "Write report",
		"description": "Quarterly summary",
		"status":      "pending",
		"priority":    "medium",
	}
}

func mustNewTask(t *testing.T, ownerID uuid.UUID) *domain.Task {
	t.Helper()

	task, err := domain.NewTask(
		ownerID,
		"Write report",
		"Quarterly summary",
		nil,
		domain.TaskStatusPending,
		domain.TaskPriorityMedium,
	)
	require.NoError(t, err)
	return task
}

func TestListTasks(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()

	t.Run("returns page of tasks", func(t *testing.T) {
		t.Parallel()

		existing := mustNewTask(t, ownerID)
		svc := &mocks.MockTaskService{
			ListTasksFn: func(
				ctx context.Context,
				gotOwner uuid.UUID,
				filter store.TaskFilter,
				page store.Page,
			) ([]*domain.Task, error) {
				assert.Equal(t, ownerID, gotOwner)
				return []*domain.Task{existing}, nil
			},
		}
		handler := NewTaskHandler(svc, nil)

		req := newTaskRequest(t, "GET", "/api/tasks", ownerID, "", nil)
		recorder := httptest.NewRecorder()
		handler.List(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)

		var resp TaskListResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		require.Len(t, resp.Tasks, 1)
		assert.Equal(t, existing.ID, resp.Tasks[0].ID)
		assert.Equal(t, store.DefaultPage, resp.Page)
		assert.Equal(t, store.DefaultPageSize, resp.PageSize)
	})

	t.Run("parses filter and paging parameters", func(t *testing.T) {
		t.Parallel()

		svc := &mocks.MockTaskService{}
		handler := NewTaskHandler(svc, nil)

		req := newTaskRequest(t, "GET",
			"/api/tasks?status=completed&priority=high&dueDate=2026-09-15&pageNumber=3&pageSize=25",
			ownerID, "", nil)
		recorder := httptest.NewRecorder()
		handler.List(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)

		require.NotNil(t, svc.LastFilter.Status)
		assert.Equal(t, domain.TaskStatusCompleted, *svc.LastFilter.Status)
		require.NotNil(t, svc.LastFilter.Priority)
		assert.Equal(t, domain.TaskPriorityHigh, *svc.LastFilter.Priority)
		require.NotNil(t, svc.LastFilter.DueOnOrBefore)
		assert.Equal(t,
			time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
			svc.LastFilter.DueOnOrBefore.UTC())
		assert.Equal(t, 3, svc.LastPage.Number)
		assert.Equal(t, 25, svc.LastPage.Size)
	})

	t.Run("accepts page as an alias for pageNumber", func(t *testing.T) {
		t.Parallel()

		svc := &mocks.MockTaskService{}
		handler := NewTaskHandler(svc, nil)

		req := newTaskRequest(t, "GET", "/api/tasks?page=4&pageSize=5", ownerID, "", nil)
		recorder := httptest.NewRecorder()
		handler.List(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, 4, svc.LastPage.Number)
		assert.Equal(t, 5, svc.LastPage.Size)
	})

	t.Run("rejects invalid query parameters", func(t *testing.T) {
		t.Parallel()

		badQueries := []string{
			"status=bogus",
			"priority=urgent",
			"dueDate=next-tuesday",
			"pageNumber=abc",
			"page=abc",
			"pageSize=abc",
		}

		for _, q := range badQueries {
			svc := &mocks.MockTaskService{}
			handler := NewTaskHandler(svc, nil)

			req := newTaskRequest(t, "GET", "/api/tasks?"+q, ownerID, "", nil)
			recorder := httptest.NewRecorder()
			handler.List(recorder, req)

			assert.Equal(t, http.StatusBadRequest, recorder.Code, "query %q", q)
		}
	})
}

func TestGetTask(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()

	t.Run("returns the task", func(t *testing.T) {
		t.Parallel()

		existing := mustNewTask(t, ownerID)
		svc := &mocks.MockTaskService{
			GetTaskFn: func(ctx context.Context, gotOwner, taskID uuid.UUID) (*domain.Task, error) {
				assert.Equal(t, existing.ID, taskID)
				return existing, nil
			},
		}
		handler := NewTaskHandler(svc, nil)

		req := newTaskRequest(t, "GET", "/api/tasks/"+existing.ID.String(),
			ownerID, existing.ID.String(), nil)
		recorder := httptest.NewRecorder()
		handler.Get(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)

		var resp TaskResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		assert.Equal(t, existing.ID, resp.ID)
		assert.Equal(t, "Write report", resp.Title)
	})

	t.Run("unknown task returns 404", func(t *testing.T) {
		t.Parallel()

		handler := NewTaskHandler(&mocks.MockTaskService{}, nil)

		id := uuid.New().String()
		req := newTaskRequest(t, "GET", "/api/tasks/"+id, ownerID, id, nil)
		recorder := httptest.NewRecorder()
		handler.Get(recorder, req)

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("malformed ID returns 400", func(t *testing.T) {
		t.Parallel()

		handler := NewTaskHandler(&mocks.MockTaskService{}, nil)

		req := newTaskRequest(t, "GET", "/api/tasks/not-a-uuid", ownerID, "not-a-uuid", nil)
		recorder := httptest.NewRecorder()
		handler.Get(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestCreateTask(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()

	t.Run("creates a task", func(t *testing.T) {
		t.Parallel()

		handler := NewTaskHandler(&mocks.MockTaskService{}, nil)

		req := newTaskRequest(t, "POST", "/api/tasks", ownerID, "", validTaskPayload())
		recorder := httptest.NewRecorder()
		handler.Create(recorder, req)

		require.Equal(t, http.StatusCreated, recorder.Code)

		var resp TaskResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		assert.NotEqual(t, uuid.Nil, resp.ID)
		assert.Equal(t, "pending", resp.Status)
		assert.Equal(t, "/api/tasks/"+resp.ID.String(), recorder.Header().Get("Location"))
	})

	t.Run("rejects invalid payloads", func(t *testing.T) {
		t.Parallel()

		invalid := []map[string]interface{}{
			{"description": "no title", "status": "pending", "priority": "low"},
			{"title": "x", "status": "done", "priority": "low"},
			{"title": "x", "status": "pending", "priority": "urgent"},
		}

		for _, payload := range invalid {
			handler := NewTaskHandler(&mocks.MockTaskService{}, nil)

			req := newTaskRequest(t, "POST", "/api/tasks", ownerID, "", payload)
			recorder := httptest.NewRecorder()
			handler.Create(recorder, req)

			assert.Equal(t, http.StatusBadRequest, recorder.Code, "payload %v", payload)
		}
	})

	t.Run("missing user identity returns 401", func(t *testing.T) {
		t.Parallel()

		handler := NewTaskHandler(&mocks.MockTaskService{}, nil)

		payload, err := json.Marshal(validTaskPayload())
		require.NoError(t, err)
		req := httptest.NewRequest("POST", "/api/tasks", bytes.NewBuffer(payload))

		recorder := httptest.NewRecorder()
		handler.Create(recorder, req)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

func TestUpdateTask(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	taskID := uuid.New()

	update := func(svc *mocks.MockTaskService, body map[string]interface{}) *httptest.ResponseRecorder {
		handler := NewTaskHandler(svc, nil)
		req := newTaskRequest(t, "PUT", "/api/tasks/"+taskID.String(),
			ownerID, taskID.String(), body)
		recorder := httptest.NewRecorder()
		handler.Update(recorder, req)
		return recorder
	}

	t.Run("successful update returns 204", func(t *testing.T) {
		svc := &mocks.MockTaskService{
			UpdateTaskFn: func(
				ctx context.Context,
				gotOwner, gotTask uuid.UUID,
				params task.UpdateParams,
			) (*domain.Task, error) {
				assert.Equal(t, ownerID, gotOwner)
				assert.Equal(t, taskID, gotTask)
				assert.Equal(t, domain.TaskStatusCompleted, params.Status)
				return mustNewTask(t, ownerID), nil
			},
		}

		body := validTaskPayload()
		body["status"] = "completed"
		recorder := update(svc, body)

		assert.Equal(t, http.StatusNoContent, recorder.Code)
		assert.Empty(t, recorder.Body.String())
	})

	t.Run("body ID mismatch returns 400", func(t *testing.T) {
		body := validTaskPayload()
		body["id"] = uuid.New().String()
		recorder := update(&mocks.MockTaskService{}, body)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("matching body ID is accepted", func(t *testing.T) {
		svc := &mocks.MockTaskService{
			UpdateTaskFn: func(
				ctx context.Context,
				_, _ uuid.UUID,
				_ task.UpdateParams,
			) (*domain.Task, error) {
				return mustNewTask(t, ownerID), nil
			},
		}

		body := validTaskPayload()
		body["id"] = taskID.String()
		recorder := update(svc, body)

		assert.Equal(t, http.StatusNoContent, recorder.Code)
	})

	t.Run("unknown task returns 404", func(t *testing.T) {
		recorder := update(&mocks.MockTaskService{}, validTaskPayload())
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("task owned by someone else returns 403", func(t *testing.T) {
		svc := &mocks.MockTaskService{
			UpdateTaskFn: func(
				ctx context.Context,
				_, _ uuid.UUID,
				_ task.UpdateParams,
			) (*domain.Task, error) {
				return nil, task.ErrTaskNotOwned
			},
		}
		recorder := update(svc, validTaskPayload())

		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("concurrent modification returns 409", func(t *testing.T) {
		svc := &mocks.MockTaskService{
			UpdateTaskFn: func(
				ctx context.Context,
				_, _ uuid.UUID,
				_ task.UpdateParams,
			) (*domain.Task, error) {
				return nil, task.ErrUpdateConflict
			},
		}
		recorder := update(svc, validTaskPayload())

		assert.Equal(t, http.StatusConflict, recorder.Code)
	})
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	taskID := uuid.New()

	t.Run("successful delete returns 204", func(t *testing.T) {
		t.Parallel()

		svc := &mocks.MockTaskService{
			DeleteTaskFn: func(ctx context.Context, gotOwner, gotTask uuid.UUID) error {
				assert.Equal(t, ownerID, gotOwner)
				assert.Equal(t, taskID, gotTask)
				return nil
			},
		}
		handler := NewTaskHandler(svc, nil)

		req := newTaskRequest(t, "DELETE", "/api/tasks/"+taskID.String(),
			ownerID, taskID.String(), nil)
		recorder := httptest.NewRecorder()
		handler.Delete(recorder, req)

		assert.Equal(t, http.StatusNoContent, recorder.Code)
	})

	t.Run("unknown task returns 404", func(t *testing.T) {
		t.Parallel()

		handler := NewTaskHandler(&mocks.MockTaskService{}, nil)

		req := newTaskRequest(t, "DELETE", "/api/tasks/"+taskID.String(),
			ownerID, taskID.String(), nil)
		recorder := httptest.NewRecorder()
		handler.Delete(recorder, req)

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}
