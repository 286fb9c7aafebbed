package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
)

// Default and maximum pagination bounds for task listings.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// TaskFilter holds the optional predicates for listing tasks. Nil fields are
// not applied. All predicates are combined with the mandatory owner
// restriction.
type TaskFilter struct {
	// Status restricts results to tasks with exactly this status.
	Status *domain.TaskStatus

	// DueOnOrBefore restricts results to tasks whose due date's calendar day
	// is on or before this day. Time-of-day is ignored on both sides; tasks
	// without a due date never match.
	DueOnOrBefore *time.Time

	// Priority restricts results to tasks with exactly this priority.
	Priority *domain.TaskPriority
}

// Page describes an offset-based pagination window.
type Page struct {
	Number int // 1-based page number
	Size   int // items per page
}

// Normalize clamps the page to valid bounds, applying defaults for
// unspecified (zero or negative) values and capping the size at MaxPageSize.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = DefaultPage
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset returns the number of rows to skip for this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns validation errors from the domain Task if data is invalid.
	// Returns ErrInvalidEntity if the owning user does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID regardless of owner.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ListByOwner retrieves the owner's tasks matching the filter, ordered by
	// due date ascending with undated tasks last, then by priority rank
	// (low < medium < high), then by creation time for stability. The page
	// must already be normalized by the caller.
	ListByOwner(
		ctx context.Context,
		ownerID uuid.UUID,
		filter TaskFilter,
		page Page,
	) ([]*domain.Task, error)

	// Update overwrites the mutable fields of an existing task. The match is
	// optimistic: the row is only written if its updated_at still equals
	// expectedUpdatedAt. CreatedAt and UserID are never written.
	// Returns ErrTaskNotFound if no task with the given ID exists.
	// Returns ErrConcurrentUpdate if the task exists but was modified since
	// it was read.
	Update(ctx context.Context, task *domain.Task, expectedUpdatedAt time.Time) error

	// Delete removes the task with the given ID if it is owned by ownerID.
	// Returns ErrTaskNotFound both when the task does not exist and when it
	// belongs to a different owner.
	Delete(ctx context.Context, ownerID, id uuid.UUID) error

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) TaskStore
}
