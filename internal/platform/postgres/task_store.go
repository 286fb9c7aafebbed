package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/platform/logger"
	"github.com/taskhub/taskhub-api/internal/store"
)

// taskColumns is the column list shared by all task queries.
const taskColumns = "id, user_id, title, description, due_date, status, priority, created_at, updated_at"

// priorityRankSQL orders priorities low < medium < high in SQL, matching
// domain.TaskPriority.Rank.
const priorityRankSQL = `
	CASE priority
		WHEN 'low' THEN 0
		WHEN 'medium' THEN 1
		WHEN 'high' THEN 2
		ELSE 3
	END`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create implements store.TaskStore.Create
// Returns validation errors from the domain Task if data is invalid.
// Returns store.ErrInvalidEntity if the owning user does not exist
// (foreign key violation).
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (id, user_id, title, description, due_date, status, priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.DueDate,
		task.Status,
		task.Priority,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation during task creation",
				slog.String("task_id", task.ID.String()),
				slog.String("user_id", task.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, task.UserID)
		}

		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE id = $1`, taskColumns)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, err
	}

	return task, nil
}

// ListByOwner implements store.TaskStore.ListByOwner
// The WHERE clause is composed from the mandatory owner predicate plus one
// predicate per present filter field. Ordering: due date ascending with
// undated tasks last, then priority rank, then creation time.
func (s *PostgresTaskStore) ListByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	filter store.TaskFilter,
	page store.Page,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	predicates := []string{"user_id = $1"}
	args := []any{ownerID}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		predicates = append(predicates, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.DueOnOrBefore != nil {
		// Calendar-day comparison: time-of-day is ignored on both sides, and
		// undated tasks never match.
		args = append(args, *filter.DueOnOrBefore)
		predicates = append(predicates,
			fmt.Sprintf("due_date IS NOT NULL AND due_date::date <= ($%d)::date", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		predicates = append(predicates, fmt.Sprintf("priority = $%d", len(args)))
	}

	args = append(args, page.Size)
	limitPos := len(args)
	args = append(args, page.Offset())
	offsetPos := len(args)

	query := fmt.Sprintf(`
		SELECT %s
		FROM tasks
		WHERE %s
		ORDER BY due_date ASC NULLS LAST, %s ASC, created_at ASC
		LIMIT $%d OFFSET $%d
	`, taskColumns, strings.Join(predicates, " AND "), priorityRankSQL, limitPos, offsetPos)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks by owner",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row",
				slog.String("error", err.Error()))
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	log.Debug("listed tasks by owner",
		slog.String("owner_id", ownerID.String()),
		slog.Int("count", len(tasks)))
	return tasks, nil
}

// Update implements store.TaskStore.Update
// The write is guarded optimistically: the row is matched on both ID and the
// updated_at value the caller read. CreatedAt and user_id are deliberately
// absent from the SET list.
// Returns store.ErrTaskNotFound if no task with the ID exists.
// Returns store.ErrConcurrentUpdate if the task exists but changed since it
// was read.
func (s *PostgresTaskStore) Update(
	ctx context.Context,
	task *domain.Task,
	expectedUpdatedAt time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, due_date = $3, status = $4, priority = $5, updated_at = $6
		WHERE id = $7 AND updated_at = $8
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		task.Title,
		task.Description,
		task.DueDate,
		task.Status,
		task.Priority,
		task.UpdatedAt,
		task.ID,
		expectedUpdatedAt,
	)

	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	if rowsAffected == 0 {
		// Either the task is gone or another writer got there first.
		exists, err := s.exists(ctx, task.ID)
		if err != nil {
			return err
		}
		if !exists {
			log.Debug("task not found for update",
				slog.String("task_id", task.ID.String()))
			return store.ErrTaskNotFound
		}
		log.Debug("concurrent modification detected during task update",
			slog.String("task_id", task.ID.String()))
		return store.ErrConcurrentUpdate
	}

	log.Info("task updated successfully",
		slog.String("task_id", task.ID.String()))
	return nil
}

// Delete implements store.TaskStore.Delete
// The delete is scoped to the owner, so a task owned by someone else reports
// store.ErrTaskNotFound exactly like an absent one.
func (s *PostgresTaskStore) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`

	result, err := s.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("task not found for delete",
			slog.String("task_id", id.String()),
			slog.String("owner_id", ownerID.String()))
		return store.ErrTaskNotFound
	}

	log.Info("task deleted successfully",
		slog.String("task_id", id.String()),
		slog.String("owner_id", ownerID.String()))
	return nil
}

// WithTx implements store.TaskStore.WithTx
// It returns a new store instance bound to the given transaction.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// exists reports whether a task row with the given ID is present.
func (s *PostgresTaskStore) exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row in taskColumns order.
func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var dueDate sql.NullTime
	var status, priority string

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&dueDate,
		&status,
		&priority,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		due := dueDate.Time
		task.DueDate = &due
	}
	task.Status = domain.TaskStatus(status)
	task.Priority = domain.TaskPriority(priority)

	return &task, nil
}
