package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Task validation errors
var (
	ErrEmptyTaskID    = errors.New("task ID cannot be empty")
	ErrEmptyTaskTitle = errors.New("task title cannot be empty")
	ErrEmptyTaskOwner = errors.New("task owner cannot be empty")
)

// TaskStatus represents the descriptive state of a task. There is no
// workflow engine behind it: the owner may set any value on any update,
// including moving a completed task back to pending.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// ParseTaskStatus converts a string into a TaskStatus.
// Returns ErrInvalidTaskStatus for unknown values.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return TaskStatus(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTaskStatus, s)
	}
}

// IsValid reports whether the status is one of the known enumerated values.
func (s TaskStatus) IsValid() bool {
	_, err := ParseTaskStatus(string(s))
	return err == nil
}

// TaskPriority represents the relative importance of a task.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// ParseTaskPriority converts a string into a TaskPriority.
// Returns ErrInvalidTaskPriority for unknown values.
func ParseTaskPriority(s string) (TaskPriority, error) {
	switch TaskPriority(s) {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return TaskPriority(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTaskPriority, s)
	}
}

// IsValid reports whether the priority is one of the known enumerated values.
func (p TaskPriority) IsValid() bool {
	_, err := ParseTaskPriority(string(p))
	return err == nil
}

// Rank returns the sort rank of the priority (low < medium < high).
// Unknown values rank after all known ones.
func (p TaskPriority) Rank() int {
	switch p {
	case TaskPriorityLow:
		return 0
	case TaskPriorityMedium:
		return 1
	case TaskPriorityHigh:
		return 2
	default:
		return 3
	}
}

// Task represents a unit of work owned by a single user. The owner is
// assigned at creation and never changes; CreatedAt is immutable after the
// initial write.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	UserID      uuid.UUID    `json:"user_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewTask creates a new Task owned by the given user. Creation and update
// timestamps are set to the same instant. Returns an error if validation
// fails.
func NewTask(
	userID uuid.UUID,
	title, description string,
	dueDate *time.Time,
	status TaskStatus,
	priority TaskPriority,
) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		DueDate:     dueDate,
		Status:      status,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.UserID == uuid.Nil {
		return ErrEmptyTaskOwner
	}

	if t.Title == "" {
		return ErrEmptyTaskTitle
	}

	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidTaskStatus, t.Status)
	}

	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidTaskPriority, t.Priority)
	}

	return nil
}

// IsOwnedBy reports whether the task belongs to the given user.
func (t *Task) IsOwnedBy(userID uuid.UUID) bool {
	return t.UserID == userID
}
