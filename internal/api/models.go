// Package api implements the HTTP surface of the service: request and
// response models, handlers, and the error-to-status translation used at the
// boundary.
package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/domain"
)

// RegisterRequest holds the payload for user registration.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest holds the payload for user login. UsernameOrEmail is treated
// as an email address when it contains an '@'.
type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail" validate:"required"`
	Password        string `json:"password"        validate:"required"`
}

// RegisterResponse is returned on successful registration.
type RegisterResponse struct {
	Message string `json:"message"`
}

// LoginResponse carries the signed JWT for an authenticated session along
// with its expiry time.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TaskRequest is the payload for creating or replacing a task. Status and
// Priority are validated against the domain enums in the handler so the
// client sees which value was rejected.
type TaskRequest struct {
	ID          uuid.UUID  `json:"id,omitempty"`
	Title       string     `json:"title"       validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Status      string     `json:"status"      validate:"required"`
	Priority    string     `json:"priority"    validate:"required"`
}

// TaskResponse is the representation of a task returned to clients.
type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskListResponse wraps a page of tasks together with the paging inputs
// that produced it.
type TaskListResponse struct {
	Tasks    []TaskResponse `json:"tasks"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// ToTaskResponse converts a domain task into its API representation.
func ToTaskResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
