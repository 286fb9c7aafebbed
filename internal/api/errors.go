package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/service/auth"
	"github.com/taskhub/taskhub-api/internal/service/task"
	"github.com/taskhub/taskhub-api/internal/store"
)

// MapErrorToStatusCode translates service and store errors into HTTP status
// codes. Handlers call this instead of switching on error types themselves so
// the mapping stays in one place.
func MapErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	// Authentication failures.
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Ownership violations.
	case errors.Is(err, task.ErrTaskNotOwned):
		return http.StatusForbidden

	// Missing resources.
	case errors.Is(err, task.ErrTaskNotFound),
		store.IsNotFoundError(err):
		return http.StatusNotFound

	// Conflicting state.
	case errors.Is(err, task.ErrUpdateConflict),
		store.IsDuplicateError(err):
		return http.StatusConflict

	// Input validation failures.
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrInvalidPassword),
		errors.Is(err, domain.ErrInvalidTaskStatus),
		errors.Is(err, domain.ErrInvalidTaskPriority),
		errors.Is(err, domain.ErrEmptyTaskID),
		errors.Is(err, domain.ErrEmptyTaskTitle),
		errors.Is(err, domain.ErrEmptyTaskOwner),
		errors.Is(err, domain.ErrEmptyUsername),
		errors.Is(err, domain.ErrEmptyEmail),
		errors.Is(err, domain.ErrEmptyPassword),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrPasswordTooLong),
		errors.Is(err, domain.ErrPasswordNoSpecial):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-safe message for the given error.
// Internal details never leak into responses; 5xx conditions collapse to a
// generic message and the real error goes to the logs.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"
	case errors.Is(err, domain.ErrUnauthorized):
		return "Invalid credentials"
	case errors.Is(err, task.ErrTaskNotOwned):
		return "You do not have permission to access this task"
	case errors.Is(err, task.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, store.ErrUsernameExists):
		return "Username is already taken"
	case errors.Is(err, store.ErrEmailExists):
		return "Email is already registered"
	case errors.Is(err, task.ErrUpdateConflict):
		return "The task was modified by another request; retry with the latest version"
	case errors.Is(err, domain.ErrPasswordTooShort):
		return "Password must be at least 8 characters long"
	case errors.Is(err, domain.ErrPasswordTooLong):
		return "Password must be at most 72 characters long"
	case errors.Is(err, domain.ErrPasswordNoSpecial):
		return "Password must contain at least one non-alphanumeric character"
	case errors.Is(err, domain.ErrInvalidTaskStatus):
		return "Invalid task status"
	case errors.Is(err, domain.ErrInvalidTaskPriority):
		return "Invalid task priority"
	case MapErrorToStatusCode(err) == http.StatusBadRequest:
		// Remaining validation sentinels carry messages written for clients.
		return err.Error()
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError converts validator.ValidationErrors into a
// client-facing message naming the offending fields without exposing struct
// internals. Other errors pass through GetSafeErrorMessage.
func SanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return GetSafeErrorMessage(err)
	}

	fields := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		fields = append(fields, fe.Field())
	}
	return "Invalid request: check the following fields: " + strings.Join(fields, ", ")
}
