package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/grading-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Quiz and attempt errors
	ErrQuizNotFound            = errors.New("quiz not found")
	ErrAttemptNotFound         = errors.New("attempt not found")
	ErrAttemptAccessDenied     = errors.New("access denied to attempt")
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")
	ErrAttemptNotGradable      = errors.New("attempt must be submitted before grading")
	ErrAttemptLimitExceeded    = errors.New("maximum attempts exceeded")
	ErrAttemptInProgress       = errors.New("an attempt is already in progress")
	ErrAttemptTimeExpired      = errors.New("attempt time has expired")
	ErrAnswerNotFound          = errors.New("answer not found")

	// Gradebook errors
	ErrCourseNotFound      = errors.New("course not found")
	ErrStudentNotEnrolled  = errors.New("student is not enrolled in course")
	ErrSchemeNotConfigured = apperrors.NewConfigurationError("grading_scheme", "course has no grading scheme")
)

// ===== CUSTOM ERROR TYPES =====

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID string `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrAnswerNotFound) ||
		errors.Is(err, ErrCourseNotFound) ||
		errors.Is(err, ErrStudentNotEnrolled)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrAttemptAccessDenied) {
		return true
	}
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	return apperrors.IsValidation(err)
}

// IsConfiguration reports a quiz or gradebook that cannot be graded as configured.
func IsConfiguration(err error) bool {
	return apperrors.IsConfiguration(err) || apperrors.IsUnsupported(err)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrAttemptAlreadySubmitted) ||
		errors.Is(err, ErrAttemptNotGradable) ||
		errors.Is(err, ErrAttemptLimitExceeded) ||
		errors.Is(err, ErrAttemptInProgress) ||
		errors.Is(err, ErrAttemptTimeExpired)
}
