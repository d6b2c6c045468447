package services

import (
	"errors"
	"fmt"

	"github.com/mohammedtarek206/elamid/internal/validator"
)

// ===== SENTINEL ERRORS =====

var (
	// Generic
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("resource conflict")

	// Authentication
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidStudentCode = errors.New("invalid or inactive student code")
	ErrUnauthenticated    = errors.New("please authenticate")
	ErrSessionSuperseded  = errors.New("logged in from another device")
	ErrAccountDisabled    = errors.New("account is disabled")

	// ErrSessionContention means the login retries ran out. It maps to a 500.
	ErrSessionContention = errors.New("session store contention")

	// Exams
	ErrExamNotFound        = fmt.Errorf("exam %w", ErrNotFound)
	ErrQuestionNotFound    = fmt.Errorf("question %w", ErrNotFound)
	ErrStudentNotFound     = fmt.Errorf("student %w", ErrNotFound)
	ErrVideoNotFound       = fmt.Errorf("video %w", ErrNotFound)
	ErrResultNotFound      = fmt.Errorf("result %w", ErrNotFound)
	ErrExamInactive        = errors.New("exam is not active")
	ErrAttemptLimitReached = errors.New("attempt limit reached")
	ErrExamDeadlinePassed  = errors.New("exam deadline has passed")
	ErrInvalidAttemptToken = errors.New("missing or invalid attempt token")
)

// ===== TYPED ERRORS =====

type ValidationErrors = validator.ValidationErrors
type ValidationError = validator.ValidationError

// NewValidationError builds a single-field validation failure
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
		Rule:    "business_logic",
	}
}

// PermissionError reports a principal acting on a resource it may not touch
type PermissionError struct {
	PrincipalID uint
	ResourceID  uint
	Resource    string
	Action      string
	Reason      string
}

func NewPermissionError(principalID, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		PrincipalID: principalID,
		ResourceID:  resourceID,
		Resource:    resource,
		Action:      action,
		Reason:      reason,
	}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: cannot %s %s %d: %s", e.Action, e.Resource, e.ResourceID, e.Reason)
}

func (e *PermissionError) Unwrap() error { return ErrForbidden }

// BusinessRuleError reports a request that is well formed but not allowed now
type BusinessRuleError struct {
	Rule    string
	Message string
	Context map[string]interface{}
	Err     error
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}, err error) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
		Err:     err,
	}
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule %s violated: %s", e.Rule, e.Message)
}

func (e *BusinessRuleError) Unwrap() error { return e.Err }
