package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeSelfShare    ErrorCode = "SELF_SHARE"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation is shorthand for an INVALID error carrying a user-facing message.
func Validation(message string) *Error {
	return NewError(ErrCodeInvalid, message)
}

// Common domain errors.
var (
	ErrUserNotFound          = NewError(ErrCodeNotFound, "user not found")
	ErrTaskNotFound          = NewError(ErrCodeNotFound, "task not found")
	ErrParticipantNotFound   = NewError(ErrCodeNotFound, "participant not found")
	ErrNotificationNotFound  = NewError(ErrCodeNotFound, "notification not found")
	ErrTaskAccessDenied      = NewError(ErrCodeForbidden, "you do not have access to this task")
	ErrEditDenied            = NewError(ErrCodeForbidden, "you do not have permission to edit this task")
	ErrDeleteDenied          = NewError(ErrCodeForbidden, "you do not have permission to delete this task")
	ErrProgressDenied        = NewError(ErrCodeForbidden, "you do not have permission to update progress")
	ErrNotOwner              = NewError(ErrCodeForbidden, "only the task owner can share this task")
	ErrSelfShare             = NewError(ErrCodeSelfShare, "you cannot share a task with yourself")
	ErrAlreadyShared         = NewError(ErrCodeConflict, "task is already shared with this user")
	ErrUserExists            = NewError(ErrCodeConflict, "user with that email or username already exists")
	ErrViewerNotParticipant  = NewError(ErrCodeInternal, "viewer has neither ownership nor a participation row")
	ErrUnauthorized          = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidCredentials    = NewError(ErrCodeUnauthorized, "invalid email or password")
	ErrInvalidPayload        = NewError(ErrCodeInvalid, "invalid payload")
	ErrInvalidStatus         = NewError(ErrCodeInvalid, "invalid status value")
	ErrTitleRequired         = NewError(ErrCodeInvalid, "title is required")
	ErrEmptyUpdate           = NewError(ErrCodeInvalid, "no updates provided")
	ErrShareIdentifierNeeded = NewError(ErrCodeInvalid, "email or username is required to share a task")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
