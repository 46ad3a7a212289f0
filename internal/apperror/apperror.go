package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrStaging    = errors.New("staging failed")
	ErrLaunch     = errors.New("launch failed")
	ErrNotFound   = errors.New("not found")
)

type AppError struct {
	Err     error  // sentinel, checked with errors.Is
	Message string // human-readable message, safe to show the caller
	Field   string // optional: request field that caused a validation failure
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// Staging wraps a filesystem failure while preparing a workspace.
// These are environment problems, not caller mistakes; handlers map
// them to 500 and they are logged as incidents.
func Staging(err error) *AppError {
	return &AppError{
		Err:     ErrStaging,
		Message: fmt.Sprintf("staging workspace: %v", err),
	}
}

// Launch wraps a failure to start the interpreter process (missing
// binary, permission). Mapped to 500 like staging failures.
func Launch(err error) *AppError {
	return &AppError{
		Err:     ErrLaunch,
		Message: fmt.Sprintf("launching interpreter: %v", err),
	}
}
