package apperror

import (
	"errors"
	"io/fs"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("code", "code is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Staging wraps ErrStaging",
			err:       Staging(fs.ErrPermission),
			target:    ErrStaging,
			wantMatch: true,
		},
		{
			name:      "Launch wraps ErrLaunch",
			err:       Launch(fs.ErrNotExist),
			target:    ErrLaunch,
			wantMatch: true,
		},
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("run", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed does NOT match ErrStaging",
			err:       ValidationFailed("language", "unsupported language"),
			target:    ErrStaging,
			wantMatch: false,
		},
		{
			name:      "Staging does NOT match ErrLaunch",
			err:       Staging(fs.ErrPermission),
			target:    ErrLaunch,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("code", "code is required"),
			wantMessage: "code is required",
		},
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("run", "abc123"),
			wantMessage: "run not found with id abc123",
		},
		{
			name:        "Staging message includes the cause",
			err:         Staging(errors.New("disk full")),
			wantMessage: "staging workspace: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	// errors.Is only works because Unwrap exposes the sentinel.
	err := Launch(errors.New("exec: not found"))
	if unwrapped := err.Unwrap(); unwrapped != ErrLaunch {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrLaunch)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("language", "unsupported language")
	if err.Field != "language" {
		t.Errorf("Field = %q, want %q", err.Field, "language")
	}
}
