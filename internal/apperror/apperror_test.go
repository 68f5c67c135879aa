package apperror

import (
	"errors"
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
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("case", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("title", "title is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("not authenticated"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "Store wraps ErrStore",
			err:       Store(errors.New("disk full")),
			target:    ErrStore,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("case", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Unauthorized does NOT match ErrNotFound",
			err:       Unauthorized("session expired"),
			target:    ErrNotFound,
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
			name:        "NotFound message includes resource and id",
			err:         NotFound("case", "abc123"),
			wantMessage: "case not found with id abc123",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("title", "title is required"),
			wantMessage: "title is required",
		},
		{
			name:        "Store never exposes the underlying cause",
			err:         Store(errors.New("sqlite: database is locked")),
			wantMessage: "storage failure",
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

func TestStoreKeepsCauseInChain(t *testing.T) {
	// The cause stays reachable for logs via errors.Is, even though the
	// message hides it.
	cause := errors.New("connection reset")
	err := Store(cause)

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(Store(cause), cause) = false, want true")
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("urls", "url must be absolute")

	if err.Field != "urls" {
		t.Errorf("Field = %q, want %q", err.Field, "urls")
	}
}
