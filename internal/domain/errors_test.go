package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrConflict,
		ErrValidation,
		ErrForbidden,
		ErrUnavailable,
		ErrUnauthorized,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.NotErrorIs(t, a, b, "sentinels should be distinct: %v vs %v", a, b)
			}
		}
	}
}

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name        string
		entity      string
		id          string
		message     string
		expectedMsg string
	}{
		{
			name:        "with entity and ID",
			entity:      "call",
			id:          "c-1",
			expectedMsg: `call with id "c-1" not found`,
		},
		{
			name:        "with entity only",
			entity:      "auditor",
			expectedMsg: "auditor not found",
		},
		{
			name:        "message overrides generated text",
			entity:      "manager",
			id:          "m@example.com",
			message:     "Manager not found",
			expectedMsg: "Manager not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewNotFoundErrorWithMessage(tt.entity, tt.id, tt.message)

			assert.Equal(t, tt.expectedMsg, err.Error())
			require.ErrorIs(t, err, ErrNotFound)

			var notFound *NotFoundError
			require.ErrorAs(t, err, &notFound)
			assert.Equal(t, tt.entity, notFound.Entity)
			assert.Equal(t, tt.id, notFound.ID)
		})
	}
}

func TestConflictError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		expectedMsg string
	}{
		{
			name:        "basic conflict",
			err:         NewConflictError("auditor", "email already registered"),
			expectedMsg: "auditor conflict: email already registered",
		},
		{
			name:        "with details",
			err:         NewConflictErrorWithDetails("manager", "email already registered", "m@example.com"),
			expectedMsg: "manager conflict: email already registered (m@example.com)",
		},
		{
			name:        "empty details uses basic format",
			err:         NewConflictErrorWithDetails("counsellor", "duplicate", ""),
			expectedMsg: "counsellor conflict: duplicate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedMsg, tt.err.Error())
			require.ErrorIs(t, tt.err, ErrConflict)
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("call_id", "is required")
	assert.Equal(t, "validation failed for call_id: is required", err.Error())
	require.ErrorIs(t, err, ErrValidation)

	err = NewValidationError("", "bad input")
	assert.Equal(t, "validation failed: bad input", err.Error())
}

func TestForbiddenError(t *testing.T) {
	tests := []struct {
		name        string
		operation   string
		reason      string
		expectedMsg string
	}{
		{"with operation and reason", "login", "auditor is not active", `operation "login" forbidden: auditor is not active`},
		{"operation only", "activate", "", `operation "activate" forbidden`},
		{"reason only", "", "Unauthorised access, current user is not manager.", "Unauthorised access, current user is not manager."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewForbiddenError(tt.operation, tt.reason)

			assert.Equal(t, tt.expectedMsg, err.Error())
			require.ErrorIs(t, err, ErrForbidden)
		})
	}
}

func TestUnavailableError(t *testing.T) {
	err := NewUnavailableError("elevenlabs", "circuit open")
	assert.Equal(t, `service "elevenlabs" unavailable: circuit open`, err.Error())
	require.ErrorIs(t, err, ErrUnavailable)

	err = NewUnavailableError("s3", "")
	assert.Equal(t, `service "s3" unavailable`, err.Error())
}

func TestUnauthorizedError(t *testing.T) {
	err := NewUnauthorizedError("Invalid credentials")
	assert.Equal(t, "Invalid credentials", err.Error())
	require.ErrorIs(t, err, ErrUnauthorized)

	var unauthorized *UnauthorizedError
	require.ErrorAs(t, err, &unauthorized)
	assert.Equal(t, "Invalid credentials", unauthorized.Reason)

	assert.Equal(t, "unauthorized", NewUnauthorizedError("").Error())
}

func TestIsHelpers(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		isFunc   func(error) bool
		expected bool
	}{
		{"IsNotFound with NotFoundError", NewNotFoundError("call", "1"), IsNotFound, true},
		{"IsNotFound with wrapped", fmt.Errorf("wrapped: %w", ErrNotFound), IsNotFound, true},
		{"IsNotFound with other error", ErrConflict, IsNotFound, false},
		{"IsNotFound with nil", nil, IsNotFound, false},

		{"IsConflict with ConflictError", NewConflictError("auditor", "exists"), IsConflict, true},
		{"IsConflict with other error", ErrNotFound, IsConflict, false},

		{"IsValidation with ValidationError", NewValidationError("flag", "invalid"), IsValidation, true},
		{"IsValidation with nil", nil, IsValidation, false},

		{"IsForbidden with ForbiddenError", NewForbiddenError("", "no"), IsForbidden, true},
		{"IsForbidden with other error", ErrUnauthorized, IsForbidden, false},

		{"IsUnavailable with UnavailableError", NewUnavailableError("db", "timeout"), IsUnavailable, true},
		{"IsUnavailable with nil", nil, IsUnavailable, false},

		{"IsUnauthorized with UnauthorizedError", NewUnauthorizedError("x"), IsUnauthorized, true},
		{"IsUnauthorized with wrapped", fmt.Errorf("auth: %w", ErrUnauthorized), IsUnauthorized, true},
		{"IsUnauthorized with other error", ErrForbidden, IsUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.isFunc(tt.err))
		})
	}
}

func TestErrorWrappingChain(t *testing.T) {
	original := NewNotFoundErrorWithMessage("call", "c-9", "Call not found for the given auditor.")
	wrapped := fmt.Errorf("layer2: %w", fmt.Errorf("layer1: %w", original))

	assert.True(t, IsNotFound(wrapped))

	var notFound *NotFoundError
	require.ErrorAs(t, wrapped, &notFound)
	assert.Equal(t, "c-9", notFound.ID)
	assert.Equal(t, "Call not found for the given auditor.", notFound.Error())
}
