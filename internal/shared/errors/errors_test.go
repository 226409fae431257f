package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Behavior(t *testing.T) {
	err := NewValidationError("invalid input").WithCode("invalid_sheet").WithDetail("field", "sheets").WithComponent("formgen")
	assert.Equal(t, ErrorTypeValidation, err.Type)
	assert.Equal(t, "invalid input", err.Message)
	assert.Equal(t, "invalid_sheet", err.Code)
	assert.Equal(t, "formgen", err.Component)
	assert.Equal(t, "sheets", err.Details["field"])
	assert.Equal(t, "invalid input", err.Error())
}

func TestAppError_WithCause_Unwrap(t *testing.T) {
	err := NewNotFoundError("project").WithCause(ErrNotFound)
	assert.Equal(t, ErrNotFound, err.Unwrap())
	assert.Equal(t, "project not found: resource not found", err.Error())
}

func TestValidationErrors(t *testing.T) {
	ve := NewValidationErrors()
	assert.Nil(t, ve.ToAppError())

	ve.Add("name", "must be set", "")
	assert.True(t, ve.HasErrors())
	appErr := ve.ToAppError()
	assert.NotNil(t, appErr)
	assert.Equal(t, ErrorTypeValidation, appErr.Type)
	assert.Equal(t, "validation failed: must be set", ve.Error())
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("loading project: %w", NewNotFoundError("project"))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsValidation(wrapped))

	assert.True(t, IsValidation(NewValidationError("bad")))
	assert.True(t, IsAuthentication(NewAuthenticationError("bad")))
	assert.True(t, IsAuthorization(NewAuthorizationError("bad")))
	assert.True(t, IsConflict(NewConflictError("dup")))
	assert.True(t, IsUpstream(fmt.Errorf("x: %w", ErrUpstream)))
}

func TestWrapError(t *testing.T) {
	original := NewConflictError("dup")
	assert.Same(t, original, WrapError(original, "ignored"))

	plain := errors.New("socket closed")
	wrapped := WrapError(plain, "saving metadata")
	assert.Equal(t, ErrorTypeInternal, wrapped.Type)
	assert.ErrorIs(t, wrapped, plain)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"app not found", NewNotFoundError("metadata"), http.StatusNotFound, "not_found"},
		{"app upstream", NewUpstreamError("form generator down"), http.StatusBadGateway, "upstream_error"},
		{"custom code", NewValidationError("bad").WithCode("invalid_tab"), http.StatusBadRequest, "invalid_tab"},
		{"sentinel forbidden", fmt.Errorf("x: %w", ErrForbidden), http.StatusForbidden, "forbidden"},
		{"sentinel invalid", ErrInvalidInput, http.StatusBadRequest, "validation_error"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := HTTPStatus(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestPublicMessage_DropsCause(t *testing.T) {
	err := NewUpstreamError("Failed to connect to API").
		WithCause(errors.New("dial tcp 10.0.0.7:8000: connection refused"))
	assert.Equal(t, "Failed to connect to API", PublicMessage(err))
	assert.Equal(t, "Failed to connect to API", PublicMessage(fmt.Errorf("polling: %w", err)))
	assert.Equal(t, "boom", PublicMessage(errors.New("boom")))
}
