package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/pverel/imageforge-api/internal/domain"
	"github.com/pverel/imageforge-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrValidation, http.StatusBadRequest},
		{domain.ErrInvalidID, http.StatusBadRequest},
		{domain.ErrConfiguration, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", domain.ErrValidation), http.StatusBadRequest},
		{domain.ErrTaskNotFound, http.StatusNotFound},
		{store.ErrTaskNotFound, http.StatusNotFound},
		{store.ErrImageNotFound, http.StatusNotFound},
		{store.ErrFilenameExists, http.StatusConflict},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err), "error: %v", tc.err)
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
	assert.Equal(t, "Task not found", GetSafeErrorMessage(store.ErrTaskNotFound))
	assert.Equal(t, "Image not found", GetSafeErrorMessage(store.ErrImageNotFound))

	// Internal detail never passes through.
	internal := errors.New("pq: connection refused at 10.0.0.5:5432")
	msg := GetSafeErrorMessage(internal)
	assert.Equal(t, "An unexpected error occurred", msg)
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	v := validator.New()

	err := v.Struct(CreateTaskRequest{Count: 1})
	assert.Equal(t, "Invalid Prompt: required field", SanitizeValidationError(err))

	err = v.Struct(CreateTaskRequest{Prompt: "a cat", Count: 99})
	assert.Equal(t, "Invalid Count: value too large", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("boom")))
}
