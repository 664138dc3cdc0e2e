package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name    string
		err     *Error
		status  int
		message string
	}{
		{"BadRequest", BadRequest(), http.StatusBadRequest, "Bad request."},
		{"NotAuthenticated", NotAuthenticated(), http.StatusUnauthorized, "Unauthorized operation. Maybe forgot the authentication step ?"},
		{"PermissionDenied", PermissionDenied(), http.StatusForbidden, "Forbidden operation. Make sure you have the right permissions."},
		{"NotFound", NotFound(), http.StatusNotFound, "The requested resource is not found."},
		{"MethodNotAllowed", MethodNotAllowed(), http.StatusMethodNotAllowed, "HTTP Method not allowed."},
		{"UnsupportedMediaType", UnsupportedMediaType(), http.StatusUnsupportedMediaType, "Unsupported Media Type. Check your request's Content-Type."},
		{"InternalServerError", InternalServerError(), http.StatusInternalServerError, "An unknown server error occured."},
		{"ServiceUnavailable", ServiceUnavailable(), http.StatusServiceUnavailable, "The requested service is unavailable."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, tc.err.Status)
			assert.Equal(t, tc.message, tc.err.Message)
		})
	}
}

func TestErrorWithMessage(t *testing.T) {
	original := NotFound()
	overridden := original.WithMessage("No such order.")

	// The override is a copy, the original keeps its default message
	assert.Equal(t, "No such order.", overridden.Message)
	assert.Equal(t, "The requested resource is not found.", original.Message)
	assert.Equal(t, original.Status, overridden.Status)
}

func TestErrorIsMatchesByStatus(t *testing.T) {
	t.Run("SameStatus", func(t *testing.T) {
		assert.True(t, errors.Is(NotFound().WithMessage("gone"), NotFound()))
	})

	t.Run("DifferentStatus", func(t *testing.T) {
		assert.False(t, errors.Is(NotFound(), BadRequest()))
	})

	t.Run("Wrapped", func(t *testing.T) {
		err := fmt.Errorf("lookup failed: %w", NotFound())
		assert.True(t, errors.Is(err, NotFound()))

		var apiErr *Error
		assert.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusNotFound, apiErr.Status)
	})
}

func TestMethodSets(t *testing.T) {
	assert.Len(t, AllMethods, 9)

	t.Run("SupportsPayload", func(t *testing.T) {
		assert.True(t, SupportsPayload(http.MethodPost))
		assert.True(t, SupportsPayload(http.MethodPut))
		assert.True(t, SupportsPayload(http.MethodPatch))
		assert.False(t, SupportsPayload(http.MethodGet))
		assert.False(t, SupportsPayload(http.MethodDelete))
	})

	t.Run("IsSafe", func(t *testing.T) {
		assert.True(t, IsSafe(http.MethodGet))
		assert.True(t, IsSafe(http.MethodHead))
		assert.True(t, IsSafe(http.MethodOptions))
		assert.False(t, IsSafe(http.MethodPost))
	})

	t.Run("KnownMethod", func(t *testing.T) {
		assert.True(t, KnownMethod(http.MethodTrace))
		assert.False(t, KnownMethod("BREW"))
	})
}
