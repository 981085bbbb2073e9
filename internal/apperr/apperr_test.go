package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
	}{
		{KindBadRequest, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindNoContent, http.StatusNoContent},
		{KindConflict, http.StatusConflict},
		{KindForbidden, http.StatusForbidden},
		{KindTransient, http.StatusServiceUnavailable},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.kind.HTTPStatus())
		})
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("row not found")
	err := Wrap(KindNotFound, cause, "employee not found with ID: %s", "EMP010")

	require.Error(t, err)
	assert.True(t, Is(err, KindNotFound))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "EMP010")
}

func TestWrapNilIsNil(t *testing.T) {
	assert.NoError(t, Wrap(KindTransient, nil, "ignored"))
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestKindOfWrappedDeep(t *testing.T) {
	inner := New(KindConflict, "employee ID %q already exists", "EMP010")
	outer := fmt.Errorf("seeding admin: %w", inner)

	assert.Equal(t, KindConflict, KindOf(outer))
	assert.True(t, Is(outer, KindConflict))
	assert.False(t, Is(outer, KindNotFound))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "folder name is required", MessageOf(New(KindBadRequest, "folder name is required")))

	// Unclassified internals never leak their message to a client.
	assert.Equal(t, "internal server error", MessageOf(errors.New("pq: connection reset")))
}
