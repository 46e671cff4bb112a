package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeTokenExpired, http.StatusUnauthorized},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := NotFound("Book not found")

	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrValidation))
	assert.Equal(t, "Book not found", err.Error())
}

func TestError_WrappedThroughFmt(t *testing.T) {
	err := fmt.Errorf("lookup: %w", Unauthorized("User ID mismatch"))

	var domainErr *Error
	assert.True(t, As(err, &domainErr))
	assert.Equal(t, CodeUnauthorized, domainErr.Code)
	assert.Equal(t, http.StatusUnauthorized, domainErr.HTTPStatus())
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := New("disk full")
	err := Wrap(cause, CodeInternal, "save history")

	assert.Equal(t, "save history: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, Is(err, ErrInternal))
}

func TestWithDetails_DoesNotMutateSentinel(t *testing.T) {
	detailed := ErrValidation.WithDetails(map[string]string{"userId": "is required"})

	assert.Nil(t, ErrValidation.Details)
	assert.Equal(t, map[string]string{"userId": "is required"}, detailed.Details)
	assert.True(t, Is(detailed, ErrValidation))
}
