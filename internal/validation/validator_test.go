package validation_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/pagewise/pagewise-server/internal/errors"
	"github.com/pagewise/pagewise-server/internal/validation"
)

type historyRequest struct {
	UserID string `json:"userId" validate:"required,notblank"`
	Title  string `json:"title" validate:"required,notblank,max=512"`
}

type loginRequest struct {
	User *struct {
		UID   string `json:"uid" validate:"required"`
		Email string `json:"email" validate:"omitempty,email"`
	} `json:"user" validate:"required"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(historyRequest{UserID: "u1", Title: "Dune"}))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       historyRequest
		wantField string
	}{
		{"missing user", historyRequest{Title: "Dune"}, "userId"},
		{"blank title", historyRequest{UserID: "u1", Title: "   "}, "title"},
		{"title too long", historyRequest{UserID: "u1", Title: string(make([]byte, 513))}, "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
		})
	}
}

func TestValidator_NestedFieldPath(t *testing.T) {
	v := validation.New()

	err := v.Validate(loginRequest{})
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, map[string]string{"user": "is required"}, domainErr.Details)
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(historyRequest{Title: "Dune"})
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)

	details := domainErr.Details.(map[string]string)
	assert.Contains(t, details, "userId")
	assert.NotContains(t, details, "UserID")
}
