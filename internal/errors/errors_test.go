package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodePersistence, http.StatusInternalServerError},
		{CodeNotification, http.StatusBadGateway},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.code.HTTPStatus(), string(tt.code))
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := Validationf("currentPage must be positive, got %d", -1)

	assert.True(t, Is(err, ErrValidation))
	assert.False(t, Is(err, ErrNotFound))
	assert.Equal(t, "currentPage must be positive, got -1", err.Error())
}

func TestPersistence_WrapsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Persistence(cause, "save progress")

	assert.True(t, Is(err, ErrPersistence))
	assert.True(t, Is(err, cause))
	assert.Equal(t, "save progress: connection refused", err.Error())
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
}

func TestWithDetails_DoesNotMutateSentinel(t *testing.T) {
	detailed := ErrValidation.WithDetails(map[string]string{"bookId": "required"})

	assert.Nil(t, ErrValidation.Details)
	assert.NotNil(t, detailed.Details)
	assert.True(t, Is(detailed, ErrValidation))
}
