package validation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/mimirswell/mimirswell-server/internal/errors"
	"github.com/mimirswell/mimirswell-server/internal/validation"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
	Name     string `json:"name" validate:"required"`
}

type preferencesRequest struct {
	ReminderTime *string `json:"reminderTime,omitempty" validate:"omitempty,hhmm"`
	Status       string  `json:"status,omitempty" validate:"omitempty,libstatus"`
	Pages        int     `json:"pages" validate:"gt=0"`
}

func TestValidator_Success(t *testing.T) {
	v := validation.New()
	assert.NoError(t, v.Validate(registerRequest{Email: "a@example.com", Password: "password123", Name: "Ada"}))
}

func TestValidator_FieldErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name  string
		req   registerRequest
		field string
		msg   string
	}{
		{"missing name", registerRequest{Email: "a@example.com", Password: "password123"}, "name", "is required"},
		{"bad email", registerRequest{Email: "nope", Password: "password123", Name: "A"}, "email", "must be a valid email address"},
		{"short password", registerRequest{Email: "a@example.com", Password: "short", Name: "A"}, "password", "must be at least 8 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domainerrors.ErrValidation))

			var derr *domainerrors.Error
			require.True(t, errors.As(err, &derr))
			details, ok := derr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.msg, details[tt.field])
			assert.Contains(t, derr.Message, tt.field)
		})
	}
}

func TestValidator_CustomTags(t *testing.T) {
	v := validation.New()

	good := "20:30"
	assert.NoError(t, v.Validate(preferencesRequest{ReminderTime: &good, Status: "reading", Pages: 1}))
	assert.NoError(t, v.Validate(preferencesRequest{Pages: 1}))

	bad := "8pm"
	err := v.Validate(preferencesRequest{ReminderTime: &bad, Pages: 1})
	require.Error(t, err)
	var derr *domainerrors.Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "must be a time in HH:MM format", derr.Details.(map[string]string)["reminderTime"])

	err = v.Validate(preferencesRequest{Status: "abandoned", Pages: 1})
	require.Error(t, err)

	err = v.Validate(preferencesRequest{Pages: 0})
	require.Error(t, err)
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "must be greater than 0", derr.Details.(map[string]string)["pages"])
}
