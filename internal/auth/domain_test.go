package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfdesk/internal/web"
)

func TestLoginInputValidate(t *testing.T) {
	tests := []struct {
		name  string
		in    LoginInput
		field string
	}{
		{"valid", LoginInput{Email: "reader@example.com", Password: "secret1"}, ""},
		{"missing email", LoginInput{Password: "secret1"}, "email"},
		{"malformed email", LoginInput{Email: "not-an-email", Password: "secret1"}, "email"},
		{"short password", LoginInput{Email: "reader@example.com", Password: "abc"}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}

			var webErr *web.Error
			require.True(t, errors.As(err, &webErr))
			assert.Contains(t, webErr.Fields, tt.field)
		})
	}
}

func TestRegisterInputMismatchReportsConfirmPassword(t *testing.T) {
	in := RegisterInput{
		Email:           "reader@example.com",
		Password:        "secret123",
		ConfirmPassword: "secret124",
	}

	err := in.Validate()
	require.Error(t, err)

	var webErr *web.Error
	require.True(t, errors.As(err, &webErr))
	assert.Equal(t, []string{"confirmPassword"}, fieldsOf(webErr))
	assert.Equal(t, "passwords do not match", webErr.Fields["confirmPassword"])
}

func TestRegisterInputValid(t *testing.T) {
	in := RegisterInput{
		Email:           "reader@example.com",
		Password:        "secret123",
		ConfirmPassword: "secret123",
		FullName:        "A Reader",
	}
	assert.NoError(t, in.Validate())
}

func fieldsOf(err *web.Error) []string {
	var fields []string
	for field := range err.Fields {
		fields = append(fields, field)
	}
	return fields
}
