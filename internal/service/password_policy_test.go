package service

import (
	"errors"
	"testing"

	"github.com/milkdesk/internal/config"

	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	strict := config.PasswordPolicyConfig{MinLength: 10, RequireUpper: true, RequireLower: true, RequireNumber: true, RequireSpecial: true}
	cases := []struct {
		name     string
		policy   config.PasswordPolicyConfig
		password string
		target   error
		key      string
	}{
		{"default length", config.PasswordPolicyConfig{}, "short7!", ErrPasswordTooShort, "error.password_too_short"},
		{"default ok", config.PasswordPolicyConfig{}, "eightchr", nil, ""},
		{"missing upper", strict, "dairy-2024-run", ErrWeakPassword, "error.password_need_upper"},
		{"missing lower", strict, "DAIRY-2024-RUN", ErrWeakPassword, "error.password_need_lower"},
		{"missing digit", strict, "Dairy-Morning-Run", ErrWeakPassword, "error.password_need_digit"},
		{"missing symbol", strict, "DairyMorning2024", ErrWeakPassword, "error.password_need_mark"},
		{"strict ok", strict, "Dairy-Morning-2024", nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePassword(tc.policy, tc.password)
			if tc.target == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.target)
			var policyErr PasswordPolicyError
			require.True(t, errors.As(err, &policyErr))
			require.Equal(t, tc.key, policyErr.Key())
		})
	}

	err := validatePassword(config.PasswordPolicyConfig{MinLength: 12}, "tooshort")
	var policyErr PasswordPolicyError
	require.True(t, errors.As(err, &policyErr))
	require.Equal(t, []interface{}{12}, policyErr.Args())
}
