package service

import (
	"unicode"

	"github.com/milkdesk/internal/config"
)

const defaultPasswordMinLength = 8

// PasswordPolicyError 密码策略校验失败，携带提示文案键与参数
type PasswordPolicyError struct {
	key    string
	args   []interface{}
	target error
}

func (e PasswordPolicyError) Error() string {
	return e.key
}

// Is 支持 errors.Is(err, ErrPasswordTooShort / ErrWeakPassword)
func (e PasswordPolicyError) Is(target error) bool {
	return target == e.target
}

// Key 文案键
func (e PasswordPolicyError) Key() string {
	return e.key
}

// Args 文案参数
func (e PasswordPolicyError) Args() []interface{} {
	return e.args
}

func validatePassword(policy config.PasswordPolicyConfig, password string) error {
	minLength := policy.MinLength
	if minLength <= 0 {
		minLength = defaultPasswordMinLength
	}
	if len([]rune(password)) < minLength {
		return PasswordPolicyError{key: "error.password_too_short", args: []interface{}{minLength}, target: ErrPasswordTooShort}
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasNumber = true
		default:
			hasSpecial = true
		}
	}

	if policy.RequireUpper && !hasUpper {
		return PasswordPolicyError{key: "error.password_need_upper", target: ErrWeakPassword}
	}
	if policy.RequireLower && !hasLower {
		return PasswordPolicyError{key: "error.password_need_lower", target: ErrWeakPassword}
	}
	if policy.RequireNumber && !hasNumber {
		return PasswordPolicyError{key: "error.password_need_digit", target: ErrWeakPassword}
	}
	if policy.RequireSpecial && !hasSpecial {
		return PasswordPolicyError{key: "error.password_need_mark", target: ErrWeakPassword}
	}
	return nil
}
