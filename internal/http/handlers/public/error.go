package public

import (
	handlershared "github.com/milkdesk/internal/http/handlers/shared"
	"github.com/milkdesk/internal/http/response"
	"github.com/milkdesk/internal/service"

	"github.com/gin-gonic/gin"
)

var loginErrorRules = []handlershared.MappedError{
	{Target: service.ErrInvalidCredentials, Code: response.CodeUnauthorized, Key: "error.invalid_credentials"},
	{Target: service.ErrAdminDisabled, Code: response.CodeForbidden, Key: "error.admin_disabled"},
	{Target: service.ErrCaptchaRequired, Code: response.CodeBadRequest, Key: "error.captcha_required"},
	{Target: service.ErrCaptchaInvalid, Code: response.CodeBadRequest, Key: "error.captcha_invalid"},
	{Target: service.ErrCaptchaConfigInvalid, Code: response.CodeInternal, Key: "error.captcha_unavailable"},
}

var otpErrorRules = append([]handlershared.MappedError{
	{Target: service.ErrMobileInvalid, Code: response.CodeBadRequest, Key: "error.mobile_invalid"},
	{Target: service.ErrOtpMobileUnknown, Code: response.CodeNotFound, Key: "error.otp_mobile_unknown"},
	{Target: service.ErrOtpSessionNotFound, Code: response.CodeNotFound, Key: "error.otp_session_not_found"},
	{Target: service.ErrOtpSessionClosed, Code: response.CodeBadRequest, Key: "error.otp_session_closed"},
	{Target: service.ErrOtpCodeFormat, Code: response.CodeBadRequest, Key: "error.otp_code_format"},
	{Target: service.ErrOtpInvalid, Code: response.CodeBadRequest, Key: "error.otp_invalid"},
	{Target: service.ErrOtpExpired, Code: response.CodeBadRequest, Key: "error.otp_expired"},
	{Target: service.ErrOtpTooManyAttempts, Code: response.CodeTooManyRequests, Key: "error.otp_too_many_attempts"},
	{Target: service.ErrSMSGatewayNotConfig, Code: response.CodeUnavailable, Key: "error.sms_gateway_not_configured"},
	{Target: service.ErrSMSGatewayRejected, Code: response.CodeUnavailable, Key: "error.otp_send_failed"},
	{Target: service.ErrOtpSendFailed, Code: response.CodeUnavailable, Key: "error.otp_send_failed"},
}, loginErrorRules...)

func respondMappedError(c *gin.Context, err error, rules []handlershared.MappedError, fallbackKey string) {
	handlershared.RespondMappedError(c, err, rules, response.CodeInternal, fallbackKey)
}
