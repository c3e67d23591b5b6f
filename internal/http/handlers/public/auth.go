package public

import (
	"errors"
	"strings"

	handlershared "github.com/milkdesk/internal/http/handlers/shared"
	"github.com/milkdesk/internal/http/response"
	"github.com/milkdesk/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest 账号密码登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SendOtpRequest 获取短信验证码请求
type SendOtpRequest struct {
	Mobile string `json:"mobile" binding:"required"`
	handlershared.CaptchaPayloadRequest
}

// OtpSessionRequest 针对已有验证码会话的请求
type OtpSessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// VerifyOtpRequest 校验短信验证码请求
type VerifyOtpRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Code      string `json:"code" binding:"required"`
}

// Login 员工账号密码登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	session, err := h.AuthService.Login(c.Request.Context(), req.Username, req.Password, loginContext(c))
	if err != nil {
		respondMappedError(c, err, loginErrorRules, "error.login_failed")
		return
	}
	response.Success(c, session)
}

// SendOtp 向员工手机号发送登录验证码
func (h *Handler) SendOtp(c *gin.Context) {
	var req SendOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	challenge, err := h.OtpLoginService.SendOtp(c.Request.Context(), service.SendOtpInput{
		Mobile:  req.Mobile,
		Captcha: req.ToServicePayload(),
		Meta:    loginContext(c),
	})
	if err != nil {
		respondMappedError(c, err, otpErrorRules, "error.otp_send_failed")
		return
	}
	response.Success(c, challenge)
}

// ResendOtp 倒计时结束后重发验证码
func (h *Handler) ResendOtp(c *gin.Context) {
	var req OtpSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	challenge, err := h.OtpLoginService.ResendOtp(c.Request.Context(), strings.TrimSpace(req.SessionID))
	if err != nil {
		var early *service.ResendTooEarlyError
		if errors.As(err, &early) {
			handlershared.RespondErrorWithData(c, response.CodeTooManyRequests, "error.otp_resend_too_early", gin.H{
				"remaining_seconds": early.RemainingSeconds,
			})
			return
		}
		respondMappedError(c, err, otpErrorRules, "error.otp_send_failed")
		return
	}
	response.Success(c, challenge)
}

// VerifyOtp 校验验证码并签发登录态
func (h *Handler) VerifyOtp(c *gin.Context) {
	var req VerifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	session, err := h.OtpLoginService.VerifyOtp(c.Request.Context(), service.VerifyOtpInput{
		SessionID: strings.TrimSpace(req.SessionID),
		Code:      req.Code,
		Meta:      loginContext(c),
	})
	if err != nil {
		respondMappedError(c, err, otpErrorRules, "error.login_failed")
		return
	}
	response.Success(c, session)
}

// GetOtpStatus 查询验证码会话状态（倒计时剩余秒数）
func (h *Handler) GetOtpStatus(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	status, err := h.OtpLoginService.Status(sessionID)
	if err != nil {
		respondMappedError(c, err, otpErrorRules, "error.internal")
		return
	}
	response.Success(c, status)
}

// CancelOtp 取消验证码会话，回到初始状态
func (h *Handler) CancelOtp(c *gin.Context) {
	var req OtpSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.OtpLoginService.CancelOtp(c.Request.Context(), strings.TrimSpace(req.SessionID)); err != nil {
		respondMappedError(c, err, otpErrorRules, "error.internal")
		return
	}
	requestLog(c).Infow("public_otp_cancelled", "session_id", strings.TrimSpace(req.SessionID))
	response.Success(c, gin.H{"cancelled": true})
}
