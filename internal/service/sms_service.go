package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/milkdesk/internal/config"
	"github.com/milkdesk/internal/logger"

	"github.com/go-resty/resty/v2"
)

const defaultSMSTemplate = "Your milkdesk login code is %s. It expires in %d minutes."

// SMSSender 短信发送
type SMSSender interface {
	SendOtp(ctx context.Context, mobile, code string, ttl time.Duration) error
}

// SMSService 短信网关客户端
type SMSService struct {
	cfg    config.SMSConfig
	client *resty.Client
}

type smsSendRequest struct {
	To      string `json:"to"`
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

type smsSendResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

// NewSMSService 创建短信服务
func NewSMSService(cfg config.SMSConfig) *SMSService {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	retry := cfg.RetryMax
	if retry < 0 {
		retry = 0
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")).
		SetTimeout(timeout).
		SetRetryCount(retry).
		SetRetryWaitTime(300*time.Millisecond).
		SetHeader("Accept", "application/json")
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		client.SetHeader("X-Api-Key", key)
	}
	return &SMSService{cfg: cfg, client: client}
}

// SendOtp 发送登录验证码
// 未启用短信网关时仅写 debug 日志，便于本地联调。
func (s *SMSService) SendOtp(ctx context.Context, mobile, code string, ttl time.Duration) error {
	message := buildOtpMessage(s.cfg.Template, code, ttl)
	if !s.cfg.Enabled {
		logger.FromContext(ctx).Debugw("sms_disabled_otp_logged",
			"mobile", mobile,
			"code", code,
		)
		return nil
	}
	if strings.TrimSpace(s.cfg.BaseURL) == "" {
		return ErrSMSGatewayNotConfig
	}

	var result smsSendResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(smsSendRequest{To: mobile, Sender: s.cfg.Sender, Message: message}).
		SetResult(&result).
		Post("/messages")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOtpSendFailed, err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusAccepted {
		return fmt.Errorf("%w: status %d", ErrSMSGatewayRejected, resp.StatusCode())
	}
	if !result.Success {
		return fmt.Errorf("%w: %s", ErrSMSGatewayRejected, result.Error)
	}
	logger.FromContext(ctx).Infow("sms_otp_sent",
		"mobile", maskMobile(mobile),
		"message_id", result.MessageID,
	)
	return nil
}

func buildOtpMessage(template, code string, ttl time.Duration) string {
	template = strings.TrimSpace(template)
	if template == "" || strings.Count(template, "%") != 2 {
		template = defaultSMSTemplate
	}
	minutes := int(ttl.Minutes())
	if minutes <= 0 {
		minutes = 1
	}
	return fmt.Sprintf(template, code, minutes)
}

func maskMobile(mobile string) string {
	if len(mobile) < 4 {
		return "****"
	}
	return strings.Repeat("*", len(mobile)-4) + mobile[len(mobile)-4:]
}
