package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/milkdesk/internal/config"
	"github.com/milkdesk/internal/http/response"
	"github.com/milkdesk/internal/i18n"
	"github.com/milkdesk/internal/logger"
	"github.com/milkdesk/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 从请求中取出限流主体，返回空串时退回客户端 IP
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 限流规则
// 超过 MaxRequests 后计数 key 的过期时间延长为 BlockSeconds
type RateLimitRule struct {
	Name          string
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	BlockSeconds  int
	MessageKey    string
}

func (r RateLimitRule) enabled() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

// authRateLimits 登录入口的限流规则
type authRateLimits struct {
	staffLogin RateLimitRule
	otpSend    RateLimitRule
	otpVerify  RateLimitRule
}

// newAuthRateLimits 员工密码登录与 OTP 校验共用登录限额，OTP 下发单独计数
func newAuthRateLimits(redisPrefix string, cfg config.SecurityConfig) authRateLimits {
	build := func(name string, limit config.LoginRateLimitConfig, messageKey string) RateLimitRule {
		return RateLimitRule{
			Name:          name,
			Prefix:        fmt.Sprintf("%s:rate:%s", redisPrefix, name),
			WindowSeconds: limit.WindowSeconds,
			MaxRequests:   limit.MaxAttempts,
			BlockSeconds:  limit.BlockSeconds,
			MessageKey:    messageKey,
		}
	}
	return authRateLimits{
		staffLogin: build("staff_login", cfg.LoginRateLimit, "error.login_rate_limited"),
		otpSend:    build("otp_send", cfg.OtpRateLimit, "error.otp_send_rate_limited"),
		otpVerify:  build("otp_verify", cfg.LoginRateLimit, "error.otp_verify_rate_limited"),
	}
}

var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local block = tonumber(ARGV[3])
if block > 0 and current == tonumber(ARGV[2]) + 1 then
	redis.call("EXPIRE", KEYS[1], block)
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

// RateLimitMiddleware 按规则计数，Redis 不可用时拒绝请求
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || !rule.enabled() {
			c.Next()
			return
		}

		key := rateLimitKey(c, rule, keyFunc)
		values, err := rateLimitScript.Run(c.Request.Context(), client, []string{key}, rule.WindowSeconds, rule.MaxRequests, rule.BlockSeconds).Int64Slice()
		if err != nil || len(values) < 2 {
			logger.FromContext(c.Request.Context()).Warnw("rate_limit_check_failed",
				"rule", rule.Name,
				"error", err,
			)
			abortRateLimitUnavailable(c)
			return
		}

		count, ttlSeconds := values[0], values[1]
		if count <= int64(rule.MaxRequests) {
			c.Next()
			return
		}

		waitSeconds := retryAfterSeconds(rule, ttlSeconds)
		metrics.ObserveRateLimited(rule.Name)
		logger.FromContext(c.Request.Context()).Infow("rate_limit_rejected",
			"rule", rule.Name,
			"count", count,
			"retry_after", waitSeconds,
		)
		messageKey := strings.TrimSpace(rule.MessageKey)
		if messageKey == "" {
			messageKey = "error.rate_limited"
		}
		c.Header("Retry-After", fmt.Sprintf("%d", waitSeconds))
		response.Error(c, response.CodeTooManyRequests, i18n.Sprintf(i18n.ResolveLocale(c), messageKey, waitSeconds))
		c.Abort()
	}
}

func rateLimitKey(c *gin.Context, rule RateLimitRule, keyFunc RateLimitKeyFunc) string {
	subject := ""
	if keyFunc != nil {
		subject = strings.TrimSpace(keyFunc(c))
	}
	if subject == "" {
		subject = c.ClientIP()
	}
	if rule.Prefix == "" {
		return subject
	}
	return rule.Prefix + ":" + subject
}

func retryAfterSeconds(rule RateLimitRule, ttlSeconds int64) int {
	wait := int(ttlSeconds)
	if wait < 1 {
		wait = rule.WindowSeconds
	}
	if wait < 1 {
		wait = 1
	}
	return wait
}

func abortRateLimitUnavailable(c *gin.Context) {
	response.Error(c, response.CodeUnavailable, i18n.T(i18n.ResolveLocale(c), "error.rate_limit_unavailable"))
	c.Abort()
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByUsername 员工用户名 + IP
func KeyByUsername(c *gin.Context) string {
	return joinWithClientIP(c, strings.ToLower(readJSONField(c, "username")))
}

// KeyByMobile 客户手机号 + IP，带区号或空格的写法归入同一计数
func KeyByMobile(c *gin.Context) string {
	return joinWithClientIP(c, mobileRateSubject(readJSONField(c, "mobile")))
}

// KeyByOtpSession OTP 会话 + IP
func KeyByOtpSession(c *gin.Context) string {
	return joinWithClientIP(c, readJSONField(c, "session_id"))
}

func joinWithClientIP(c *gin.Context, subject string) string {
	if subject == "" {
		return c.ClientIP()
	}
	return subject + "|" + c.ClientIP()
}

// mobileRateSubject 取号码的末 10 位数字
func mobileRateSubject(raw string) string {
	digits := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits = append(digits, raw[i])
		}
	}
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return string(digits)
}

// readJSONField 读取请求体中的字符串字段，读取后回填请求体供 handler 绑定
func readJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if len(body) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	var text string
	if err := json.Unmarshal(payload[field], &text); err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
