package shared

import (
	"errors"

	"github.com/milkdesk/internal/http/response"
	"github.com/milkdesk/internal/i18n"
	"github.com/milkdesk/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 返回请求上下文中的日志实例，已带 request_id 与 admin_id。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil || c.Request == nil {
		return logger.S()
	}
	return logger.FromContext(c.Request.Context())
}

// RespondError 返回国际化错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", code,
			"key", key,
			"route", c.FullPath(),
			"error", err,
		)
	}
	response.Error(c, code, i18n.T(i18n.ResolveLocale(c), key))
}

// RespondErrorWithData 返回带附加数据的国际化错误响应。
func RespondErrorWithData(c *gin.Context, code int, key string, data gin.H) {
	response.ErrorWithData(c, code, i18n.T(i18n.ResolveLocale(c), key), data)
}

// MappedError 业务错误到接口错误的映射。
type MappedError struct {
	Target error
	Code   int
	Key    string
}

// RespondMappedError 按规则映射错误；未命中时按 fallback 返回并记录原始错误。
func RespondMappedError(c *gin.Context, err error, rules []MappedError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, rule.Key, nil)
			return
		}
	}
	RespondError(c, fallbackCode, fallbackKey, err)
}
