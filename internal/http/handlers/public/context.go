package public

import (
	handlershared "github.com/milkdesk/internal/http/handlers/shared"
	"github.com/milkdesk/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func loginContext(c *gin.Context) service.LoginContext {
	return service.LoginContext{
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}
