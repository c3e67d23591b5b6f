package public

import (
	"net/http"

	"github.com/milkdesk/internal/cache"
	"github.com/milkdesk/internal/models"

	"github.com/gin-gonic/gin"
)

// HealthCheck 健康检查：数据库必须可用，Redis 仅在启用时检查
func (h *Handler) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()
	result := gin.H{"status": "ok", "database": "ok", "redis": "disabled", "queue": "disabled"}
	healthy := true

	if models.DB == nil {
		result["database"] = "missing"
		healthy = false
	} else if sqlDB, err := models.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		result["database"] = "error"
		healthy = false
	}

	if cache.Enabled() {
		result["redis"] = "ok"
		if err := cache.Ping(ctx); err != nil {
			result["redis"] = "error"
			healthy = false
		}
	}
	if h.QueueClient != nil && h.QueueClient.Enabled() {
		result["queue"] = "ok"
	}

	if !healthy {
		result["status"] = "degraded"
		requestLog(c).Warnw("public_health_degraded", "detail", result)
		c.JSON(http.StatusServiceUnavailable, result)
		return
	}
	c.JSON(http.StatusOK, result)
}
