package admin

import (
	"io"
	"strings"
	"time"

	"github.com/milkdesk/internal/http/response"

	"github.com/gin-gonic/gin"
)

const defaultHeartbeatInterval = 25 * time.Second

// StreamEvents 以 SSE 推送看板刷新事件
// topics 为逗号分隔的主题列表，为空时订阅全部。
func (h *Handler) StreamEvents(c *gin.Context) {
	if h.RefreshHub == nil {
		respondError(c, response.CodeUnavailable, "error.events_unavailable", nil)
		return
	}
	topics := make([]string, 0)
	for _, topic := range strings.Split(c.Query("topics"), ",") {
		if topic = strings.TrimSpace(topic); topic != "" {
			topics = append(topics, topic)
		}
	}

	heartbeat := defaultHeartbeatInterval
	if h.Config != nil && h.Config.Refresh.HeartbeatSec > 0 {
		heartbeat = time.Duration(h.Config.Refresh.HeartbeatSec) * time.Second
	}

	sub := h.RefreshHub.Subscribe(topics...)
	defer h.RefreshHub.Unsubscribe(sub)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	log := requestLog(c)
	log.Debugw("admin_events_subscribed", "topics", topics)
	c.SSEvent("ready", gin.H{"topics": topics})
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case evt, ok := <-sub.C():
			if !ok {
				return false
			}
			c.SSEvent("refresh", evt)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now().Unix()})
			return true
		}
	})
	log.Debugw("admin_events_closed", "topics", topics)
}
