package public

import "github.com/milkdesk/internal/provider"

// Handler 公开接口处理器入口
// 说明：仅承载登录、验证码与健康检查，不要求员工登录态。
type Handler struct {
	*provider.Container
}

// New 创建公开接口处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
