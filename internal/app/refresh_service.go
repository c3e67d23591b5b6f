package app

import (
	"context"
	"sync"

	"github.com/milkdesk/internal/refresh"

	"github.com/redis/go-redis/v9"
)

// RefreshBridgeService 多实例部署时同步刷新事件
type RefreshBridgeService struct {
	bridge   *refresh.RedisBridge
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewRefreshBridgeService 创建刷新桥接服务
func NewRefreshBridgeService(client *redis.Client, channel string, hub *refresh.Hub) *RefreshBridgeService {
	return &RefreshBridgeService{
		bridge: refresh.NewRedisBridge(client, channel, hub),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Name 服务名称
func (s *RefreshBridgeService) Name() string {
	return "refresh_bridge"
}

// Start 订阅频道直到 ctx 结束或 Stop 被调用
func (s *RefreshBridgeService) Start(ctx context.Context) error {
	defer close(s.done)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.stop:
			cancel()
		case <-ctx.Done():
		}
	}()
	return s.bridge.Run(ctx)
}

// Stop 停止订阅并等待退出
func (s *RefreshBridgeService) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
