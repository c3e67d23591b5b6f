package refresh

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/milkdesk/internal/logger"

	"github.com/redis/go-redis/v9"
)

const defaultRedisChannel = "milkdesk:refresh"

// RedisBridge 通过 Redis Pub/Sub 在多个实例间同步刷新事件
type RedisBridge struct {
	client  *redis.Client
	channel string
	hub     *Hub
}

// NewRedisBridge 创建桥接并挂到 hub 上
func NewRedisBridge(client *redis.Client, channel string, hub *Hub) *RedisBridge {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = defaultRedisChannel
	}
	bridge := &RedisBridge{client: client, channel: channel, hub: hub}
	if client != nil && hub != nil {
		hub.SetForwarder(bridge.forward)
	}
	return bridge
}

// Channel 使用的频道名
func (b *RedisBridge) Channel() string {
	return b.channel
}

func (b *RedisBridge) forward(evt Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		logger.Warnw("refresh_bridge_marshal_failed", "topic", evt.Topic, "error", err)
		return
	}
	if err := b.client.Publish(context.Background(), b.channel, payload).Err(); err != nil {
		logger.Warnw("refresh_bridge_publish_failed", "topic", evt.Topic, "error", err)
	}
}

// Run 订阅频道并投递其他实例的事件，直到 ctx 结束
func (b *RedisBridge) Run(ctx context.Context) error {
	if b.client == nil || b.hub == nil {
		<-ctx.Done()
		return nil
	}
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	logger.Infow("refresh_bridge_subscribed", "channel", b.channel)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			b.handle(msg.Payload)
		}
	}
}

func (b *RedisBridge) handle(payload string) {
	var evt Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		logger.Warnw("refresh_bridge_decode_failed", "error", err)
		return
	}
	if evt.Origin == b.hub.Origin() || strings.TrimSpace(evt.Topic) == "" {
		return
	}
	b.hub.Deliver(evt)
}
