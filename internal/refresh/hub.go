// Package refresh 实现后台看板的变更广播
package refresh

import (
	"strings"
	"sync"
	"time"

	"github.com/milkdesk/internal/constants"
	"github.com/milkdesk/internal/metrics"

	"github.com/google/uuid"
)

const defaultBufferSize = 16

// Event 变更事件
type Event struct {
	Topic  string    `json:"topic"`
	At     time.Time `json:"at"`
	Origin string    `json:"origin"`
}

// Forwarder 跨实例转发
type Forwarder func(evt Event)

// Subscription 订阅句柄
type Subscription struct {
	id     uint64
	topics map[string]struct{}
	ch     chan Event
}

// C 返回事件通道，取消订阅后关闭
func (s *Subscription) C() <-chan Event {
	return s.ch
}

func (s *Subscription) wants(topic string) bool {
	if len(s.topics) == 0 || topic == constants.RefreshTopicAll {
		return true
	}
	if _, ok := s.topics[constants.RefreshTopicAll]; ok {
		return true
	}
	_, ok := s.topics[topic]
	return ok
}

// Hub 进程内广播中心
// 每个订阅者一个带缓冲通道，缓冲满时丢弃事件，发布方不阻塞。
type Hub struct {
	mu         sync.RWMutex
	subs       map[uint64]*Subscription
	nextID     uint64
	bufferSize int
	origin     string
	forward    Forwarder
}

// NewHub 创建广播中心
func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Hub{
		subs:       make(map[uint64]*Subscription),
		bufferSize: bufferSize,
		origin:     uuid.NewString(),
	}
}

// Origin 当前实例标识
func (h *Hub) Origin() string {
	return h.origin
}

// SetForwarder 设置跨实例转发
func (h *Hub) SetForwarder(fn Forwarder) {
	h.mu.Lock()
	h.forward = fn
	h.mu.Unlock()
}

// Subscribe 订阅主题，不传主题表示订阅全部
func (h *Hub) Subscribe(topics ...string) *Subscription {
	sub := &Subscription{
		topics: make(map[string]struct{}, len(topics)),
		ch:     make(chan Event, h.bufferSize),
	}
	for _, topic := range topics {
		topic = normalizeTopic(topic)
		if topic != "" {
			sub.topics[topic] = struct{}{}
		}
	}
	h.mu.Lock()
	h.nextID++
	sub.id = h.nextID
	h.subs[sub.id] = sub
	count := len(h.subs)
	h.mu.Unlock()
	metrics.RefreshSubscribers.Set(float64(count))
	return sub
}

// Unsubscribe 取消订阅并关闭通道
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	if _, ok := h.subs[sub.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.subs, sub.id)
	close(sub.ch)
	count := len(h.subs)
	h.mu.Unlock()
	metrics.RefreshSubscribers.Set(float64(count))
}

// SubscriberCount 当前订阅者数量
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish 发布主题变更，同时转发到其他实例
func (h *Hub) Publish(topics ...string) {
	if h == nil {
		return
	}
	now := time.Now()
	h.mu.RLock()
	forward := h.forward
	h.mu.RUnlock()
	for _, topic := range dedupeTopics(topics) {
		evt := Event{Topic: topic, At: now, Origin: h.origin}
		h.Deliver(evt)
		if forward != nil {
			forward(evt)
		}
	}
}

// Deliver 投递到本地订阅者，不再转发
func (h *Hub) Deliver(evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if !sub.wants(evt.Topic) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			metrics.RefreshDropped.Inc()
		}
	}
}

// Close 关闭所有订阅
func (h *Hub) Close() {
	h.mu.Lock()
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.ch)
	}
	h.mu.Unlock()
	metrics.RefreshSubscribers.Set(0)
}

func normalizeTopic(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}

func dedupeTopics(topics []string) []string {
	seen := make(map[string]struct{}, len(topics))
	result := make([]string, 0, len(topics))
	for _, topic := range topics {
		topic = normalizeTopic(topic)
		if topic == "" {
			continue
		}
		if _, ok := seen[topic]; ok {
			continue
		}
		seen[topic] = struct{}{}
		result = append(result, topic)
	}
	return result
}
