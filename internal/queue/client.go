package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/milkdesk/internal/config"
	"github.com/milkdesk/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 验证码等时效敏感任务队列
	CriticalQueue = constants.QueueCritical
)

const otpDeliverTimeout = 30 * time.Second

// Client 队列客户端封装
type Client struct {
	client       *asynq.Client
	enabled      bool
	defaultQueue string
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false, defaultQueue: DefaultQueue}, nil
	}
	opt := buildRedisOpt(cfg)
	client := asynq.NewClient(opt)
	return &Client{
		client:       client,
		enabled:      true,
		defaultQueue: DefaultQueue,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueOtpDeliver 推送验证码短信任务
// 载荷仅包含会话与计数器；唯一键避免同一计数器重复投递。
func (c *Client) EnqueueOtpDeliver(ctx context.Context, payload OtpDeliverPayload) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	task, err := NewOtpDeliverTask(payload)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(CriticalQueue),
		asynq.MaxRetry(3),
		asynq.Timeout(otpDeliverTimeout),
		asynq.Deadline(time.Now().Add(5*time.Minute)),
		asynq.Unique(time.Minute),
	)
	return err
}

// EnqueueLedgerAudit 推送余额对账任务
func (c *Client) EnqueueLedgerAudit(ctx context.Context, payload LedgerAuditPayload) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	task, err := NewLedgerAuditTask(payload)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.defaultQueue), asynq.MaxRetry(1))
	return err
}

// EnqueueOtpCleanup 推送过期验证码会话清理任务
func (c *Client) EnqueueOtpCleanup(ctx context.Context) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	_, err := c.client.EnqueueContext(ctx, NewOtpCleanupTask(), asynq.Queue(c.defaultQueue), asynq.MaxRetry(0))
	return err
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	opt := buildRedisOpt(cfg)
	concurrency := 10
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{CriticalQueue: 6, DefaultQueue: 3}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = cfg.Queues
	}
	return opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	password := ""
	db := 0
	if cfg != nil {
		if strings.TrimSpace(cfg.Host) != "" {
			host = strings.TrimSpace(cfg.Host)
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		password = cfg.Password
		db = cfg.DB
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	}
}
