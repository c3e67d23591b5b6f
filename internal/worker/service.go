package worker

import (
	"context"
	"errors"
	"time"

	"github.com/milkdesk/internal/config"
	"github.com/milkdesk/internal/logger"
	"github.com/milkdesk/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 异步队列服务
type Service struct {
	name     string
	cfg      *config.QueueConfig
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	serverCfg.Logger = newAsynqLogger()
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		cfg:      cfg,
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.QueueClient.Enabled() {
		go s.runPeriodic(ctx, "ledger_audit", minutes(s.cfg.AuditIntervalMinutes, 60), func(ctx context.Context) error {
			return s.consumer.QueueClient.EnqueueLedgerAudit(ctx, queue.LedgerAuditPayload{})
		})
		go s.runPeriodic(ctx, "otp_cleanup", minutes(s.cfg.CleanupIntervalMinutes, 720), s.consumer.QueueClient.EnqueueOtpCleanup)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runPeriodic 按固定间隔入队周期任务；启动时不立即执行，避免多实例同时重启时集中入队
func (s *Service) runPeriodic(ctx context.Context, name string, interval time.Duration, enqueue func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := enqueue(ctx); err != nil {
				logger.Warnw("worker_periodic_enqueue_failed", "task", name, "error", err)
			}
		}
	}
}

func minutes(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Minute
}
