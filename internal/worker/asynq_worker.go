package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/milkdesk/internal/logger"
	"github.com/milkdesk/internal/provider"
	"github.com/milkdesk/internal/queue"
	"github.com/milkdesk/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOtpDeliver, c.handleOtpDeliver)
	mux.HandleFunc(queue.TaskLedgerAudit, c.handleLedgerAudit)
	mux.HandleFunc(queue.TaskOtpCleanup, c.handleOtpCleanup)
}

func (c *Consumer) handleOtpDeliver(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_otp_deliver_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OtpDeliverPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_otp_deliver_unmarshal_failed", "error", err)
		return asynq.SkipRetry
	}
	payload.SessionID = strings.TrimSpace(payload.SessionID)
	if payload.SessionID == "" {
		logger.Debugw("worker_otp_deliver_skip_invalid_payload")
		return nil
	}
	if c.OtpLoginService == nil {
		logger.Warnw("worker_otp_deliver_skip_service_nil", "session_id", payload.SessionID)
		return nil
	}
	err := c.OtpLoginService.DeliverCode(ctx, payload.SessionID, payload.Counter)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOtpSessionNotFound):
			logger.Debugw("worker_otp_deliver_skip_session_not_found", "session_id", payload.SessionID)
			return nil
		case errors.Is(err, service.ErrSMSGatewayRejected),
			errors.Is(err, service.ErrSMSGatewayNotConfig):
			logger.Warnw("worker_otp_deliver_rejected", "session_id", payload.SessionID, "error", err)
			return asynq.SkipRetry
		default:
			logger.Warnw("worker_otp_deliver_failed", "session_id", payload.SessionID, "counter", payload.Counter, "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleLedgerAudit(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.TokenLedgerService == nil {
		logger.Debugw("worker_ledger_audit_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.LedgerAuditPayload
	if body := task.Payload(); len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			logger.Warnw("worker_ledger_audit_unmarshal_failed", "error", err)
			return asynq.SkipRetry
		}
	}
	if payload.Repair {
		report, err := c.TokenLedgerService.Repair(ctx, payload.OperatorID)
		if err != nil {
			logger.Warnw("worker_ledger_repair_failed", "operator_id", payload.OperatorID, "error", err)
			return err
		}
		logger.Infow("worker_ledger_repair_done", "checked", report.Checked, "repaired", report.Repaired)
		return nil
	}
	report, err := c.TokenLedgerService.Audit(ctx)
	if err != nil {
		logger.Warnw("worker_ledger_audit_failed", "error", err)
		return err
	}
	logger.Infow("worker_ledger_audit_done", "checked", report.Checked, "drifts", len(report.Drifts))
	return nil
}

func (c *Consumer) handleOtpCleanup(ctx context.Context, _ *asynq.Task) error {
	if c == nil || c.OtpLoginService == nil {
		return nil
	}
	if _, err := c.OtpLoginService.CleanupSessions(ctx); err != nil {
		logger.Warnw("worker_otp_cleanup_failed", "error", err)
		return err
	}
	return nil
}
