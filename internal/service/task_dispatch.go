package service

import (
	"context"
	"errors"
	"strings"

	"github.com/milkdesk/internal/queue"
)

// TaskDispatcher 异步任务投递
type TaskDispatcher struct {
	client *queue.Client
}

// NewTaskDispatcher 创建任务投递器
func NewTaskDispatcher(client *queue.Client) *TaskDispatcher {
	return &TaskDispatcher{client: client}
}

// DispatchOtp 入队验证码短信任务；队列未启用时返回 ErrQueueUnavailable
func (d *TaskDispatcher) DispatchOtp(ctx context.Context, sessionID string, counter uint64) error {
	if d == nil || !d.client.Enabled() {
		return ErrQueueUnavailable
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrOtpSessionNotFound
	}
	err := d.client.EnqueueOtpDeliver(ctx, queue.OtpDeliverPayload{SessionID: sessionID, Counter: counter})
	return mapQueueError(err)
}

// EnqueueLedgerAudit 入队余额对账任务
func (d *TaskDispatcher) EnqueueLedgerAudit(ctx context.Context, repair bool, operatorID uint) error {
	if d == nil || !d.client.Enabled() {
		return ErrQueueUnavailable
	}
	err := d.client.EnqueueLedgerAudit(ctx, queue.LedgerAuditPayload{Repair: repair, OperatorID: operatorID})
	return mapQueueError(err)
}

func mapQueueError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, queue.ErrDisabled) {
		return ErrQueueUnavailable
	}
	return err
}
