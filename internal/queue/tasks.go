package queue

import (
	"encoding/json"
	"errors"

	"github.com/milkdesk/internal/constants"

	"github.com/hibiken/asynq"
)

// ErrDisabled 队列未启用
var ErrDisabled = errors.New("queue disabled")

const (
	// TaskOtpDeliver 验证码短信投递任务
	TaskOtpDeliver = constants.TaskOtpDeliver
	// TaskLedgerAudit 余额对账任务
	TaskLedgerAudit = constants.TaskLedgerAudit
	// TaskOtpCleanup 过期验证码会话清理任务
	TaskOtpCleanup = constants.TaskOtpCleanup
)

// OtpDeliverPayload 验证码投递任务载荷
type OtpDeliverPayload struct {
	SessionID string `json:"session_id"`
	Counter   uint64 `json:"counter"`
}

// LedgerAuditPayload 对账任务载荷
type LedgerAuditPayload struct {
	Repair     bool `json:"repair"`
	OperatorID uint `json:"operator_id"`
}

// NewOtpDeliverTask 创建验证码投递任务
func NewOtpDeliverTask(payload OtpDeliverPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOtpDeliver, body), nil
}

// NewLedgerAuditTask 创建对账任务
func NewLedgerAuditTask(payload LedgerAuditPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerAudit, body), nil
}

// NewOtpCleanupTask 创建会话清理任务
func NewOtpCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskOtpCleanup, nil)
}
