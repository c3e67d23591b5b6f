package service

import (
	"context"
	"strings"
	"time"

	"github.com/milkdesk/internal/logger"
	"github.com/milkdesk/internal/models"
	"github.com/milkdesk/internal/repository"

	"gorm.io/datatypes"
)

type requestIDKey struct{}

// WithRequestID 将请求 ID 写入 context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey{}, strings.TrimSpace(requestID))
}

// RequestIDFromContext 读取请求 ID
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// OperationLogEntry 操作日志条目
type OperationLogEntry struct {
	OperatorID uint
	Action     string
	TargetType string
	TargetID   uint
	Detail     map[string]interface{}
}

// OperationLogService 后台操作日志服务
type OperationLogService struct {
	repo repository.LogRepository
}

// NewOperationLogService 创建操作日志服务
func NewOperationLogService(repo repository.LogRepository) *OperationLogService {
	return &OperationLogService{repo: repo}
}

// Record 记录操作日志，失败只记 warn
func (s *OperationLogService) Record(ctx context.Context, entry OperationLogEntry) {
	if s == nil || s.repo == nil || strings.TrimSpace(entry.Action) == "" {
		return
	}
	record := &models.OperationLog{
		OperatorID: entry.OperatorID,
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		RequestID:  RequestIDFromContext(ctx),
		Detail:     datatypes.JSONMap(entry.Detail),
		CreatedAt:  time.Now(),
	}
	if err := s.repo.CreateOperationLog(record); err != nil {
		logger.FromContext(ctx).Warnw("operation_log_write_failed",
			"action", entry.Action,
			"target_id", entry.TargetID,
			"error", err,
		)
	}
}

// List 分页查询操作日志
func (s *OperationLogService) List(filter repository.OperationLogListFilter) ([]models.OperationLog, int64, error) {
	return s.repo.ListOperationLogs(filter)
}

// LoginLogService 登录日志服务
type LoginLogService struct {
	repo repository.LogRepository
}

// NewLoginLogService 创建登录日志服务
func NewLoginLogService(repo repository.LogRepository) *LoginLogService {
	return &LoginLogService{repo: repo}
}

// LoginLogInput 登录日志输入
type LoginLogInput struct {
	AdminID    uint
	Account    string
	Method     string
	Status     string
	FailReason string
	ClientIP   string
	UserAgent  string
	RequestID  string
}

// Record 写入登录日志
func (s *LoginLogService) Record(ctx context.Context, input LoginLogInput) {
	if s == nil || s.repo == nil {
		return
	}
	requestID := strings.TrimSpace(input.RequestID)
	if requestID == "" {
		requestID = RequestIDFromContext(ctx)
	}
	record := &models.AdminLoginLog{
		AdminID:    input.AdminID,
		Account:    strings.TrimSpace(input.Account),
		Method:     input.Method,
		Status:     input.Status,
		FailReason: input.FailReason,
		ClientIP:   strings.TrimSpace(input.ClientIP),
		UserAgent:  strings.TrimSpace(input.UserAgent),
		RequestID:  requestID,
		CreatedAt:  time.Now(),
	}
	if err := s.repo.CreateLoginLog(record); err != nil {
		logger.FromContext(ctx).Warnw("login_log_write_failed",
			"account", record.Account,
			"status", record.Status,
			"error", err,
		)
	}
}

// List 分页查询登录日志
func (s *LoginLogService) List(filter repository.LoginLogListFilter) ([]models.AdminLoginLog, int64, error) {
	return s.repo.ListLoginLogs(filter)
}
