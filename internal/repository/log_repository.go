package repository

import (
	"strings"

	"github.com/milkdesk/internal/models"

	"gorm.io/gorm"
)

// LogRepository 登录日志与操作日志数据访问接口
type LogRepository interface {
	CreateLoginLog(log *models.AdminLoginLog) error
	ListLoginLogs(filter LoginLogListFilter) ([]models.AdminLoginLog, int64, error)
	CreateOperationLog(log *models.OperationLog) error
	ListOperationLogs(filter OperationLogListFilter) ([]models.OperationLog, int64, error)
	WithTx(tx *gorm.DB) *GormLogRepository
}

// GormLogRepository GORM 实现
type GormLogRepository struct {
	db *gorm.DB
}

// NewLogRepository 创建日志仓库
func NewLogRepository(db *gorm.DB) *GormLogRepository {
	return &GormLogRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLogRepository) WithTx(tx *gorm.DB) *GormLogRepository {
	if tx == nil {
		return r
	}
	return &GormLogRepository{db: tx}
}

// CreateLoginLog 写入登录日志
func (r *GormLogRepository) CreateLoginLog(log *models.AdminLoginLog) error {
	return r.db.Create(log).Error
}

// ListLoginLogs 分页查询登录日志
func (r *GormLogRepository) ListLoginLogs(filter LoginLogListFilter) ([]models.AdminLoginLog, int64, error) {
	query := r.db.Model(&models.AdminLoginLog{})
	if filter.AdminID != 0 {
		query = query.Where("admin_id = ?", filter.AdminID)
	}
	if account := strings.TrimSpace(filter.Account); account != "" {
		query = query.Where("account "+likeOperator(r.db)+" ?", likePattern(account))
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var logs []models.AdminLoginLog
	if err := query.Order("id desc").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// CreateOperationLog 写入操作日志
func (r *GormLogRepository) CreateOperationLog(log *models.OperationLog) error {
	return r.db.Create(log).Error
}

// ListOperationLogs 分页查询操作日志
func (r *GormLogRepository) ListOperationLogs(filter OperationLogListFilter) ([]models.OperationLog, int64, error) {
	query := r.db.Model(&models.OperationLog{})
	if filter.OperatorID != 0 {
		query = query.Where("operator_id = ?", filter.OperatorID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.TargetType != "" {
		query = query.Where("target_type = ?", filter.TargetType)
	}
	if filter.TargetID != 0 {
		query = query.Where("target_id = ?", filter.TargetID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var logs []models.OperationLog
	if err := query.Order("id desc").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
