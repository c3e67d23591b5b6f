package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/milkdesk/internal/constants"
	"github.com/milkdesk/internal/models"

	"gorm.io/gorm"
)

// LoginOtpRepository 登录 OTP 会话数据访问接口
type LoginOtpRepository interface {
	Create(record *models.LoginOtp) error
	GetBySessionID(sessionID string) (*models.LoginOtp, error)
	ReserveAttempt(id uint, maxAttempts int) (bool, error)
	Transition(id uint, fromState string, updates map[string]interface{}) (bool, error)
	Advance(id uint, fromCounter uint64, updates map[string]interface{}) (bool, error)
	DeleteCreatedBefore(before time.Time) (int64, error)
}

// GormLoginOtpRepository GORM 实现
type GormLoginOtpRepository struct {
	db *gorm.DB
}

// NewLoginOtpRepository 创建 OTP 会话仓库
func NewLoginOtpRepository(db *gorm.DB) *GormLoginOtpRepository {
	return &GormLoginOtpRepository{db: db}
}

// Create 创建会话
func (r *GormLoginOtpRepository) Create(record *models.LoginOtp) error {
	return r.db.Create(record).Error
}

// GetBySessionID 根据会话标识获取记录
func (r *GormLoginOtpRepository) GetBySessionID(sessionID string) (*models.LoginOtp, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, nil
	}
	var record models.LoginOtp
	if err := r.db.Where("session_id = ?", sessionID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// ReserveAttempt 占用一次校验机会
// 仅当会话仍在等待且次数未用尽时递增，返回是否占用成功。
func (r *GormLoginOtpRepository) ReserveAttempt(id uint, maxAttempts int) (bool, error) {
	result := r.db.Model(&models.LoginOtp{}).
		Where("id = ? AND state = ? AND attempt_count < ?", id, constants.OtpStateAwaiting, maxAttempts).
		UpdateColumn("attempt_count", gorm.Expr("attempt_count + 1"))
	return result.RowsAffected == 1, result.Error
}

// Transition 状态仍为 fromState 时更新会话，返回是否更新成功
func (r *GormLoginOtpRepository) Transition(id uint, fromState string, updates map[string]interface{}) (bool, error) {
	result := r.db.Model(&models.LoginOtp{}).
		Where("id = ? AND state = ?", id, fromState).
		Updates(updates)
	return result.RowsAffected == 1, result.Error
}

// Advance 计数器仍为 fromCounter 且会话等待中时更新，用于重发
func (r *GormLoginOtpRepository) Advance(id uint, fromCounter uint64, updates map[string]interface{}) (bool, error) {
	result := r.db.Model(&models.LoginOtp{}).
		Where("id = ? AND state = ? AND counter = ?", id, constants.OtpStateAwaiting, fromCounter).
		Updates(updates)
	return result.RowsAffected == 1, result.Error
}

// DeleteCreatedBefore 清理过期会话
func (r *GormLoginOtpRepository) DeleteCreatedBefore(before time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", before).Delete(&models.LoginOtp{})
	return result.RowsAffected, result.Error
}
