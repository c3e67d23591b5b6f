package models

import (
	"time"

	"gorm.io/gorm"
)

// Admin 后台员工账号
type Admin struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                         // 主键
	Username           string         `gorm:"uniqueIndex;not null" json:"username"`         // 登录账号
	DisplayName        string         `gorm:"type:varchar(100)" json:"display_name"`        // 显示名称
	Mobile             string         `gorm:"type:varchar(20);index" json:"mobile"`         // 手机号（OTP 登录）
	PasswordHash       string         `gorm:"not null" json:"-"`                            // 密码哈希
	TokenVersion       uint64         `gorm:"not null;default:0" json:"-"`                  // Token 版本（用于全量失效）
	TokenInvalidBefore *time.Time     `gorm:"index" json:"-"`                               // 该时间点前签发的 Token 失效
	IsSuper            bool           `gorm:"not null;default:false;index" json:"is_super"` // 是否超级管理员（免权限校验）
	IsActive           bool           `gorm:"not null;default:true;index" json:"is_active"` // 是否启用
	LastLoginAt        *time.Time     `json:"last_login_at"`                                // 最后登录时间
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                      // 创建时间
	UpdatedAt          time.Time      `json:"updated_at"`                                   // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                               // 软删除时间
}

// TableName 指定表名
func (Admin) TableName() string {
	return "admins"
}

// AdminLoginLog 后台登录日志
// 说明：记录 OTP 与密码两种登录方式的成功或失败，用于安全审计。
type AdminLoginLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	AdminID    uint      `gorm:"index" json:"admin_id"`                    // 管理员ID（失败时可为0）
	Account    string    `gorm:"type:varchar(100);index" json:"account"`   // 登录账号或手机号
	Method     string    `gorm:"type:varchar(20);index" json:"method"`     // otp/password
	Status     string    `gorm:"type:varchar(20);index" json:"status"`     // success/failed
	FailReason string    `gorm:"type:varchar(64);index" json:"fail_reason"` // 失败原因
	ClientIP   string    `gorm:"type:varchar(64);index" json:"client_ip"`  // 客户端IP
	UserAgent  string    `gorm:"type:text" json:"user_agent"`              // 客户端UA
	RequestID  string    `gorm:"type:varchar(64);index" json:"request_id"` // 请求追踪ID
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (AdminLoginLog) TableName() string {
	return "admin_login_logs"
}
