package models

import "time"

// LoginOtp 登录 OTP 会话
// 每次发送验证码创建一条记录，重发时在同一会话上递增计数器。
type LoginOtp struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	SessionID    string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"session_id"` // 会话标识
	AdminID      uint       `gorm:"index;not null" json:"admin_id"`                          // 登录员工
	Mobile       string     `gorm:"type:varchar(20);index;not null" json:"mobile"`           // 手机号
	Secret       string     `gorm:"type:varchar(64);not null" json:"-"`                      // HOTP 密钥
	Counter      uint64     `gorm:"not null;default:0" json:"-"`                             // HOTP 计数器
	State        string     `gorm:"type:varchar(20);index;not null" json:"state"`            // awaiting_otp/verified/cancelled
	SendCount    int        `gorm:"not null;default:1" json:"send_count"`                    // 已发送次数
	AttemptCount int        `gorm:"not null;default:0" json:"attempt_count"`                 // 校验失败次数
	SentAt       time.Time  `gorm:"index" json:"sent_at"`                                    // 最近一次发送时间
	ExpiresAt    time.Time  `gorm:"index" json:"expires_at"`                                 // 当前验证码过期时间
	VerifiedAt   *time.Time `json:"verified_at"`                                             // 验证通过时间
	ClientIP     string     `gorm:"type:varchar(64)" json:"client_ip"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (LoginOtp) TableName() string {
	return "login_otps"
}
