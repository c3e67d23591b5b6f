package models

import (
	"time"

	"gorm.io/datatypes"
)

// OperationLog 后台操作日志
type OperationLog struct {
	ID         uint              `gorm:"primarykey" json:"id"`
	OperatorID uint              `gorm:"index;not null" json:"operator_id"`
	Action     string            `gorm:"type:varchar(64);index;not null" json:"action"`
	TargetType string            `gorm:"type:varchar(32);index" json:"target_type"`
	TargetID   uint              `gorm:"index" json:"target_id"`
	RequestID  string            `gorm:"type:varchar(64);index" json:"request_id"`
	Detail     datatypes.JSONMap `gorm:"type:json" json:"detail"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (OperationLog) TableName() string {
	return "operation_logs"
}
