package models

import "time"

// Area 配送片区
type Area struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"` // 片区名称
	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`      // 是否启用
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`              // 排序
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Area) TableName() string {
	return "areas"
}

// TokenType 牛奶券类型（日卡/周卡/月卡等）
type TokenType struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`       // 类型名称
	UnitPrice Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"` // 单张价格
	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`            // 是否启用
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (TokenType) TableName() string {
	return "token_types"
}
