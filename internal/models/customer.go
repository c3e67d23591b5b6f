package models

import "time"

// Customer 配送客户
// 客户不物理删除，停用即 IsActive=false。
type Customer struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(120);index;not null" json:"name"`         // 客户名称
	Mobile    string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"mobile"`  // 手机号
	AreaID    uint      `gorm:"index;not null" json:"area_id"`                        // 所属片区
	Address   string    `gorm:"type:varchar(500)" json:"address"`                     // 配送地址
	Pin       string    `gorm:"type:varchar(12)" json:"pin"`                          // 邮编
	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`         // 是否启用
	CreatedBy uint      `gorm:"index" json:"created_by"`                              // 创建人
	UpdatedBy uint      `json:"updated_by"`                                           // 最后修改人
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Area *Area `gorm:"foreignKey:AreaID" json:"area,omitempty"`
}

// TableName 指定表名
func (Customer) TableName() string {
	return "customers"
}
