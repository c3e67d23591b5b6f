package models

import "time"

// Order 配送订单（消耗客户牛奶券）
type Order struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	CustomerID   uint       `gorm:"index;not null" json:"customer_id"`
	TokenTypeID  uint       `gorm:"index;not null" json:"token_type_id"`
	TokenQty     int        `gorm:"not null" json:"token_qty"`                     // 消耗张数
	DeliveryDate time.Time  `gorm:"index" json:"delivery_date"`                    // 配送日期
	Status       string     `gorm:"type:varchar(20);index;not null" json:"status"` // confirmed/delivered/cancelled
	Source       string     `gorm:"type:varchar(20);index" json:"source"`          // 订单来源
	DeliveredAt  *time.Time `json:"delivered_at"`
	CancelledAt  *time.Time `json:"cancelled_at"`
	CreatedBy    uint       `gorm:"index" json:"created_by"`
	UpdatedBy    uint       `json:"updated_by"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"index" json:"updated_at"`

	Customer  *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	TokenType *TokenType `gorm:"foreignKey:TokenTypeID" json:"token_type,omitempty"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
