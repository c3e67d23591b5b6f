package models

import (
	"time"

	"gorm.io/gorm"
)

// TokenBalance 客户牛奶券余额（按类型累计）
type TokenBalance struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CustomerID  uint      `gorm:"uniqueIndex:idx_token_balance_customer_type;not null" json:"customer_id"`
	TokenTypeID uint      `gorm:"uniqueIndex:idx_token_balance_customer_type;not null" json:"token_type_id"`
	Quantity    int       `gorm:"not null;default:0" json:"quantity"` // 剩余张数，不可为负
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `gorm:"index" json:"updated_at"`

	Customer  *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	TokenType *TokenType `gorm:"foreignKey:TokenTypeID" json:"token_type,omitempty"`
}

// TableName 指定表名
func (TokenBalance) TableName() string {
	return "token_balances"
}

// TokenTransaction 牛奶券余额流水
type TokenTransaction struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	CustomerID    uint      `gorm:"index;not null" json:"customer_id"`
	TokenTypeID   uint      `gorm:"index;not null" json:"token_type_id"`
	Direction     string    `gorm:"type:varchar(10);index;not null" json:"direction"` // credit/debit
	Reason        string    `gorm:"type:varchar(32);index;not null" json:"reason"`    // 变动原因
	Quantity      int       `gorm:"not null" json:"quantity"`                         // 变动张数（正数）
	BalanceBefore int       `gorm:"not null" json:"balance_before"`
	BalanceAfter  int       `gorm:"not null" json:"balance_after"`
	Reference     string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"reference"` // 幂等键
	OperatorID    uint      `gorm:"index" json:"operator_id"`
	Remark        string    `gorm:"type:varchar(255)" json:"remark"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (TokenTransaction) TableName() string {
	return "token_transactions"
}

// TokenIssue 牛奶券发放记录（历史）
type TokenIssue struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	CustomerID    uint           `gorm:"index;not null" json:"customer_id"`
	TokenTypeID   uint           `gorm:"index;not null" json:"token_type_id"`
	Quantity      int            `gorm:"not null" json:"quantity"`                                  // 发放张数
	IssueDate     time.Time      `gorm:"index" json:"issue_date"`                                   // 发放日期
	TotalAmount   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 应收金额
	PaymentStatus string         `gorm:"type:varchar(20);index;not null" json:"payment_status"`     // pending/completed
	PaymentMode   string         `gorm:"type:varchar(20);index" json:"payment_mode"`                // cash
	PaymentDate   *time.Time     `gorm:"index" json:"payment_date"`                                 // 收款时间
	Credited      bool           `gorm:"not null;default:false" json:"credited"`                    // 是否已计入余额
	CreatedBy     uint           `gorm:"index" json:"created_by"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Customer  *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	TokenType *TokenType `gorm:"foreignKey:TokenTypeID" json:"token_type,omitempty"`
}

// TableName 指定表名
func (TokenIssue) TableName() string {
	return "token_issues"
}
