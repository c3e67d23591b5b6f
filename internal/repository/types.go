package repository

import "time"

// CustomerListFilter 客户列表过滤条件
type CustomerListFilter struct {
	Page     int
	PageSize int
	Keyword  string // 名称或手机号模糊匹配
	AreaID   uint
	IsActive *bool
}

// OrderListFilter 订单列表过滤条件
type OrderListFilter struct {
	Page             int
	PageSize         int
	CustomerID       uint
	CustomerName     string
	AreaID           uint
	TokenTypeID      uint
	Status           string
	DeliveryDateFrom *time.Time
	DeliveryDateTo   *time.Time
}

// TokenIssueListFilter 牛奶券发放历史过滤条件
type TokenIssueListFilter struct {
	Page          int
	PageSize      int
	CustomerID    uint
	CustomerName  string
	TokenTypeID   uint
	PaymentStatus string
	PaymentMode   string
	IssueFrom     *time.Time
	IssueTo       *time.Time
}

// TokenBalanceListFilter 余额列表过滤条件
type TokenBalanceListFilter struct {
	Page         int
	PageSize     int
	CustomerID   uint
	CustomerName string
	TokenTypeID  uint
	OnlyPositive bool
}

// TokenTransactionListFilter 余额流水过滤条件
type TokenTransactionListFilter struct {
	Page        int
	PageSize    int
	CustomerID  uint
	TokenTypeID uint
	Direction   string
	Reason      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// OperationLogListFilter 操作日志过滤条件
type OperationLogListFilter struct {
	Page        int
	PageSize    int
	OperatorID  uint
	Action      string
	TargetType  string
	TargetID    uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// LoginLogListFilter 登录日志过滤条件
type LoginLogListFilter struct {
	Page        int
	PageSize    int
	AdminID     uint
	Account     string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
