package cache

import (
	"context"
	"fmt"
	"time"
)

const balanceSummaryTTL = 2 * time.Minute

// BalanceSummaryLine 客户单一类型余额
type BalanceSummaryLine struct {
	TokenTypeID   uint   `json:"token_type_id"`
	TokenTypeName string `json:"token_type_name"`
	Quantity      int    `json:"quantity"`
}

// BalanceSummary 客户余额汇总快照
type BalanceSummary struct {
	CustomerID uint                 `json:"customer_id"`
	Lines      []BalanceSummaryLine `json:"lines"`
	Total      int                  `json:"total"`
	UpdatedAt  int64                `json:"updated_at"`
}

func balanceSummaryKey(customerID uint) string {
	return fmt.Sprintf("balance:customer:%d", customerID)
}

// GetBalanceSummary 读取客户余额汇总
func GetBalanceSummary(ctx context.Context, customerID uint) (*BalanceSummary, bool, error) {
	if customerID == 0 {
		return nil, false, nil
	}
	var summary BalanceSummary
	hit, err := GetJSON(ctx, balanceSummaryKey(customerID), &summary)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &summary, true, nil
}

// SetBalanceSummary 写入客户余额汇总
func SetBalanceSummary(ctx context.Context, summary *BalanceSummary) error {
	if summary == nil || summary.CustomerID == 0 {
		return nil
	}
	return SetJSON(ctx, balanceSummaryKey(summary.CustomerID), summary, balanceSummaryTTL)
}

// InvalidateBalanceSummary 余额变动后清除汇总
func InvalidateBalanceSummary(ctx context.Context, customerID uint) error {
	if customerID == 0 {
		return nil
	}
	return Del(ctx, balanceSummaryKey(customerID))
}
