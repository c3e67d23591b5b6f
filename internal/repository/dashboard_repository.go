package repository

import (
	"fmt"
	"time"

	"github.com/milkdesk/internal/constants"
	"github.com/milkdesk/internal/models"

	"gorm.io/gorm"
)

// DashboardRepository 仪表盘聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	GetOverview(day time.Time) (DashboardOverviewRow, error)
	GetDeliveryTrends(startAt, endAt time.Time) ([]DashboardDeliveryTrendRow, error)
}

// DashboardOverviewRow 仪表盘总览原始统计结果
type DashboardOverviewRow struct {
	ActiveCustomers   int64
	InactiveCustomers int64
	OrdersToday       int64
	ConfirmedToday    int64
	DeliveredToday    int64
	CancelledToday    int64
	TokensOutstanding int64
	PendingPayments   int64
	CollectedToday    float64
}

// DashboardDeliveryTrendRow 配送趋势统计
type DashboardDeliveryTrendRow struct {
	Day       string
	Orders    int64
	Delivered int64
	Tokens    int64
}

// GormDashboardRepository GORM 仪表盘聚合实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建仪表盘仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// GetOverview 获取指定日期的总览统计
func (r *GormDashboardRepository) GetOverview(day time.Time) (DashboardOverviewRow, error) {
	result := DashboardOverviewRow{}
	startAt, endAt := dayRange(day)

	if err := r.db.Model(&models.Customer{}).Where("is_active = ?", true).Count(&result.ActiveCustomers).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.Customer{}).Where("is_active = ?", false).Count(&result.InactiveCustomers).Error; err != nil {
		return result, err
	}

	orderBase := func() *gorm.DB {
		return r.db.Model(&models.Order{}).Where("delivery_date >= ? AND delivery_date < ?", startAt, endAt)
	}
	if err := orderBase().Count(&result.OrdersToday).Error; err != nil {
		return result, err
	}
	counts := map[string]*int64{
		constants.OrderStatusConfirmed: &result.ConfirmedToday,
		constants.OrderStatusDelivered: &result.DeliveredToday,
		constants.OrderStatusCancelled: &result.CancelledToday,
	}
	for status, target := range counts {
		if err := orderBase().Where("status = ?", status).Count(target).Error; err != nil {
			return result, err
		}
	}

	if err := r.db.Model(&models.TokenBalance{}).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&result.TokensOutstanding).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.TokenIssue{}).
		Where("payment_status = ?", constants.PaymentStatusPending).
		Count(&result.PendingPayments).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.TokenIssue{}).
		Where("payment_status = ? AND payment_date >= ? AND payment_date < ?", constants.PaymentStatusCompleted, startAt, endAt).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&result.CollectedToday).Error; err != nil {
		return result, err
	}
	return result, nil
}

// GetDeliveryTrends 获取配送趋势（按配送日期）
func (r *GormDashboardRepository) GetDeliveryTrends(startAt, endAt time.Time) ([]DashboardDeliveryTrendRow, error) {
	rows := make([]DashboardDeliveryTrendRow, 0)
	dayExpr := "CAST(date(delivery_date) AS TEXT)"
	err := r.db.Model(&models.Order{}).
		Select(fmt.Sprintf(
			"%s AS day, COUNT(*) AS orders, "+
				"SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS delivered, "+
				"SUM(CASE WHEN status <> ? THEN token_qty ELSE 0 END) AS tokens",
			dayExpr,
		), constants.OrderStatusDelivered, constants.OrderStatusCancelled).
		Where("delivery_date >= ? AND delivery_date < ?", startAt, endAt).
		Group(dayExpr).
		Order("day asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
