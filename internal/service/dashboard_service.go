package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/milkdesk/internal/cache"
	"github.com/milkdesk/internal/repository"
)

const (
	dashboardCacheTTL      = 45 * time.Second
	dashboardCustomMaxDays = 90
)

// DashboardService 仪表盘服务
// 说明：聚合后台首页的客户、订单、牛奶券数据。
type DashboardService struct {
	repo repository.DashboardRepository
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(repo repository.DashboardRepository) *DashboardService {
	return &DashboardService{repo: repo}
}

// DashboardQueryInput 仪表盘查询输入
type DashboardQueryInput struct {
	Range        string
	From         *time.Time
	To           *time.Time
	Timezone     string
	ForceRefresh bool
}

// DashboardOverviewResponse 仪表盘总览响应
type DashboardOverviewResponse struct {
	Day      string               `json:"day"`
	Timezone string               `json:"timezone"`
	KPI      DashboardKPI         `json:"kpi"`
	Alerts   []DashboardAlertItem `json:"alerts"`
}

// DashboardKPI 仪表盘核心指标
type DashboardKPI struct {
	ActiveCustomers   int64  `json:"active_customers"`
	InactiveCustomers int64  `json:"inactive_customers"`
	OrdersToday       int64  `json:"orders_today"`
	ConfirmedToday    int64  `json:"confirmed_today"`
	DeliveredToday    int64  `json:"delivered_today"`
	CancelledToday    int64  `json:"cancelled_today"`
	DeliveryRate      string `json:"delivery_rate"`
	TokensOutstanding int64  `json:"tokens_outstanding"`
	PendingPayments   int64  `json:"pending_payments"`
	CollectedToday    string `json:"collected_today"`
}

// DashboardAlertItem 仪表盘提醒
type DashboardAlertItem struct {
	Type  string `json:"type"`
	Level string `json:"level"`
	Value int64  `json:"value"`
}

// DashboardTrendResponse 配送趋势响应
type DashboardTrendResponse struct {
	Range    string               `json:"range"`
	From     string               `json:"from"`
	To       string               `json:"to"`
	Timezone string               `json:"timezone"`
	Points   []DashboardTrendItem `json:"points"`
}

// DashboardTrendItem 单日配送数据
type DashboardTrendItem struct {
	Day       string `json:"day"`
	Orders    int64  `json:"orders"`
	Delivered int64  `json:"delivered"`
	Tokens    int64  `json:"tokens"`
}

type dashboardWindow struct {
	rangeKey string
	timezone string
	startAt  time.Time
	endAt    time.Time
}

// GetOverview 获取当日总览
func (s *DashboardService) GetOverview(ctx context.Context, input DashboardQueryInput) (*DashboardOverviewResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardOverviewResponse{}, nil
	}
	input.Range = "today"
	window, err := resolveDashboardWindow(input, time.Now())
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("dashboard:overview:%d:%s", window.startAt.Unix(), window.timezone)
	if !input.ForceRefresh {
		var cached DashboardOverviewResponse
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	overview, err := s.repo.GetOverview(window.startAt)
	if err != nil {
		return nil, err
	}

	deliveryRate := 0.0
	if settled := overview.OrdersToday - overview.CancelledToday; settled > 0 {
		deliveryRate = float64(overview.DeliveredToday) / float64(settled) * 100
	}

	response := &DashboardOverviewResponse{
		Day:      window.startAt.Format("2006-01-02"),
		Timezone: window.timezone,
		KPI: DashboardKPI{
			ActiveCustomers:   overview.ActiveCustomers,
			InactiveCustomers: overview.InactiveCustomers,
			OrdersToday:       overview.OrdersToday,
			ConfirmedToday:    overview.ConfirmedToday,
			DeliveredToday:    overview.DeliveredToday,
			CancelledToday:    overview.CancelledToday,
			DeliveryRate:      formatPercentValue(deliveryRate),
			TokensOutstanding: overview.TokensOutstanding,
			PendingPayments:   overview.PendingPayments,
			CollectedToday:    formatMoneyValue(overview.CollectedToday),
		},
		Alerts: buildDashboardAlerts(overview),
	}

	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

// GetTrends 获取配送趋势
func (s *DashboardService) GetTrends(ctx context.Context, input DashboardQueryInput) (*DashboardTrendResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardTrendResponse{}, nil
	}
	window, err := resolveDashboardWindow(input, time.Now())
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("dashboard:trends:%s:%d:%d:%s",
		window.rangeKey,
		window.startAt.Unix(),
		window.endAt.Unix(),
		window.timezone,
	)
	if !input.ForceRefresh {
		var cached DashboardTrendResponse
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	rows, err := s.repo.GetDeliveryTrends(window.startAt, window.endAt)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]repository.DashboardDeliveryTrendRow, len(rows))
	for _, row := range rows {
		byDay[row.Day] = row
	}
	points := make([]DashboardTrendItem, 0, len(rows))
	for day := window.startAt; day.Before(window.endAt); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		row := byDay[key]
		points = append(points, DashboardTrendItem{
			Day:       key,
			Orders:    row.Orders,
			Delivered: row.Delivered,
			Tokens:    row.Tokens,
		})
	}

	response := &DashboardTrendResponse{
		Range:    window.rangeKey,
		From:     window.startAt.Format(time.RFC3339),
		To:       window.endAt.Add(-time.Second).Format(time.RFC3339),
		Timezone: window.timezone,
		Points:   points,
	}
	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

func resolveDashboardWindow(input DashboardQueryInput, now time.Time) (dashboardWindow, error) {
	rangeKey := strings.ToLower(strings.TrimSpace(input.Range))
	if rangeKey == "" {
		rangeKey = "7d"
	}

	timezone := strings.TrimSpace(input.Timezone)
	location := time.Local
	if timezone != "" {
		if parsed, err := time.LoadLocation(timezone); err == nil {
			location = parsed
		} else {
			timezone = ""
		}
	}
	if timezone == "" {
		timezone = location.String()
	}

	localNow := now.In(location)
	todayStart := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, location)
	window := dashboardWindow{rangeKey: rangeKey, timezone: timezone}

	switch rangeKey {
	case "today":
		window.startAt = todayStart
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "7d":
		window.startAt = todayStart.AddDate(0, 0, -6)
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "30d":
		window.startAt = todayStart.AddDate(0, 0, -29)
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "custom":
		if input.From == nil || input.To == nil {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		from := input.From.In(location)
		to := input.To.In(location)
		startAt := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, location)
		endAt := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, location).AddDate(0, 0, 1)
		if !endAt.After(startAt) {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		if endAt.Sub(startAt) > time.Hour*24*dashboardCustomMaxDays {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		window.startAt = startAt
		window.endAt = endAt
	default:
		return dashboardWindow{}, ErrDashboardRangeInvalid
	}
	return window, nil
}

func formatMoneyValue(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func formatPercentValue(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func buildDashboardAlerts(overview repository.DashboardOverviewRow) []DashboardAlertItem {
	alerts := make([]DashboardAlertItem, 0, 2)
	if overview.ConfirmedToday > 0 {
		alerts = append(alerts, DashboardAlertItem{
			Type:  "pending_deliveries",
			Level: "info",
			Value: overview.ConfirmedToday,
		})
	}
	if overview.PendingPayments > 0 {
		alerts = append(alerts, DashboardAlertItem{
			Type:  "pending_payments",
			Level: "warning",
			Value: overview.PendingPayments,
		})
	}
	return alerts
}
