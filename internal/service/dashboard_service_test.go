package service

import (
	"errors"
	"testing"
	"time"

	"github.com/milkdesk/internal/repository"
)

type stubDashboardRepo struct {
	overview repository.DashboardOverviewRow
	trends   []repository.DashboardDeliveryTrendRow
}

func (s *stubDashboardRepo) GetOverview(time.Time) (repository.DashboardOverviewRow, error) {
	return s.overview, nil
}

func (s *stubDashboardRepo) GetDeliveryTrends(time.Time, time.Time) ([]repository.DashboardDeliveryTrendRow, error) {
	return s.trends, nil
}

func TestResolveDashboardWindowRanges(t *testing.T) {
	now := time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)
	cases := []struct {
		rangeKey string
		days     int
	}{
		{"today", 1},
		{"7d", 7},
		{"", 7},
		{"30d", 30},
	}
	for _, tc := range cases {
		window, err := resolveDashboardWindow(DashboardQueryInput{Range: tc.rangeKey, Timezone: "UTC"}, now)
		if err != nil {
			t.Fatalf("range %q: unexpected error %v", tc.rangeKey, err)
		}
		if got := int(window.endAt.Sub(window.startAt).Hours() / 24); got != tc.days {
			t.Fatalf("range %q: expected %d days, got %d", tc.rangeKey, tc.days, got)
		}
		if !window.endAt.Equal(time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("range %q: unexpected end %s", tc.rangeKey, window.endAt)
		}
	}

	if _, err := resolveDashboardWindow(DashboardQueryInput{Range: "year"}, now); !errors.Is(err, ErrDashboardRangeInvalid) {
		t.Fatalf("expected ErrDashboardRangeInvalid for unknown range, got %v", err)
	}
}

func TestResolveDashboardWindowCustom(t *testing.T) {
	now := time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)
	from := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 3, 18, 0, 0, 0, time.UTC)

	window, err := resolveDashboardWindow(DashboardQueryInput{Range: "custom", From: &from, To: &to, Timezone: "UTC"}, now)
	if err != nil {
		t.Fatalf("custom range failed: %v", err)
	}
	if !window.startAt.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) || !window.endAt.Equal(time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected custom window %s - %s", window.startAt, window.endAt)
	}

	if _, err := resolveDashboardWindow(DashboardQueryInput{Range: "custom", From: &from}, now); !errors.Is(err, ErrDashboardRangeInvalid) {
		t.Fatalf("expected missing bound to fail, got %v", err)
	}
	if _, err := resolveDashboardWindow(DashboardQueryInput{Range: "custom", From: &to, To: &from}, now); !errors.Is(err, ErrDashboardRangeInvalid) {
		t.Fatalf("expected reversed bounds to fail, got %v", err)
	}
	farFrom := from.AddDate(0, -6, 0)
	if _, err := resolveDashboardWindow(DashboardQueryInput{Range: "custom", From: &farFrom, To: &to}, now); !errors.Is(err, ErrDashboardRangeInvalid) {
		t.Fatalf("expected oversized window to fail, got %v", err)
	}
}

func TestResolveDashboardWindowTimezoneFallback(t *testing.T) {
	now := time.Date(2024, 6, 15, 20, 0, 0, 0, time.UTC)
	window, err := resolveDashboardWindow(DashboardQueryInput{Range: "today", Timezone: "Mars/Olympus"}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if window.timezone != time.Local.String() {
		t.Fatalf("expected local timezone fallback, got %q", window.timezone)
	}

	window, err = resolveDashboardWindow(DashboardQueryInput{Range: "today", Timezone: "Asia/Kolkata"}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if window.startAt.Format("2006-01-02") != "2024-06-16" {
		t.Fatalf("expected kolkata day 2024-06-16, got %s", window.startAt.Format("2006-01-02"))
	}
}

func TestDashboardOverviewKPI(t *testing.T) {
	repo := &stubDashboardRepo{overview: repository.DashboardOverviewRow{
		ActiveCustomers:   12,
		InactiveCustomers: 3,
		OrdersToday:       10,
		ConfirmedToday:    4,
		DeliveredToday:    4,
		CancelledToday:    2,
		TokensOutstanding: 140,
		PendingPayments:   2,
		CollectedToday:    1250.5,
	}}
	svc := NewDashboardService(repo)

	resp, err := svc.GetOverview(t.Context(), DashboardQueryInput{Timezone: "UTC", ForceRefresh: true})
	if err != nil {
		t.Fatalf("get overview failed: %v", err)
	}
	if resp.KPI.DeliveryRate != "50.00" {
		t.Fatalf("expected delivery rate 50.00, got %s", resp.KPI.DeliveryRate)
	}
	if resp.KPI.CollectedToday != "1250.50" {
		t.Fatalf("expected collected 1250.50, got %s", resp.KPI.CollectedToday)
	}
	if len(resp.Alerts) != 2 || resp.Alerts[0].Type != "pending_deliveries" || resp.Alerts[1].Type != "pending_payments" {
		t.Fatalf("unexpected alerts: %+v", resp.Alerts)
	}
}

func TestDashboardAlertsEmptyWhenSettled(t *testing.T) {
	alerts := buildDashboardAlerts(repository.DashboardOverviewRow{OrdersToday: 5, DeliveredToday: 5})
	if len(alerts) != 0 {
		t.Fatalf("expected no alerts, got %+v", alerts)
	}
}

func TestDashboardTrendsFillsMissingDays(t *testing.T) {
	today := time.Now().UTC().Format("2006-01-02")
	repo := &stubDashboardRepo{trends: []repository.DashboardDeliveryTrendRow{
		{Day: today, Orders: 4, Delivered: 3, Tokens: 9},
	}}
	svc := NewDashboardService(repo)

	resp, err := svc.GetTrends(t.Context(), DashboardQueryInput{Range: "7d", Timezone: "UTC", ForceRefresh: true})
	if err != nil {
		t.Fatalf("get trends failed: %v", err)
	}
	if len(resp.Points) != 7 {
		t.Fatalf("expected 7 points, got %d", len(resp.Points))
	}
	last := resp.Points[len(resp.Points)-1]
	if last.Day != today || last.Orders != 4 || last.Tokens != 9 {
		t.Fatalf("unexpected last point: %+v", last)
	}
	if resp.Points[0].Orders != 0 {
		t.Fatalf("expected empty first day, got %+v", resp.Points[0])
	}
}
