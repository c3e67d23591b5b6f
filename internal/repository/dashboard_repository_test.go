package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/milkdesk/internal/constants"
	"github.com/milkdesk/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupDashboardRepositoryTest(t *testing.T) (*GormDashboardRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("migrate dashboard models failed: %v", err)
	}
	return NewDashboardRepository(db), db
}

func seedDashboardOrder(t *testing.T, db *gorm.DB, customerID, tokenTypeID uint, qty int, status string, day time.Time) {
	t.Helper()
	order := &models.Order{
		CustomerID:   customerID,
		TokenTypeID:  tokenTypeID,
		TokenQty:     qty,
		DeliveryDate: day,
		Status:       status,
		Source:       constants.OrderSourceManual,
		CreatedAt:    day,
		UpdatedAt:    day,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
}

func TestDashboardOverviewCountsDay(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	area := &models.Area{Name: "Central", IsActive: true}
	if err := db.Create(area).Error; err != nil {
		t.Fatalf("create area failed: %v", err)
	}
	tokenType := &models.TokenType{Name: "Cow 1L", UnitPrice: models.NewMoneyFromDecimal(decimal.NewFromInt(60)), IsActive: true}
	if err := db.Create(tokenType).Error; err != nil {
		t.Fatalf("create token type failed: %v", err)
	}
	active := &models.Customer{Name: "Lata", Mobile: "9000011111", AreaID: area.ID, Address: "Plot 7, Ring Road", IsActive: true}
	inactive := &models.Customer{Name: "Mohan", Mobile: "9000022222", AreaID: area.ID, Address: "Plot 9, Ring Road", IsActive: true}
	for _, customer := range []*models.Customer{active, inactive} {
		if err := db.Create(customer).Error; err != nil {
			t.Fatalf("create customer failed: %v", err)
		}
	}
	if err := db.Model(inactive).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate customer failed: %v", err)
	}

	seedDashboardOrder(t, db, active.ID, tokenType.ID, 2, constants.OrderStatusConfirmed, day.Add(6*time.Hour))
	seedDashboardOrder(t, db, active.ID, tokenType.ID, 1, constants.OrderStatusDelivered, day.Add(7*time.Hour))
	seedDashboardOrder(t, db, active.ID, tokenType.ID, 3, constants.OrderStatusCancelled, day.Add(8*time.Hour))
	seedDashboardOrder(t, db, active.ID, tokenType.ID, 5, constants.OrderStatusConfirmed, day.AddDate(0, 0, 1).Add(time.Hour))

	if err := db.Create(&models.TokenBalance{CustomerID: active.ID, TokenTypeID: tokenType.ID, Quantity: 14}).Error; err != nil {
		t.Fatalf("create balance failed: %v", err)
	}
	paidAt := day.Add(9 * time.Hour)
	issues := []models.TokenIssue{
		{CustomerID: active.ID, TokenTypeID: tokenType.ID, Quantity: 10, IssueDate: day, TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(600)), PaymentStatus: constants.PaymentStatusCompleted, PaymentMode: constants.PaymentModeCash, PaymentDate: &paidAt, Credited: true},
		{CustomerID: active.ID, TokenTypeID: tokenType.ID, Quantity: 4, IssueDate: day, TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(240)), PaymentStatus: constants.PaymentStatusPending},
	}
	for i := range issues {
		if err := db.Create(&issues[i]).Error; err != nil {
			t.Fatalf("create issue failed: %v", err)
		}
	}

	row, err := repo.GetOverview(day)
	if err != nil {
		t.Fatalf("get overview failed: %v", err)
	}
	if row.ActiveCustomers != 1 || row.InactiveCustomers != 1 {
		t.Fatalf("unexpected customer counts: %+v", row)
	}
	if row.OrdersToday != 3 || row.ConfirmedToday != 1 || row.DeliveredToday != 1 || row.CancelledToday != 1 {
		t.Fatalf("unexpected order counts: %+v", row)
	}
	if row.TokensOutstanding != 14 || row.PendingPayments != 1 {
		t.Fatalf("unexpected token stats: %+v", row)
	}
	if row.CollectedToday != 600 {
		t.Fatalf("expected collected 600, got %v", row.CollectedToday)
	}
}

func TestDashboardDeliveryTrendsGroupByDay(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	seedDashboardOrder(t, db, 1, 1, 2, constants.OrderStatusDelivered, day.Add(6*time.Hour))
	seedDashboardOrder(t, db, 1, 1, 4, constants.OrderStatusCancelled, day.Add(7*time.Hour))
	seedDashboardOrder(t, db, 2, 1, 1, constants.OrderStatusConfirmed, day.AddDate(0, 0, 1).Add(6*time.Hour))
	seedDashboardOrder(t, db, 2, 1, 9, constants.OrderStatusConfirmed, day.AddDate(0, 0, 5))

	rows, err := repo.GetDeliveryTrends(day, day.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("get trends failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 days, got %d: %+v", len(rows), rows)
	}
	if rows[0].Day != "2024-06-03" || rows[0].Orders != 2 || rows[0].Delivered != 1 || rows[0].Tokens != 2 {
		t.Fatalf("unexpected first day: %+v", rows[0])
	}
	if rows[1].Day != "2024-06-04" || rows[1].Orders != 1 || rows[1].Tokens != 1 {
		t.Fatalf("unexpected second day: %+v", rows[1])
	}
}
