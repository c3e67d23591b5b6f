//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/milkdesk/internal/constants"
	"github.com/milkdesk/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := models.AllModels()
	_ = db.Migrator().DropTable(cleanupModels...)
	if err := db.AutoMigrate(cleanupModels...); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresCustomerKeywordSearchIsCaseInsensitive(t *testing.T) {
	db := setupPostgresIntegrationDB(t)

	area := &models.Area{Name: "PG Zone", IsActive: true}
	if err := db.Create(area).Error; err != nil {
		t.Fatalf("create area failed: %v", err)
	}
	repo := NewCustomerRepository(db)
	customer := &models.Customer{Name: "Radha Krishnan", Mobile: "9811122233", AreaID: area.ID, Address: "3 Canal Road, Ward 5", IsActive: true}
	if err := repo.Create(customer); err != nil {
		t.Fatalf("create customer failed: %v", err)
	}

	rows, total, err := repo.List(CustomerListFilter{Page: 1, PageSize: 20, Keyword: "radha"})
	if err != nil {
		t.Fatalf("customer keyword search failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("customer search want 1 got total=%d len=%d", total, len(rows))
	}

	rows, total, err = repo.List(CustomerListFilter{Page: 1, PageSize: 20, Keyword: "981112"})
	if err != nil {
		t.Fatalf("customer mobile search failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("customer mobile search want 1 got total=%d len=%d", total, len(rows))
	}
}

func TestPostgresDashboardQueries(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewDashboardRepository(db)
	day := time.Now().UTC().Truncate(24 * time.Hour)

	tokenType := &models.TokenType{Name: "PG Buffalo 500ml", UnitPrice: models.NewMoneyFromDecimal(decimal.NewFromInt(40)), IsActive: true}
	if err := db.Create(tokenType).Error; err != nil {
		t.Fatalf("create token type failed: %v", err)
	}
	orders := []models.Order{
		{CustomerID: 1, TokenTypeID: tokenType.ID, TokenQty: 2, DeliveryDate: day.Add(5 * time.Hour), Status: constants.OrderStatusDelivered, Source: constants.OrderSourceManual},
		{CustomerID: 1, TokenTypeID: tokenType.ID, TokenQty: 1, DeliveryDate: day.Add(6 * time.Hour), Status: constants.OrderStatusConfirmed, Source: constants.OrderSourceManual},
	}
	for i := range orders {
		if err := db.Create(&orders[i]).Error; err != nil {
			t.Fatalf("create order failed: %v", err)
		}
	}

	overview, err := repo.GetOverview(day)
	if err != nil {
		t.Fatalf("get overview failed: %v", err)
	}
	if overview.OrdersToday != 2 || overview.DeliveredToday != 1 {
		t.Fatalf("unexpected overview: %+v", overview)
	}

	trends, err := repo.GetDeliveryTrends(day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("get trends failed: %v", err)
	}
	if len(trends) != 1 || trends[0].Orders != 2 || trends[0].Tokens != 3 {
		t.Fatalf("unexpected trends: %+v", trends)
	}
}
