package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/milkdesk/internal/config"
	"github.com/milkdesk/internal/constants"
	"github.com/milkdesk/internal/models"
	"github.com/milkdesk/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu     sync.Mutex
	topics []string
}

func (n *recordingNotifier) Publish(topics ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.topics = append(n.topics, topics...)
}

func (n *recordingNotifier) has(topic string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, item := range n.topics {
		if item == topic {
			return true
		}
	}
	return false
}

type domainFixture struct {
	db        *gorm.DB
	notifier  *recordingNotifier
	ledger    *TokenLedgerService
	customers *CustomerService
	catalog   *CatalogService
	issues    *TokenIssueService
	orders    *OrderService
	area      *models.Area
	tokenType *models.TokenType
	customer  *models.Customer
}

func openServiceTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return db
}

func setupDomainFixture(t *testing.T) *domainFixture {
	t.Helper()
	db := openServiceTestDB(t, "service_domain_test")

	notifier := &recordingNotifier{}
	customerRepo := repository.NewCustomerRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	ledgerRepo := repository.NewTokenLedgerRepository(db)
	issueRepo := repository.NewTokenIssueRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	opLog := NewOperationLogService(repository.NewLogRepository(db))
	orderCfg := config.OrderConfig{MinTokenQty: 1, MaxTokenQty: 100}

	ledger := NewTokenLedgerService(ledgerRepo, catalogRepo, customerRepo, notifier)
	f := &domainFixture{
		db:        db,
		notifier:  notifier,
		ledger:    ledger,
		customers: NewCustomerService(customerRepo, catalogRepo, opLog, notifier),
		catalog:   NewCatalogService(catalogRepo),
		issues:    NewTokenIssueService(issueRepo, customerRepo, catalogRepo, ledger, opLog, notifier, orderCfg),
		orders:    NewOrderService(orderRepo, customerRepo, catalogRepo, ledger, opLog, notifier, orderCfg),
	}

	now := time.Now()
	f.area = &models.Area{Name: "North Zone", IsActive: true, CreatedAt: now, UpdatedAt: now}
	if err := db.Create(f.area).Error; err != nil {
		t.Fatalf("create area failed: %v", err)
	}
	f.tokenType = &models.TokenType{
		Name:      "Full Cream 500ml",
		UnitPrice: models.NewMoneyFromDecimal(decimal.RequireFromString("32.50")),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(f.tokenType).Error; err != nil {
		t.Fatalf("create token type failed: %v", err)
	}
	f.customer = f.createCustomer(t, "Asha Verma", "9876543210")
	return f
}

func (f *domainFixture) createCustomer(t *testing.T, name, mobile string) *models.Customer {
	t.Helper()
	now := time.Now()
	customer := &models.Customer{
		Name:      name,
		Mobile:    mobile,
		AreaID:    f.area.ID,
		Address:   "12 Lake View Road, Sector 4",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.db.Create(customer).Error; err != nil {
		t.Fatalf("create customer failed: %v", err)
	}
	return customer
}

func (f *domainFixture) createOrder(t *testing.T, qty int, status string) *models.Order {
	t.Helper()
	now := time.Now()
	order := &models.Order{
		CustomerID:   f.customer.ID,
		TokenTypeID:  f.tokenType.ID,
		TokenQty:     qty,
		DeliveryDate: now,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := f.db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func (f *domainFixture) balance(t *testing.T) int {
	t.Helper()
	qty, err := f.ledger.GetBalance(f.customer.ID, f.tokenType.ID)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	return qty
}

func (f *domainFixture) seedBalance(t *testing.T, qty int) {
	t.Helper()
	if _, err := f.ledger.Credit(t.Context(), CreditInput{
		CustomerID:  f.customer.ID,
		TokenTypeID: f.tokenType.ID,
		Quantity:    qty,
		Reason:      constants.TokenReasonAdminAdjust,
		Reference:   fmt.Sprintf("seed:%d", time.Now().UnixNano()),
	}); err != nil {
		t.Fatalf("seed balance failed: %v", err)
	}
}
