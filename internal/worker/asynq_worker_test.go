package worker

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/milkdesk/internal/models"
	"github.com/milkdesk/internal/provider"
	"github.com/milkdesk/internal/queue"
	"github.com/milkdesk/internal/repository"
	"github.com/milkdesk/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func openWorkerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func newLedgerConsumer(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	db := openWorkerTestDB(t)
	ledger := service.NewTokenLedgerService(
		repository.NewTokenLedgerRepository(db),
		repository.NewCatalogRepository(db),
		repository.NewCustomerRepository(db),
		nil,
	)
	return NewConsumer(&provider.Container{TokenLedgerService: ledger}), db
}

func TestRegisterNilSafe(t *testing.T) {
	var c *Consumer
	c.Register(asynq.NewServeMux())
	NewConsumer(&provider.Container{}).Register(nil)
}

func TestHandleOtpDeliverBadPayloadSkipsRetry(t *testing.T) {
	c := NewConsumer(&provider.Container{})
	err := c.handleOtpDeliver(t.Context(), asynq.NewTask(queue.TaskOtpDeliver, []byte("{bad")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestHandleOtpDeliverWithoutServiceIsNoop(t *testing.T) {
	c := NewConsumer(&provider.Container{})
	task, err := queue.NewOtpDeliverTask(queue.OtpDeliverPayload{SessionID: "sess-1", Counter: 1})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := c.handleOtpDeliver(t.Context(), task); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	blank, _ := json.Marshal(queue.OtpDeliverPayload{SessionID: "  "})
	if err := c.handleOtpDeliver(t.Context(), asynq.NewTask(queue.TaskOtpDeliver, blank)); err != nil {
		t.Fatalf("expected blank session to be skipped, got %v", err)
	}
}

func TestHandleLedgerAuditRepairsDrift(t *testing.T) {
	c, db := newLedgerConsumer(t)

	area := &models.Area{Name: "North", IsActive: true}
	if err := db.Create(area).Error; err != nil {
		t.Fatalf("create area failed: %v", err)
	}
	customer := &models.Customer{Name: "Asha", Mobile: "9876543210", AreaID: area.ID, Address: "12 Lake Road, Sector 2", IsActive: true}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("create customer failed: %v", err)
	}
	price, err := models.NewMoneyFromString("32.50")
	if err != nil {
		t.Fatalf("parse price failed: %v", err)
	}
	tokenType := &models.TokenType{Name: "Full Cream 500ml", UnitPrice: price, IsActive: true}
	if err := db.Create(tokenType).Error; err != nil {
		t.Fatalf("create token type failed: %v", err)
	}
	balance := &models.TokenBalance{CustomerID: customer.ID, TokenTypeID: tokenType.ID, Quantity: 9}
	if err := db.Create(balance).Error; err != nil {
		t.Fatalf("create balance failed: %v", err)
	}

	auditTask, err := queue.NewLedgerAuditTask(queue.LedgerAuditPayload{})
	if err != nil {
		t.Fatalf("build audit task failed: %v", err)
	}
	if err := c.handleLedgerAudit(t.Context(), auditTask); err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	var stored models.TokenBalance
	db.First(&stored, balance.ID)
	if stored.Quantity != 9 {
		t.Fatalf("audit must not change balance, got %d", stored.Quantity)
	}

	repairTask, err := queue.NewLedgerAuditTask(queue.LedgerAuditPayload{Repair: true, OperatorID: 3})
	if err != nil {
		t.Fatalf("build repair task failed: %v", err)
	}
	if err := c.handleLedgerAudit(t.Context(), repairTask); err != nil {
		t.Fatalf("repair failed: %v", err)
	}
	db.First(&stored, balance.ID)
	if stored.Quantity != 0 {
		t.Fatalf("expected balance repaired to ledger sum 0, got %d", stored.Quantity)
	}
}

func TestMinutesFallback(t *testing.T) {
	if got := minutes(0, 60); got != time.Hour {
		t.Fatalf("expected fallback 1h, got %s", got)
	}
	if got := minutes(5, 60); got != 5*time.Minute {
		t.Fatalf("expected 5m, got %s", got)
	}
}
