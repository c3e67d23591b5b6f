package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/milkdesk/internal/config"
	"github.com/milkdesk/internal/constants"
	"github.com/milkdesk/internal/logger"
	"github.com/milkdesk/internal/metrics"
	"github.com/milkdesk/internal/models"
	"github.com/milkdesk/internal/repository"

	"gorm.io/gorm"
)

// OrderService 配送订单服务
type OrderService struct {
	orderRepo    repository.OrderRepository
	customerRepo repository.CustomerRepository
	catalogRepo  repository.CatalogRepository
	ledger       *TokenLedgerService
	opLog        *OperationLogService
	notifier     RefreshNotifier
	minQty       int
	maxQty       int
}

// BulkStatusInput 批量更新状态输入
type BulkStatusInput struct {
	OrderIDs   []uint
	Status     string
	OperatorID uint
}

// BulkStatusResult 批量更新结果
type BulkStatusResult struct {
	Status  string `json:"status"`
	Updated []uint `json:"updated"`
	Skipped []uint `json:"skipped"`
}

// ManualOrderInput 手工下单输入
type ManualOrderInput struct {
	CustomerID   uint
	TokenTypeID  uint
	Quantity     int
	DeliveryDate *time.Time
	OperatorID   uint
}

// ManualOrderCheck 手工下单预校验结果
type ManualOrderCheck struct {
	CustomerID  uint   `json:"customer_id"`
	TokenTypeID uint   `json:"token_type_id"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
	MinQty      int    `json:"min_qty"`
	MaxQty      int    `json:"max_qty"`
	Valid       bool   `json:"valid"`
	Reason      string `json:"reason,omitempty"`
	Err         error  `json:"-"`
}

// OrderStatusSummary 订单状态统计
type OrderStatusSummary struct {
	Confirmed int64 `json:"confirmed"`
	Delivered int64 `json:"delivered"`
	Cancelled int64 `json:"cancelled"`
	Total     int64 `json:"total"`
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	customerRepo repository.CustomerRepository,
	catalogRepo repository.CatalogRepository,
	ledger *TokenLedgerService,
	opLog *OperationLogService,
	notifier RefreshNotifier,
	orderCfg config.OrderConfig,
) *OrderService {
	minQty, maxQty := resolveQuantityRange(orderCfg)
	return &OrderService{
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		catalogRepo:  catalogRepo,
		ledger:       ledger,
		opLog:        opLog,
		notifier:     notifier,
		minQty:       minQty,
		maxQty:       maxQty,
	}
}

// Deliver 标记订单已送达，不影响余额
func (s *OrderService) Deliver(ctx context.Context, orderID, operatorID uint) (*models.Order, error) {
	return s.UpdateStatus(ctx, orderID, constants.OrderStatusDelivered, operatorID)
}

// Cancel 取消订单并退回张数
func (s *OrderService) Cancel(ctx context.Context, orderID, operatorID uint) (*models.Order, error) {
	return s.UpdateStatus(ctx, orderID, constants.OrderStatusCancelled, operatorID)
}

// UpdateStatus 单个订单状态流转
// confirmed -> cancelled 时在同一事务内退回 TokenQty 张到客户余额。
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, targetStatus string, operatorID uint) (*models.Order, error) {
	target := NormalizeOrderStatus(targetStatus)
	if target == "" {
		return nil, ErrOrderStatusInvalid
	}

	var credit *LedgerResult
	var previous string
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		order, err := repo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if isTerminalOrderStatus(order.Status) || !isTransitionAllowed(order.Status, target) {
			return ErrOrderStatusInvalid
		}
		previous = order.Status
		now := time.Now()
		if err := repo.UpdateStatus(order.ID, orderStatusUpdates(target, operatorID, now)); err != nil {
			return ErrOrderUpdateFailed
		}
		if target != constants.OrderStatusCancelled {
			return nil
		}
		var creditErr error
		credit, creditErr = s.ledger.CreditTx(tx, CreditInput{
			CustomerID:  order.CustomerID,
			TokenTypeID: order.TokenTypeID,
			Quantity:    order.TokenQty,
			Reason:      constants.TokenReasonOrderCancel,
			Reference:   buildOrderLedgerReference(order.ID, "cancel"),
			OperatorID:  operatorID,
		})
		return creditErr
	})
	if err != nil {
		if errors.Is(err, ErrOrderStatusInvalid) {
			logger.FromContext(ctx).Warnw("order_status_transition_rejected",
				"order_id", orderID,
				"target", target,
			)
		}
		return nil, err
	}

	s.ledger.AfterCommit(ctx, credit)
	metrics.ObserveOrderTransition(target, "single", 1)
	s.opLog.Record(ctx, OperationLogEntry{
		OperatorID: operatorID,
		Action:     constants.ActionOrderStatus,
		TargetType: "order",
		TargetID:   orderID,
		Detail:     map[string]interface{}{"from": previous, "to": target},
	})
	s.publish()
	return s.orderRepo.GetByID(orderID)
}

// BulkUpdateStatus 批量更新订单状态
// 未选择订单或目标状态时不做任何修改并返回 ErrOrderBulkEmpty。
// 批量取消不退回余额；非 confirmed 的订单跳过并在结果中返回。
func (s *OrderService) BulkUpdateStatus(ctx context.Context, input BulkStatusInput) (*BulkStatusResult, error) {
	ids := dedupeOrderIDs(input.OrderIDs)
	rawStatus := strings.TrimSpace(input.Status)
	if len(ids) == 0 || rawStatus == "" {
		logger.FromContext(ctx).Warnw("order_bulk_status_noop",
			"order_count", len(ids),
			"status", rawStatus,
		)
		return nil, ErrOrderBulkEmpty
	}
	target := NormalizeOrderStatus(rawStatus)
	if target == "" || target == constants.OrderStatusConfirmed {
		return nil, ErrOrderStatusInvalid
	}

	result := &BulkStatusResult{Status: target, Updated: make([]uint, 0, len(ids)), Skipped: make([]uint, 0)}
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		orders, err := repo.ListByIDsForUpdate(ids)
		if err != nil {
			return err
		}
		found := make(map[uint]string, len(orders))
		for _, order := range orders {
			found[order.ID] = order.Status
		}
		candidates := make([]uint, 0, len(ids))
		for _, id := range ids {
			status, ok := found[id]
			if ok && isTransitionAllowed(status, target) {
				candidates = append(candidates, id)
				continue
			}
			result.Skipped = append(result.Skipped, id)
		}
		if len(candidates) == 0 {
			return nil
		}
		affected, err := repo.UpdateStatusBatch(candidates, constants.OrderStatusConfirmed, orderStatusUpdates(target, input.OperatorID, time.Now()))
		if err != nil {
			return ErrOrderUpdateFailed
		}
		if affected == int64(len(candidates)) {
			result.Updated = append(result.Updated, candidates...)
			return nil
		}
		// 读取之后被其他会话改动的订单不计入已更新
		updated, skipped, err := splitBulkOutcome(repo, candidates, target, input.OperatorID)
		if err != nil {
			return err
		}
		result.Updated = append(result.Updated, updated...)
		result.Skipped = append(result.Skipped, skipped...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(result.Skipped) > 0 {
		logger.FromContext(ctx).Warnw("order_bulk_status_skipped",
			"status", target,
			"skipped", result.Skipped,
		)
	}
	metrics.ObserveOrderTransition(target, "bulk", len(result.Updated))
	s.opLog.Record(ctx, OperationLogEntry{
		OperatorID: input.OperatorID,
		Action:     constants.ActionOrderBulkStatus,
		TargetType: "order",
		Detail: map[string]interface{}{
			"status":  target,
			"updated": result.Updated,
			"skipped": result.Skipped,
		},
	})
	if len(result.Updated) > 0 {
		s.publish()
	}
	return result, nil
}

func splitBulkOutcome(repo *repository.GormOrderRepository, ids []uint, target string, operatorID uint) ([]uint, []uint, error) {
	orders, err := repo.ListByIDs(ids)
	if err != nil {
		return nil, nil, err
	}
	applied := make(map[uint]bool, len(orders))
	for _, order := range orders {
		applied[order.ID] = order.Status == target && order.UpdatedBy == operatorID
	}
	updated := make([]uint, 0, len(ids))
	skipped := make([]uint, 0)
	for _, id := range ids {
		if applied[id] {
			updated = append(updated, id)
			continue
		}
		skipped = append(skipped, id)
	}
	return updated, skipped, nil
}

// ValidateManualOrder 手工下单预校验，不写入任何数据
func (s *OrderService) ValidateManualOrder(input ManualOrderInput) (*ManualOrderCheck, error) {
	check := &ManualOrderCheck{
		CustomerID:  input.CustomerID,
		TokenTypeID: input.TokenTypeID,
		Requested:   input.Quantity,
		MinQty:      s.minQty,
		MaxQty:      s.maxQty,
	}
	if input.CustomerID != 0 && input.TokenTypeID != 0 {
		available, err := s.ledger.GetBalance(input.CustomerID, input.TokenTypeID)
		if err != nil {
			return nil, err
		}
		check.Available = available
	}
	if err := s.validateManualOrder(input, check.Available); err != nil {
		if reason := manualOrderRejectReason(err); reason != "" {
			check.Err = err
			check.Reason = reason
			return check, nil
		}
		return nil, err
	}
	check.Valid = true
	return check, nil
}

// CreateManualOrder 手工下单：创建 confirmed 订单并扣减同等张数
func (s *OrderService) CreateManualOrder(ctx context.Context, input ManualOrderInput) (*models.Order, error) {
	// 余额在 DebitTx 中加锁校验
	if err := s.validateManualOrder(input, input.Quantity); err != nil {
		return nil, err
	}

	now := time.Now()
	deliveryDate := now
	if input.DeliveryDate != nil && !input.DeliveryDate.IsZero() {
		deliveryDate = *input.DeliveryDate
	}
	order := &models.Order{
		CustomerID:   input.CustomerID,
		TokenTypeID:  input.TokenTypeID,
		TokenQty:     input.Quantity,
		DeliveryDate: deliveryDate,
		Status:       constants.OrderStatusConfirmed,
		Source:       constants.OrderSourceManual,
		CreatedBy:    input.OperatorID,
		UpdatedBy:    input.OperatorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var debit *LedgerResult
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).Create(order); err != nil {
			return ErrOrderCreateFailed
		}
		var debitErr error
		debit, debitErr = s.ledger.DebitTx(tx, DebitInput{
			CustomerID:  order.CustomerID,
			TokenTypeID: order.TokenTypeID,
			Quantity:    order.TokenQty,
			Reason:      constants.TokenReasonManualOrder,
			Reference:   buildOrderLedgerReference(order.ID, "debit"),
			OperatorID:  input.OperatorID,
		})
		return debitErr
	})
	if err != nil {
		if errors.Is(err, ErrTokenBalanceInsufficient) {
			metrics.LedgerRejected.WithLabelValues(constants.TokenReasonManualOrder).Inc()
		}
		return nil, err
	}

	s.ledger.AfterCommit(ctx, debit)
	s.opLog.Record(ctx, OperationLogEntry{
		OperatorID: input.OperatorID,
		Action:     constants.ActionOrderManualCreate,
		TargetType: "order",
		TargetID:   order.ID,
		Detail: map[string]interface{}{
			"customer_id":   order.CustomerID,
			"token_type_id": order.TokenTypeID,
			"token_qty":     order.TokenQty,
		},
	})
	s.publish()
	return s.orderRepo.GetByID(order.ID)
}

// Get 获取订单
func (s *OrderService) Get(id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// List 分页查询订单
func (s *OrderService) List(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.List(filter)
}

// Summary 按状态统计订单
func (s *OrderService) Summary(filter repository.OrderListFilter) (OrderStatusSummary, error) {
	rows, err := s.orderRepo.CountByStatus(filter)
	if err != nil {
		return OrderStatusSummary{}, err
	}
	var summary OrderStatusSummary
	for _, row := range rows {
		switch row.Status {
		case constants.OrderStatusConfirmed:
			summary.Confirmed = row.Total
		case constants.OrderStatusDelivered:
			summary.Delivered = row.Total
		case constants.OrderStatusCancelled:
			summary.Cancelled = row.Total
		}
		summary.Total += row.Total
	}
	return summary, nil
}

func (s *OrderService) validateManualOrder(input ManualOrderInput, available int) error {
	if input.Quantity < s.minQty || input.Quantity > s.maxQty {
		return ErrOrderQuantityOutOfRange
	}
	if _, err := requireActiveCustomer(s.customerRepo, input.CustomerID); err != nil {
		return err
	}
	if _, err := requireActiveTokenType(s.catalogRepo, input.TokenTypeID); err != nil {
		return err
	}
	if input.Quantity > available {
		return ErrTokenBalanceInsufficient
	}
	return nil
}

func (s *OrderService) publish() {
	if s.notifier != nil {
		s.notifier.Publish(constants.RefreshTopicOrders)
	}
}

func manualOrderRejectReason(err error) string {
	switch {
	case errors.Is(err, ErrOrderQuantityOutOfRange):
		return "quantity_out_of_range"
	case errors.Is(err, ErrTokenBalanceInsufficient):
		return "insufficient_balance"
	case errors.Is(err, ErrCustomerNotFound):
		return "customer_not_found"
	case errors.Is(err, ErrCustomerInactive):
		return "customer_inactive"
	case errors.Is(err, ErrTokenTypeNotFound):
		return "token_type_not_found"
	case errors.Is(err, ErrTokenTypeInactive):
		return "token_type_inactive"
	default:
		return ""
	}
}

func dedupeOrderIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
