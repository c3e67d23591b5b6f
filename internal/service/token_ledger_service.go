package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/milkdesk/internal/cache"
	"github.com/milkdesk/internal/constants"
	"github.com/milkdesk/internal/logger"
	"github.com/milkdesk/internal/metrics"
	"github.com/milkdesk/internal/models"
	"github.com/milkdesk/internal/repository"

	"gorm.io/gorm"
)

// RefreshNotifier 变更广播
type RefreshNotifier interface {
	Publish(topics ...string)
}

// TokenLedgerService 牛奶券余额服务
// 所有余额变动都经由 Credit / Debit，保证余额行与流水同事务写入。
type TokenLedgerService struct {
	ledgerRepo   repository.TokenLedgerRepository
	catalogRepo  repository.CatalogRepository
	customerRepo repository.CustomerRepository
	notifier     RefreshNotifier
}

// TokenMovementInput 余额变动输入
type TokenMovementInput struct {
	CustomerID  uint
	TokenTypeID uint
	Quantity    int
	Reason      string
	Reference   string
	OperatorID  uint
	Remark      string
}

// CreditInput 入账输入
type CreditInput TokenMovementInput

// DebitInput 扣减输入
type DebitInput TokenMovementInput

// LedgerResult 余额变动结果
// Replayed 为 true 表示幂等键已存在，本次未改变余额。
type LedgerResult struct {
	Balance     *models.TokenBalance
	Transaction *models.TokenTransaction
	Replayed    bool
}

// AdminAdjustInput 管理员余额调整输入
type AdminAdjustInput struct {
	CustomerID  uint
	TokenTypeID uint
	Delta       int
	Remark      string
	OperatorID  uint
}

// LedgerDrift 余额与流水不一致的记录
type LedgerDrift struct {
	CustomerID  uint `json:"customer_id"`
	TokenTypeID uint `json:"token_type_id"`
	Balance     int  `json:"balance"`
	Journal     int  `json:"journal"`
	Difference  int  `json:"difference"`
}

// LedgerAuditReport 对账报告
type LedgerAuditReport struct {
	Checked  int           `json:"checked"`
	Drifts   []LedgerDrift `json:"drifts"`
	Repaired int           `json:"repaired"`
	RunAt    time.Time     `json:"run_at"`
}

// CustomerBalanceGroup 按客户分组的余额
type CustomerBalanceGroup struct {
	CustomerID   uint                  `json:"customer_id"`
	CustomerName string                `json:"customer_name"`
	Mobile       string                `json:"mobile"`
	Total        int                   `json:"total"`
	Lines        []models.TokenBalance `json:"lines"`
}

// NewTokenLedgerService 创建余额服务
func NewTokenLedgerService(
	ledgerRepo repository.TokenLedgerRepository,
	catalogRepo repository.CatalogRepository,
	customerRepo repository.CustomerRepository,
	notifier RefreshNotifier,
) *TokenLedgerService {
	return &TokenLedgerService{
		ledgerRepo:   ledgerRepo,
		catalogRepo:  catalogRepo,
		customerRepo: customerRepo,
		notifier:     notifier,
	}
}

// Credit 入账
func (s *TokenLedgerService) Credit(ctx context.Context, input CreditInput) (*LedgerResult, error) {
	var result *LedgerResult
	if err := s.ledgerRepo.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.CreditTx(tx, input)
		return err
	}); err != nil {
		return nil, err
	}
	s.AfterCommit(ctx, result)
	return result, nil
}

// Debit 扣减，余额不足返回 ErrTokenBalanceInsufficient
func (s *TokenLedgerService) Debit(ctx context.Context, input DebitInput) (*LedgerResult, error) {
	var result *LedgerResult
	if err := s.ledgerRepo.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.DebitTx(tx, input)
		return err
	}); err != nil {
		if errors.Is(err, ErrTokenBalanceInsufficient) {
			metrics.LedgerRejected.WithLabelValues(normalizeLedgerReason(input.Reason, constants.TokenDirectionDebit)).Inc()
		}
		return nil, err
	}
	s.AfterCommit(ctx, result)
	return result, nil
}

// CreditTx 在调用方事务内入账，提交后需调用 AfterCommit
func (s *TokenLedgerService) CreditTx(tx *gorm.DB, input CreditInput) (*LedgerResult, error) {
	return s.applyTx(tx, constants.TokenDirectionCredit, TokenMovementInput(input))
}

// DebitTx 在调用方事务内扣减，提交后需调用 AfterCommit
func (s *TokenLedgerService) DebitTx(tx *gorm.DB, input DebitInput) (*LedgerResult, error) {
	return s.applyTx(tx, constants.TokenDirectionDebit, TokenMovementInput(input))
}

// AfterCommit 事务提交后的指标、缓存与广播
func (s *TokenLedgerService) AfterCommit(ctx context.Context, results ...*LedgerResult) {
	changed := false
	for _, result := range results {
		if result == nil || result.Transaction == nil {
			continue
		}
		txn := result.Transaction
		if result.Replayed {
			logger.FromContext(ctx).Infow("token_ledger_replayed",
				"reference", txn.Reference,
				"customer_id", txn.CustomerID,
			)
			continue
		}
		changed = true
		metrics.ObserveLedger(txn.Direction, txn.Reason, txn.Quantity)
		if err := cache.InvalidateBalanceSummary(ctx, txn.CustomerID); err != nil {
			logger.FromContext(ctx).Warnw("token_balance_cache_invalidate_failed",
				"customer_id", txn.CustomerID,
				"error", err,
			)
		}
		logger.FromContext(ctx).Infow("token_ledger_applied",
			"customer_id", txn.CustomerID,
			"token_type_id", txn.TokenTypeID,
			"direction", txn.Direction,
			"reason", txn.Reason,
			"quantity", txn.Quantity,
			"balance_after", txn.BalanceAfter,
			"reference", txn.Reference,
		)
	}
	if changed && s.notifier != nil {
		s.notifier.Publish(constants.RefreshTopicTokenBalance)
	}
}

func (s *TokenLedgerService) applyTx(tx *gorm.DB, direction string, input TokenMovementInput) (*LedgerResult, error) {
	if tx == nil {
		return nil, ErrTokenBalanceUpdateFailed
	}
	if input.CustomerID == 0 {
		return nil, ErrCustomerNotFound
	}
	if input.TokenTypeID == 0 {
		return nil, ErrTokenTypeNotFound
	}
	if input.Quantity <= 0 {
		return nil, ErrTokenQuantityInvalid
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, ErrTokenReferenceRequired
	}
	reason := normalizeLedgerReason(input.Reason, direction)
	now := time.Now()
	repo := s.ledgerRepo.WithTx(tx)

	exists, err := repo.GetTransactionByReference(reference)
	if err != nil {
		return nil, err
	}
	if exists != nil {
		if exists.CustomerID != input.CustomerID || exists.TokenTypeID != input.TokenTypeID || exists.Direction != direction {
			return nil, ErrTokenReferenceConflict
		}
		balance, balanceErr := s.ensureBalanceForUpdate(repo, input.CustomerID, input.TokenTypeID, now)
		if balanceErr != nil {
			return nil, balanceErr
		}
		return &LedgerResult{Balance: balance, Transaction: exists, Replayed: true}, nil
	}

	balance, err := s.ensureBalanceForUpdate(repo, input.CustomerID, input.TokenTypeID, now)
	if err != nil {
		return nil, err
	}
	before := balance.Quantity
	after := before + input.Quantity
	if direction == constants.TokenDirectionDebit {
		after = before - input.Quantity
	}
	if after < 0 {
		return nil, ErrTokenBalanceInsufficient
	}

	balance.Quantity = after
	balance.UpdatedAt = now
	if err := repo.UpdateBalance(balance); err != nil {
		return nil, ErrTokenBalanceUpdateFailed
	}

	txn := &models.TokenTransaction{
		CustomerID:    input.CustomerID,
		TokenTypeID:   input.TokenTypeID,
		Direction:     direction,
		Reason:        reason,
		Quantity:      input.Quantity,
		BalanceBefore: before,
		BalanceAfter:  after,
		Reference:     reference,
		OperatorID:    input.OperatorID,
		Remark:        cleanLedgerRemark(input.Remark, reason),
		CreatedAt:     now,
	}
	if err := repo.CreateTransaction(txn); err != nil {
		return nil, ErrTokenTransactionCreateFailed
	}
	return &LedgerResult{Balance: balance, Transaction: txn}, nil
}

func (s *TokenLedgerService) ensureBalanceForUpdate(repo *repository.GormTokenLedgerRepository, customerID, tokenTypeID uint, now time.Time) (*models.TokenBalance, error) {
	balance, err := repo.GetBalanceForUpdate(customerID, tokenTypeID)
	if err != nil {
		return nil, err
	}
	if balance != nil {
		return balance, nil
	}
	balance = &models.TokenBalance{
		CustomerID:  customerID,
		TokenTypeID: tokenTypeID,
		Quantity:    0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.CreateBalance(balance); err != nil {
		created, queryErr := repo.GetBalanceForUpdate(customerID, tokenTypeID)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, ErrTokenBalanceCreateFailed
	}
	return balance, nil
}

// GetBalance 获取客户某类型余额，无记录视为 0
func (s *TokenLedgerService) GetBalance(customerID, tokenTypeID uint) (int, error) {
	balance, err := s.ledgerRepo.GetBalance(customerID, tokenTypeID)
	if err != nil {
		return 0, err
	}
	if balance == nil {
		return 0, nil
	}
	return balance.Quantity, nil
}

// BalanceSummary 客户余额汇总（优先读缓存）
func (s *TokenLedgerService) BalanceSummary(ctx context.Context, customerID uint) (*cache.BalanceSummary, error) {
	customer, err := s.customerRepo.GetByID(customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	if cached, hit, cacheErr := cache.GetBalanceSummary(ctx, customerID); cacheErr == nil && hit {
		return cached, nil
	}

	rows, _, err := s.ledgerRepo.ListBalances(repository.TokenBalanceListFilter{
		CustomerID: customerID,
		Page:       1,
		PageSize:   500,
	})
	if err != nil {
		return nil, err
	}
	summary := &cache.BalanceSummary{
		CustomerID: customerID,
		Lines:      make([]cache.BalanceSummaryLine, 0, len(rows)),
		UpdatedAt:  time.Now().Unix(),
	}
	for _, row := range rows {
		line := cache.BalanceSummaryLine{TokenTypeID: row.TokenTypeID, Quantity: row.Quantity}
		if row.TokenType != nil {
			line.TokenTypeName = row.TokenType.Name
		}
		summary.Lines = append(summary.Lines, line)
		summary.Total += row.Quantity
	}
	if err := cache.SetBalanceSummary(ctx, summary); err != nil {
		logger.FromContext(ctx).Warnw("token_balance_cache_set_failed", "customer_id", customerID, "error", err)
	}
	return summary, nil
}

// ListBalances 分页查询余额
func (s *TokenLedgerService) ListBalances(filter repository.TokenBalanceListFilter) ([]models.TokenBalance, int64, error) {
	return s.ledgerRepo.ListBalances(filter)
}

// ListTransactions 分页查询余额流水
func (s *TokenLedgerService) ListTransactions(filter repository.TokenTransactionListFilter) ([]models.TokenTransaction, int64, error) {
	return s.ledgerRepo.ListTransactions(filter)
}

// GroupBalancesByCustomer 将余额行按客户分组，保持首次出现的顺序
func GroupBalancesByCustomer(rows []models.TokenBalance) []CustomerBalanceGroup {
	groups := make([]CustomerBalanceGroup, 0)
	index := make(map[uint]int)
	for _, row := range rows {
		pos, ok := index[row.CustomerID]
		if !ok {
			group := CustomerBalanceGroup{CustomerID: row.CustomerID, Lines: make([]models.TokenBalance, 0, 1)}
			if row.Customer != nil {
				group.CustomerName = row.Customer.Name
				group.Mobile = row.Customer.Mobile
			}
			groups = append(groups, group)
			pos = len(groups) - 1
			index[row.CustomerID] = pos
		}
		groups[pos].Lines = append(groups[pos].Lines, row)
		groups[pos].Total += row.Quantity
	}
	return groups
}

// AdminAdjust 管理员手工调整余额，正数入账，负数扣减
func (s *TokenLedgerService) AdminAdjust(ctx context.Context, input AdminAdjustInput) (*LedgerResult, error) {
	if input.Delta == 0 {
		return nil, ErrTokenAdjustZero
	}
	customer, err := s.customerRepo.GetByID(input.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	tokenType, err := s.catalogRepo.GetTokenTypeByID(input.TokenTypeID)
	if err != nil {
		return nil, err
	}
	if tokenType == nil {
		return nil, ErrTokenTypeNotFound
	}

	movement := TokenMovementInput{
		CustomerID:  input.CustomerID,
		TokenTypeID: input.TokenTypeID,
		Quantity:    input.Delta,
		Reason:      constants.TokenReasonAdminAdjust,
		Reference:   buildLedgerReference("adjust", input.CustomerID),
		OperatorID:  input.OperatorID,
		Remark:      input.Remark,
	}
	if input.Delta < 0 {
		movement.Quantity = -input.Delta
		return s.Debit(ctx, DebitInput(movement))
	}
	return s.Credit(ctx, CreditInput(movement))
}

// Audit 按流水重算余额并报告偏差
func (s *TokenLedgerService) Audit(ctx context.Context) (*LedgerAuditReport, error) {
	balances, err := s.ledgerRepo.ListAllBalances()
	if err != nil {
		return nil, err
	}
	totals, err := s.ledgerRepo.ListJournalTotals()
	if err != nil {
		return nil, err
	}
	report := buildAuditReport(balances, totals)
	metrics.LedgerDrift.Set(float64(len(report.Drifts)))
	if len(report.Drifts) > 0 {
		logger.FromContext(ctx).Warnw("token_ledger_drift_detected",
			"checked", report.Checked,
			"drifts", len(report.Drifts),
		)
	}
	return report, nil
}

// Repair 以流水为准修正偏差余额，修正记录以 audit_repair 原因入流水
func (s *TokenLedgerService) Repair(ctx context.Context, operatorID uint) (*LedgerAuditReport, error) {
	report, err := s.Audit(ctx)
	if err != nil {
		return nil, err
	}
	for _, drift := range report.Drifts {
		drift := drift
		err := s.ledgerRepo.Transaction(func(tx *gorm.DB) error {
			return s.repairTx(tx, drift, operatorID)
		})
		if err != nil {
			logger.FromContext(ctx).Errorw("token_ledger_repair_failed",
				"customer_id", drift.CustomerID,
				"token_type_id", drift.TokenTypeID,
				"error", err,
			)
			continue
		}
		report.Repaired++
		if cacheErr := cache.InvalidateBalanceSummary(ctx, drift.CustomerID); cacheErr != nil {
			logger.FromContext(ctx).Warnw("token_balance_cache_invalidate_failed", "customer_id", drift.CustomerID, "error", cacheErr)
		}
	}
	if report.Repaired > 0 && s.notifier != nil {
		s.notifier.Publish(constants.RefreshTopicTokenBalance)
	}
	metrics.LedgerDrift.Set(float64(len(report.Drifts) - report.Repaired))
	return report, nil
}

func (s *TokenLedgerService) repairTx(tx *gorm.DB, drift LedgerDrift, operatorID uint) error {
	repo := s.ledgerRepo.WithTx(tx)
	now := time.Now()
	balance, err := s.ensureBalanceForUpdate(repo, drift.CustomerID, drift.TokenTypeID, now)
	if err != nil {
		return err
	}
	before := balance.Quantity
	after := drift.Journal
	if after < 0 {
		after = 0
	}
	if before == after {
		return nil
	}
	direction := constants.TokenDirectionCredit
	quantity := after - before
	if quantity < 0 {
		direction = constants.TokenDirectionDebit
		quantity = -quantity
	}
	balance.Quantity = after
	balance.UpdatedAt = now
	if err := repo.UpdateBalance(balance); err != nil {
		return ErrTokenBalanceUpdateFailed
	}
	txn := &models.TokenTransaction{
		CustomerID:    drift.CustomerID,
		TokenTypeID:   drift.TokenTypeID,
		Direction:     direction,
		Reason:        constants.TokenReasonAuditRepair,
		Quantity:      quantity,
		BalanceBefore: before,
		BalanceAfter:  after,
		Reference:     buildLedgerReference("repair", drift.CustomerID),
		OperatorID:    operatorID,
		Remark:        fmt.Sprintf("audit repair: journal=%d balance=%d", drift.Journal, drift.Balance),
		CreatedAt:     now,
	}
	if err := repo.CreateTransaction(txn); err != nil {
		return ErrTokenTransactionCreateFailed
	}
	return nil
}

func buildAuditReport(balances []models.TokenBalance, totals []repository.TokenJournalTotal) *LedgerAuditReport {
	type pairKey struct {
		customerID  uint
		tokenTypeID uint
	}
	journal := make(map[pairKey]int, len(totals))
	for _, total := range totals {
		journal[pairKey{total.CustomerID, total.TokenTypeID}] = int(total.Net())
	}
	report := &LedgerAuditReport{Drifts: make([]LedgerDrift, 0), RunAt: time.Now()}
	seen := make(map[pairKey]struct{}, len(balances))
	for _, balance := range balances {
		key := pairKey{balance.CustomerID, balance.TokenTypeID}
		seen[key] = struct{}{}
		report.Checked++
		net := journal[key]
		if net != balance.Quantity {
			report.Drifts = append(report.Drifts, LedgerDrift{
				CustomerID:  balance.CustomerID,
				TokenTypeID: balance.TokenTypeID,
				Balance:     balance.Quantity,
				Journal:     net,
				Difference:  net - balance.Quantity,
			})
		}
	}
	for key, net := range journal {
		if _, ok := seen[key]; ok || net == 0 {
			continue
		}
		report.Checked++
		report.Drifts = append(report.Drifts, LedgerDrift{
			CustomerID:  key.customerID,
			TokenTypeID: key.tokenTypeID,
			Journal:     net,
			Difference:  net,
		})
	}
	sort.Slice(report.Drifts, func(i, j int) bool {
		if report.Drifts[i].CustomerID != report.Drifts[j].CustomerID {
			return report.Drifts[i].CustomerID < report.Drifts[j].CustomerID
		}
		return report.Drifts[i].TokenTypeID < report.Drifts[j].TokenTypeID
	})
	return report
}

func normalizeLedgerReason(reason, direction string) string {
	reason = strings.TrimSpace(reason)
	if reason != "" {
		return reason
	}
	if direction == constants.TokenDirectionDebit {
		return constants.TokenReasonManualOrder
	}
	return constants.TokenReasonIssuePayment
}

func cleanLedgerRemark(raw string, fallback string) string {
	remark := strings.TrimSpace(raw)
	if remark == "" {
		return fallback
	}
	if runes := []rune(remark); len(runes) > 120 {
		return string(runes[:120])
	}
	return remark
}

func buildOrderLedgerReference(orderID uint, action string) string {
	action = strings.TrimSpace(action)
	if action == "" {
		action = "ledger"
	}
	return fmt.Sprintf("order:%d:%s", orderID, action)
}

func buildIssueLedgerReference(issueID uint, action string) string {
	action = strings.TrimSpace(action)
	if action == "" {
		action = "ledger"
	}
	return fmt.Sprintf("issue:%d:%s", issueID, action)
}

func buildLedgerReference(prefix string, id uint) string {
	normalized := strings.TrimSpace(prefix)
	if normalized == "" {
		normalized = "ledger"
	}
	return fmt.Sprintf("%s:%d:%d", normalized, id, time.Now().UnixNano())
}
