package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/milkdesk/internal/config"
	"github.com/milkdesk/internal/constants"
	"github.com/milkdesk/internal/logger"
	"github.com/milkdesk/internal/models"
	"github.com/milkdesk/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TokenIssueService 牛奶券发放历史服务
type TokenIssueService struct {
	issueRepo    repository.TokenIssueRepository
	customerRepo repository.CustomerRepository
	catalogRepo  repository.CatalogRepository
	ledger       *TokenLedgerService
	opLog        *OperationLogService
	notifier     RefreshNotifier
	minQty       int
	maxQty       int
}

// IssueTokensInput 发放输入
type IssueTokensInput struct {
	CustomerID  uint
	TokenTypeID uint
	Quantity    int
	IssueDate   *time.Time
	Paid        bool
	PaymentMode string
	OperatorID  uint
}

// CashPaymentInput 收款输入
type CashPaymentInput struct {
	PaymentMode string
	PaymentDate *time.Time
	OperatorID  uint
}

// NewTokenIssueService 创建发放服务
func NewTokenIssueService(
	issueRepo repository.TokenIssueRepository,
	customerRepo repository.CustomerRepository,
	catalogRepo repository.CatalogRepository,
	ledger *TokenLedgerService,
	opLog *OperationLogService,
	notifier RefreshNotifier,
	orderCfg config.OrderConfig,
) *TokenIssueService {
	minQty, maxQty := resolveQuantityRange(orderCfg)
	return &TokenIssueService{
		issueRepo:    issueRepo,
		customerRepo: customerRepo,
		catalogRepo:  catalogRepo,
		ledger:       ledger,
		opLog:        opLog,
		notifier:     notifier,
		minQty:       minQty,
		maxQty:       maxQty,
	}
}

// Issue 发放牛奶券
// Paid=true 表示发放时已收现金，立即入账；否则生成待收款记录，收款时入账。
func (s *TokenIssueService) Issue(ctx context.Context, input IssueTokensInput) (*models.TokenIssue, error) {
	if input.Quantity < s.minQty || input.Quantity > s.maxQty {
		return nil, ErrTokenIssueQuantityOutOfRange
	}
	if _, err := requireActiveCustomer(s.customerRepo, input.CustomerID); err != nil {
		return nil, err
	}
	tokenType, err := requireActiveTokenType(s.catalogRepo, input.TokenTypeID)
	if err != nil {
		return nil, err
	}
	mode, err := normalizePaymentMode(input.PaymentMode)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	issueDate := now
	if input.IssueDate != nil && !input.IssueDate.IsZero() {
		issueDate = *input.IssueDate
	}
	total := tokenType.UnitPrice.MulQty(input.Quantity)
	issue := &models.TokenIssue{
		CustomerID:    input.CustomerID,
		TokenTypeID:   input.TokenTypeID,
		Quantity:      input.Quantity,
		IssueDate:     issueDate,
		TotalAmount:   total,
		PaymentStatus: constants.PaymentStatusPending,
		CreatedBy:     input.OperatorID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var credit *LedgerResult
	err = s.issueRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.issueRepo.WithTx(tx)
		if err := repo.Create(issue); err != nil {
			return ErrTokenIssueCreateFailed
		}
		if !input.Paid {
			return nil
		}
		var creditErr error
		credit, creditErr = s.creditIssueTx(tx, issue, mode, now, input.OperatorID)
		return creditErr
	})
	if err != nil {
		return nil, err
	}

	s.ledger.AfterCommit(ctx, credit)
	s.opLog.Record(ctx, OperationLogEntry{
		OperatorID: input.OperatorID,
		Action:     constants.ActionTokenIssue,
		TargetType: "token_issue",
		TargetID:   issue.ID,
		Detail: map[string]interface{}{
			"customer_id":   issue.CustomerID,
			"token_type_id": issue.TokenTypeID,
			"quantity":      issue.Quantity,
			"paid":          input.Paid,
		},
	})
	s.publish()
	return s.issueRepo.GetByID(issue.ID)
}

// RecordCashPayment 记录现金收款并入账
func (s *TokenIssueService) RecordCashPayment(ctx context.Context, id uint, input CashPaymentInput) (*models.TokenIssue, error) {
	mode, err := normalizePaymentMode(input.PaymentMode)
	if err != nil {
		return nil, err
	}
	paidAt := time.Now()
	if input.PaymentDate != nil && !input.PaymentDate.IsZero() {
		paidAt = *input.PaymentDate
	}

	var credit *LedgerResult
	err = s.issueRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.issueRepo.WithTx(tx)
		issue, err := repo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if issue == nil {
			return ErrTokenIssueNotFound
		}
		if issue.PaymentStatus == constants.PaymentStatusCompleted {
			return ErrTokenIssueAlreadyPaid
		}
		var creditErr error
		credit, creditErr = s.creditIssueTx(tx, issue, mode, paidAt, input.OperatorID)
		return creditErr
	})
	if err != nil {
		return nil, err
	}

	s.ledger.AfterCommit(ctx, credit)
	s.opLog.Record(ctx, OperationLogEntry{
		OperatorID: input.OperatorID,
		Action:     constants.ActionTokenIssuePayment,
		TargetType: "token_issue",
		TargetID:   id,
		Detail:     map[string]interface{}{"payment_mode": mode},
	})
	s.publish()
	return s.issueRepo.GetByID(id)
}

// Delete 删除发放记录并扣回已入账张数
// 删除与扣减在同一事务，余额已被消耗时整体回滚并返回 ErrTokenBalanceInsufficient。
func (s *TokenIssueService) Delete(ctx context.Context, id uint, operatorID uint) error {
	var debit *LedgerResult
	var deleted models.TokenIssue
	err := s.issueRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.issueRepo.WithTx(tx)
		issue, err := repo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if issue == nil {
			return ErrTokenIssueNotFound
		}
		if err := repo.Delete(issue.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTokenIssueNotFound
			}
			return ErrTokenIssueDeleteFailed
		}
		deleted = *issue
		if !issue.Credited {
			return nil
		}
		var debitErr error
		debit, debitErr = s.ledger.DebitTx(tx, DebitInput{
			CustomerID:  issue.CustomerID,
			TokenTypeID: issue.TokenTypeID,
			Quantity:    issue.Quantity,
			Reason:      constants.TokenReasonIssueDelete,
			Reference:   buildIssueLedgerReference(issue.ID, "delete"),
			OperatorID:  operatorID,
		})
		return debitErr
	})
	if err != nil {
		if errors.Is(err, ErrTokenBalanceInsufficient) {
			logger.FromContext(ctx).Warnw("token_issue_delete_rolled_back",
				"issue_id", id,
				"reason", "balance_consumed",
			)
		}
		return err
	}

	s.ledger.AfterCommit(ctx, debit)
	s.opLog.Record(ctx, OperationLogEntry{
		OperatorID: operatorID,
		Action:     constants.ActionTokenIssueDelete,
		TargetType: "token_issue",
		TargetID:   id,
		Detail: map[string]interface{}{
			"customer_id":   deleted.CustomerID,
			"token_type_id": deleted.TokenTypeID,
			"quantity":      deleted.Quantity,
			"credited":      deleted.Credited,
		},
	})
	s.publish()
	return nil
}

// Get 获取发放记录
func (s *TokenIssueService) Get(id uint) (*models.TokenIssue, error) {
	issue, err := s.issueRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if issue == nil {
		return nil, ErrTokenIssueNotFound
	}
	return issue, nil
}

// List 分页查询发放记录
func (s *TokenIssueService) List(filter repository.TokenIssueListFilter) ([]models.TokenIssue, int64, error) {
	return s.issueRepo.List(filter)
}

// SumCollected 统计区间内已收现金
func (s *TokenIssueService) SumCollected(from, to time.Time) (decimal.Decimal, error) {
	return s.issueRepo.SumCollected(from, to)
}

func (s *TokenIssueService) creditIssueTx(tx *gorm.DB, issue *models.TokenIssue, mode string, paidAt time.Time, operatorID uint) (*LedgerResult, error) {
	issue.PaymentStatus = constants.PaymentStatusCompleted
	issue.PaymentMode = mode
	issue.PaymentDate = &paidAt
	issue.UpdatedAt = time.Now()
	var result *LedgerResult
	if !issue.Credited {
		var err error
		result, err = s.ledger.CreditTx(tx, CreditInput{
			CustomerID:  issue.CustomerID,
			TokenTypeID: issue.TokenTypeID,
			Quantity:    issue.Quantity,
			Reason:      constants.TokenReasonIssuePayment,
			Reference:   buildIssueLedgerReference(issue.ID, "credit"),
			OperatorID:  operatorID,
		})
		if err != nil {
			return nil, err
		}
		issue.Credited = true
	}
	if err := s.issueRepo.WithTx(tx).Update(issue); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *TokenIssueService) publish() {
	if s.notifier != nil {
		s.notifier.Publish(constants.RefreshTopicTokens)
	}
}

func normalizePaymentMode(raw string) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(raw))
	if mode == "" {
		return constants.PaymentModeCash, nil
	}
	if mode != constants.PaymentModeCash {
		return "", ErrPaymentModeInvalid
	}
	return mode, nil
}

func resolveQuantityRange(cfg config.OrderConfig) (int, int) {
	minQty := cfg.MinTokenQty
	if minQty <= 0 {
		minQty = 1
	}
	maxQty := cfg.MaxTokenQty
	if maxQty < minQty {
		maxQty = 100
	}
	return minQty, maxQty
}
