package repository

import (
	"errors"
	"strings"

	"github.com/milkdesk/internal/constants"
	"github.com/milkdesk/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenJournalTotal 按客户与类型汇总的流水合计
type TokenJournalTotal struct {
	CustomerID  uint
	TokenTypeID uint
	Credited    int64
	Debited     int64
}

// Net 流水净额
func (t TokenJournalTotal) Net() int64 {
	return t.Credited - t.Debited
}

// TokenLedgerRepository 牛奶券余额与流水数据访问接口
type TokenLedgerRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	GetBalance(customerID, tokenTypeID uint) (*models.TokenBalance, error)
	GetBalanceForUpdate(customerID, tokenTypeID uint) (*models.TokenBalance, error)
	CreateBalance(balance *models.TokenBalance) error
	UpdateBalance(balance *models.TokenBalance) error
	ListBalances(filter TokenBalanceListFilter) ([]models.TokenBalance, int64, error)
	ListAllBalances() ([]models.TokenBalance, error)
	SumOutstanding() (int64, error)
	CreateTransaction(txn *models.TokenTransaction) error
	GetTransactionByReference(reference string) (*models.TokenTransaction, error)
	ListTransactions(filter TokenTransactionListFilter) ([]models.TokenTransaction, int64, error)
	ListJournalTotals() ([]TokenJournalTotal, error)
	WithTx(tx *gorm.DB) *GormTokenLedgerRepository
}

// GormTokenLedgerRepository GORM 实现
type GormTokenLedgerRepository struct {
	db *gorm.DB
}

// NewTokenLedgerRepository 创建余额仓库
func NewTokenLedgerRepository(db *gorm.DB) *GormTokenLedgerRepository {
	return &GormTokenLedgerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTokenLedgerRepository) WithTx(tx *gorm.DB) *GormTokenLedgerRepository {
	if tx == nil {
		return r
	}
	return &GormTokenLedgerRepository{db: tx}
}

// Transaction 在事务中执行
func (r *GormTokenLedgerRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetBalance 获取客户某类型余额
func (r *GormTokenLedgerRepository) GetBalance(customerID, tokenTypeID uint) (*models.TokenBalance, error) {
	if customerID == 0 || tokenTypeID == 0 {
		return nil, nil
	}
	var balance models.TokenBalance
	if err := r.db.Where("customer_id = ? AND token_type_id = ?", customerID, tokenTypeID).
		First(&balance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &balance, nil
}

// GetBalanceForUpdate 加锁获取客户某类型余额
func (r *GormTokenLedgerRepository) GetBalanceForUpdate(customerID, tokenTypeID uint) (*models.TokenBalance, error) {
	if customerID == 0 || tokenTypeID == 0 {
		return nil, nil
	}
	var balance models.TokenBalance
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("customer_id = ? AND token_type_id = ?", customerID, tokenTypeID).
		First(&balance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &balance, nil
}

// CreateBalance 创建余额行
func (r *GormTokenLedgerRepository) CreateBalance(balance *models.TokenBalance) error {
	return r.db.Create(balance).Error
}

// UpdateBalance 更新余额行
func (r *GormTokenLedgerRepository) UpdateBalance(balance *models.TokenBalance) error {
	return r.db.Model(&models.TokenBalance{}).
		Where("id = ?", balance.ID).
		Updates(map[string]interface{}{
			"quantity":   balance.Quantity,
			"updated_at": balance.UpdatedAt,
		}).Error
}

// ListBalances 分页查询余额
func (r *GormTokenLedgerRepository) ListBalances(filter TokenBalanceListFilter) ([]models.TokenBalance, int64, error) {
	query := r.db.Model(&models.TokenBalance{})
	if filter.CustomerID != 0 {
		query = query.Where("token_balances.customer_id = ?", filter.CustomerID)
	}
	if filter.TokenTypeID != 0 {
		query = query.Where("token_balances.token_type_id = ?", filter.TokenTypeID)
	}
	if filter.OnlyPositive {
		query = query.Where("token_balances.quantity > 0")
	}
	if name := strings.TrimSpace(filter.CustomerName); name != "" {
		query = query.
			Joins("JOIN customers ON customers.id = token_balances.customer_id").
			Where("customers.name "+likeOperator(r.db)+" ?", likePattern(name))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var balances []models.TokenBalance
	if err := query.Preload("Customer").Preload("TokenType").
		Order("token_balances.customer_id asc, token_balances.token_type_id asc").
		Find(&balances).Error; err != nil {
		return nil, 0, err
	}
	return balances, total, nil
}

// ListAllBalances 获取全部余额行（用于对账）
func (r *GormTokenLedgerRepository) ListAllBalances() ([]models.TokenBalance, error) {
	balances := make([]models.TokenBalance, 0)
	if err := r.db.Order("id asc").Find(&balances).Error; err != nil {
		return nil, err
	}
	return balances, nil
}

// SumOutstanding 统计全部未使用张数
func (r *GormTokenLedgerRepository) SumOutstanding() (int64, error) {
	var total int64
	if err := r.db.Model(&models.TokenBalance{}).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// CreateTransaction 创建余额流水
func (r *GormTokenLedgerRepository) CreateTransaction(txn *models.TokenTransaction) error {
	return r.db.Create(txn).Error
}

// GetTransactionByReference 按幂等键获取流水
func (r *GormTokenLedgerRepository) GetTransactionByReference(reference string) (*models.TokenTransaction, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var txn models.TokenTransaction
	if err := r.db.Where("reference = ?", reference).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// ListTransactions 分页查询余额流水
func (r *GormTokenLedgerRepository) ListTransactions(filter TokenTransactionListFilter) ([]models.TokenTransaction, int64, error) {
	query := r.db.Model(&models.TokenTransaction{})
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.TokenTypeID != 0 {
		query = query.Where("token_type_id = ?", filter.TokenTypeID)
	}
	if filter.Direction != "" {
		query = query.Where("direction = ?", filter.Direction)
	}
	if filter.Reason != "" {
		query = query.Where("reason = ?", filter.Reason)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var txns []models.TokenTransaction
	if err := query.Order("id desc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// ListJournalTotals 按客户与类型汇总流水（不含对账修正记录）
func (r *GormTokenLedgerRepository) ListJournalTotals() ([]TokenJournalTotal, error) {
	rows := make([]TokenJournalTotal, 0)
	err := r.db.Model(&models.TokenTransaction{}).
		Select(
			"customer_id, token_type_id, "+
				"COALESCE(SUM(CASE WHEN direction = ? THEN quantity ELSE 0 END), 0) AS credited, "+
				"COALESCE(SUM(CASE WHEN direction = ? THEN quantity ELSE 0 END), 0) AS debited",
			constants.TokenDirectionCredit, constants.TokenDirectionDebit,
		).
		Where("reason <> ?", constants.TokenReasonAuditRepair).
		Group("customer_id, token_type_id").
		Order("customer_id asc, token_type_id asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
