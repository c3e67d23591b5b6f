package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/milkdesk/internal/constants"
	"github.com/milkdesk/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenIssueRepository 牛奶券发放记录数据访问接口
type TokenIssueRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	Create(issue *models.TokenIssue) error
	GetByID(id uint) (*models.TokenIssue, error)
	GetByIDForUpdate(id uint) (*models.TokenIssue, error)
	Update(issue *models.TokenIssue) error
	Delete(id uint) error
	List(filter TokenIssueListFilter) ([]models.TokenIssue, int64, error)
	SumCollected(from, to time.Time) (decimal.Decimal, error)
	WithTx(tx *gorm.DB) *GormTokenIssueRepository
}

// GormTokenIssueRepository GORM 实现
type GormTokenIssueRepository struct {
	db *gorm.DB
}

// NewTokenIssueRepository 创建发放记录仓库
func NewTokenIssueRepository(db *gorm.DB) *GormTokenIssueRepository {
	return &GormTokenIssueRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTokenIssueRepository) WithTx(tx *gorm.DB) *GormTokenIssueRepository {
	if tx == nil {
		return r
	}
	return &GormTokenIssueRepository{db: tx}
}

// Transaction 在事务中执行
func (r *GormTokenIssueRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建发放记录
func (r *GormTokenIssueRepository) Create(issue *models.TokenIssue) error {
	return r.db.Omit("Customer", "TokenType").Create(issue).Error
}

// GetByID 根据 ID 获取发放记录
func (r *GormTokenIssueRepository) GetByID(id uint) (*models.TokenIssue, error) {
	if id == 0 {
		return nil, nil
	}
	var issue models.TokenIssue
	if err := r.db.Preload("Customer").Preload("TokenType").First(&issue, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &issue, nil
}

// GetByIDForUpdate 加锁获取发放记录
func (r *GormTokenIssueRepository) GetByIDForUpdate(id uint) (*models.TokenIssue, error) {
	if id == 0 {
		return nil, nil
	}
	var issue models.TokenIssue
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&issue, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &issue, nil
}

// Update 更新发放记录
func (r *GormTokenIssueRepository) Update(issue *models.TokenIssue) error {
	return r.db.Omit("Customer", "TokenType").Save(issue).Error
}

// Delete 删除发放记录（软删除）
func (r *GormTokenIssueRepository) Delete(id uint) error {
	result := r.db.Delete(&models.TokenIssue{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List 分页查询发放记录
func (r *GormTokenIssueRepository) List(filter TokenIssueListFilter) ([]models.TokenIssue, int64, error) {
	query := r.db.Model(&models.TokenIssue{})
	if filter.CustomerID != 0 {
		query = query.Where("token_issues.customer_id = ?", filter.CustomerID)
	}
	if name := strings.TrimSpace(filter.CustomerName); name != "" {
		query = query.
			Joins("JOIN customers ON customers.id = token_issues.customer_id").
			Where("customers.name "+likeOperator(r.db)+" ?", likePattern(name))
	}
	if filter.TokenTypeID != 0 {
		query = query.Where("token_issues.token_type_id = ?", filter.TokenTypeID)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("token_issues.payment_status = ?", filter.PaymentStatus)
	}
	if filter.PaymentMode != "" {
		query = query.Where("token_issues.payment_mode = ?", filter.PaymentMode)
	}
	if filter.IssueFrom != nil {
		query = query.Where("token_issues.issue_date >= ?", *filter.IssueFrom)
	}
	if filter.IssueTo != nil {
		query = query.Where("token_issues.issue_date <= ?", *filter.IssueTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var issues []models.TokenIssue
	if err := query.Preload("Customer").Preload("TokenType").
		Order("token_issues.issue_date desc, token_issues.id desc").
		Find(&issues).Error; err != nil {
		return nil, 0, err
	}
	return issues, total, nil
}

// SumCollected 统计时间范围内已收现金
func (r *GormTokenIssueRepository) SumCollected(from, to time.Time) (decimal.Decimal, error) {
	var raw *string
	err := r.db.Model(&models.TokenIssue{}).
		Select("CAST(COALESCE(SUM(total_amount), 0) AS TEXT)").
		Where("payment_status = ?", constants.PaymentStatusCompleted).
		Where("payment_date >= ? AND payment_date < ?", from, to).
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	if raw == nil || *raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}
