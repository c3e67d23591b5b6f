package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/milkdesk/internal/models"

	"gorm.io/gorm"
)

// CustomerRepository 客户数据访问接口
type CustomerRepository interface {
	Create(customer *models.Customer) error
	Update(customer *models.Customer) error
	GetByID(id uint) (*models.Customer, error)
	GetByMobile(mobile string) (*models.Customer, error)
	List(filter CustomerListFilter) ([]models.Customer, int64, error)
	UpdateStatus(id uint, isActive bool, operatorID uint) error
	CountByActive() (active int64, inactive int64, err error)
}

// GormCustomerRepository GORM 实现
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository 创建客户仓库
func NewCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCustomerRepository) WithTx(tx *gorm.DB) *GormCustomerRepository {
	if tx == nil {
		return r
	}
	return &GormCustomerRepository{db: tx}
}

// Create 创建客户
func (r *GormCustomerRepository) Create(customer *models.Customer) error {
	return r.db.Create(customer).Error
}

// Update 更新客户
func (r *GormCustomerRepository) Update(customer *models.Customer) error {
	return r.db.Omit("Area").Save(customer).Error
}

// GetByID 根据 ID 获取客户
func (r *GormCustomerRepository) GetByID(id uint) (*models.Customer, error) {
	if id == 0 {
		return nil, nil
	}
	var customer models.Customer
	if err := r.db.Preload("Area").First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

// GetByMobile 根据手机号获取客户
func (r *GormCustomerRepository) GetByMobile(mobile string) (*models.Customer, error) {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return nil, nil
	}
	var customer models.Customer
	if err := r.db.Where("mobile = ?", mobile).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

// List 分页查询客户
func (r *GormCustomerRepository) List(filter CustomerListFilter) ([]models.Customer, int64, error) {
	query := r.db.Model(&models.Customer{})
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		op := likeOperator(r.db)
		like := likePattern(keyword)
		query = query.Where("(customers.name "+op+" ? OR customers.mobile "+op+" ?)", like, like)
	}
	if filter.AreaID != 0 {
		query = query.Where("customers.area_id = ?", filter.AreaID)
	}
	if filter.IsActive != nil {
		query = query.Where("customers.is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var customers []models.Customer
	if err := query.Preload("Area").Order("customers.name asc, customers.id asc").Find(&customers).Error; err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

// UpdateStatus 启用或停用客户
func (r *GormCustomerRepository) UpdateStatus(id uint, isActive bool, operatorID uint) error {
	return r.db.Model(&models.Customer{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  isActive,
			"updated_by": operatorID,
			"updated_at": time.Now(),
		}).Error
}

// CountByActive 统计启用与停用客户数
func (r *GormCustomerRepository) CountByActive() (int64, int64, error) {
	var active, inactive int64
	if err := r.db.Model(&models.Customer{}).Where("is_active = ?", true).Count(&active).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.Model(&models.Customer{}).Where("is_active = ?", false).Count(&inactive).Error; err != nil {
		return 0, 0, err
	}
	return active, inactive, nil
}
