package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/milkdesk/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderStatusCount 订单状态计数
type OrderStatusCount struct {
	Status string
	Total  int64
}

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByIDForUpdate(id uint) (*models.Order, error)
	ListByIDs(ids []uint) ([]models.Order, error)
	ListByIDsForUpdate(ids []uint) ([]models.Order, error)
	UpdateStatus(id uint, updates map[string]interface{}) error
	UpdateStatusBatch(ids []uint, fromStatus string, updates map[string]interface{}) (int64, error)
	List(filter OrderListFilter) ([]models.Order, int64, error)
	CountByStatus(filter OrderListFilter) ([]OrderStatusCount, error)
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Transaction 在事务中执行
func (r *GormOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建订单
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Omit("Customer", "TokenType").Create(order).Error
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	if id == 0 {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Preload("Customer.Area").Preload("TokenType").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDForUpdate 加锁获取订单
func (r *GormOrderRepository) GetByIDForUpdate(id uint) (*models.Order, error) {
	if id == 0 {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListByIDs 批量获取订单
func (r *GormOrderRepository) ListByIDs(ids []uint) ([]models.Order, error) {
	if len(ids) == 0 {
		return []models.Order{}, nil
	}
	var orders []models.Order
	if err := r.db.Where("id IN ?", ids).Order("id asc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListByIDsForUpdate 批量加锁获取订单
func (r *GormOrderRepository) ListByIDsForUpdate(ids []uint) ([]models.Order, error) {
	if len(ids) == 0 {
		return []models.Order{}, nil
	}
	var orders []models.Order
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).Order("id asc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus 更新单个订单状态字段
func (r *GormOrderRepository) UpdateStatus(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateStatusBatch 批量更新订单状态字段
// 仅更新当前状态仍为 fromStatus 的订单，返回实际更新行数。
func (r *GormOrderRepository) UpdateStatusBatch(ids []uint, fromStatus string, updates map[string]interface{}) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Order{}).
		Where("id IN ? AND status = ?", ids, fromStatus).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// List 分页查询订单
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.filtered(filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var orders []models.Order
	if err := query.Preload("Customer.Area").Preload("TokenType").
		Order("orders.delivery_date desc, orders.id desc").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// CountByStatus 按状态统计订单
func (r *GormOrderRepository) CountByStatus(filter OrderListFilter) ([]OrderStatusCount, error) {
	rows := make([]OrderStatusCount, 0)
	if err := r.filtered(filter).
		Select("orders.status AS status, COUNT(*) AS total").
		Group("orders.status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *GormOrderRepository) filtered(filter OrderListFilter) *gorm.DB {
	query := r.db.Model(&models.Order{})
	joinedCustomers := false
	joinCustomers := func() {
		if !joinedCustomers {
			query = query.Joins("JOIN customers ON customers.id = orders.customer_id")
			joinedCustomers = true
		}
	}
	if filter.CustomerID != 0 {
		query = query.Where("orders.customer_id = ?", filter.CustomerID)
	}
	if name := strings.TrimSpace(filter.CustomerName); name != "" {
		joinCustomers()
		query = query.Where("customers.name "+likeOperator(r.db)+" ?", likePattern(name))
	}
	if filter.AreaID != 0 {
		joinCustomers()
		query = query.Where("customers.area_id = ?", filter.AreaID)
	}
	if filter.TokenTypeID != 0 {
		query = query.Where("orders.token_type_id = ?", filter.TokenTypeID)
	}
	if filter.Status != "" {
		query = query.Where("orders.status = ?", filter.Status)
	}
	if filter.DeliveryDateFrom != nil {
		query = query.Where("orders.delivery_date >= ?", *filter.DeliveryDateFrom)
	}
	if filter.DeliveryDateTo != nil {
		query = query.Where("orders.delivery_date <= ?", *filter.DeliveryDateTo)
	}
	return query
}

// dayRange 返回某日零点与次日零点
func dayRange(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start, start.AddDate(0, 0, 1)
}
