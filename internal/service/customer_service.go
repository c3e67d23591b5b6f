package service

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/milkdesk/internal/constants"
	"github.com/milkdesk/internal/logger"
	"github.com/milkdesk/internal/models"
	"github.com/milkdesk/internal/repository"
)

var (
	mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
	pinPattern    = regexp.MustCompile(`^\d{6}$`)
)

const (
	customerNameMinLength    = 2
	customerAddressMinLength = 10
)

// CustomerService 客户服务
type CustomerService struct {
	customerRepo repository.CustomerRepository
	catalogRepo  repository.CatalogRepository
	opLog        *OperationLogService
	notifier     RefreshNotifier
}

// CustomerInput 客户创建/编辑输入
type CustomerInput struct {
	Name    string
	Mobile  string
	AreaID  uint
	Address string
	Pin     string
}

// CustomerStats 客户状态统计
type CustomerStats struct {
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
}

// NewCustomerService 创建客户服务
func NewCustomerService(
	customerRepo repository.CustomerRepository,
	catalogRepo repository.CatalogRepository,
	opLog *OperationLogService,
	notifier RefreshNotifier,
) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		catalogRepo:  catalogRepo,
		opLog:        opLog,
		notifier:     notifier,
	}
}

// NormalizeMobile 校验并规范 10 位手机号
func NormalizeMobile(raw string) (string, error) {
	mobile := strings.TrimSpace(raw)
	if !mobilePattern.MatchString(mobile) {
		return "", ErrMobileInvalid
	}
	return mobile, nil
}

// Create 创建客户
func (s *CustomerService) Create(ctx context.Context, input CustomerInput, operatorID uint) (*models.Customer, error) {
	normalized, err := s.validateInput(input, 0)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	customer := &models.Customer{
		Name:      normalized.Name,
		Mobile:    normalized.Mobile,
		AreaID:    normalized.AreaID,
		Address:   normalized.Address,
		Pin:       normalized.Pin,
		IsActive:  true,
		CreatedBy: operatorID,
		UpdatedBy: operatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.customerRepo.Create(customer); err != nil {
		return nil, err
	}
	s.opLog.Record(ctx, OperationLogEntry{
		OperatorID: operatorID,
		Action:     constants.ActionCustomerCreate,
		TargetType: "customer",
		TargetID:   customer.ID,
		Detail:     map[string]interface{}{"name": customer.Name, "mobile": customer.Mobile},
	})
	s.publish()
	return s.customerRepo.GetByID(customer.ID)
}

// Update 编辑客户
func (s *CustomerService) Update(ctx context.Context, id uint, input CustomerInput, operatorID uint) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	normalized, err := s.validateInput(input, customer.ID)
	if err != nil {
		return nil, err
	}
	customer.Name = normalized.Name
	customer.Mobile = normalized.Mobile
	customer.AreaID = normalized.AreaID
	customer.Address = normalized.Address
	customer.Pin = normalized.Pin
	customer.UpdatedBy = operatorID
	customer.UpdatedAt = time.Now()
	if err := s.customerRepo.Update(customer); err != nil {
		return nil, err
	}
	s.opLog.Record(ctx, OperationLogEntry{
		OperatorID: operatorID,
		Action:     constants.ActionCustomerUpdate,
		TargetType: "customer",
		TargetID:   customer.ID,
	})
	s.publish()
	return s.customerRepo.GetByID(customer.ID)
}

// SetStatus 启用或停用客户（软删除）
func (s *CustomerService) SetStatus(ctx context.Context, id uint, isActive bool, operatorID uint) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	if customer.IsActive == isActive {
		return customer, nil
	}
	if err := s.customerRepo.UpdateStatus(id, isActive, operatorID); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Infow("customer_status_changed",
		"customer_id", id,
		"is_active", isActive,
		"operator_id", operatorID,
	)
	s.opLog.Record(ctx, OperationLogEntry{
		OperatorID: operatorID,
		Action:     constants.ActionCustomerStatus,
		TargetType: "customer",
		TargetID:   id,
		Detail:     map[string]interface{}{"is_active": isActive},
	})
	s.publish()
	return s.customerRepo.GetByID(id)
}

// Get 获取客户
func (s *CustomerService) Get(id uint) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	return customer, nil
}

// List 分页查询客户
func (s *CustomerService) List(filter repository.CustomerListFilter) ([]models.Customer, int64, error) {
	return s.customerRepo.List(filter)
}

// Stats 启用/停用客户数
func (s *CustomerService) Stats() (CustomerStats, error) {
	active, inactive, err := s.customerRepo.CountByActive()
	if err != nil {
		return CustomerStats{}, err
	}
	return CustomerStats{Active: active, Inactive: inactive}, nil
}

// ParseCustomerStatus 将 active/inactive 转为过滤条件
func ParseCustomerStatus(raw string) *bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case constants.CustomerStatusActive:
		v := true
		return &v
	case constants.CustomerStatusInactive:
		v := false
		return &v
	default:
		return nil
	}
}

func (s *CustomerService) validateInput(input CustomerInput, selfID uint) (CustomerInput, error) {
	name := strings.TrimSpace(input.Name)
	if utf8.RuneCountInString(name) < customerNameMinLength {
		return input, ErrCustomerNameRequired
	}
	mobile, err := NormalizeMobile(input.Mobile)
	if err != nil {
		return input, err
	}
	address := strings.TrimSpace(input.Address)
	if utf8.RuneCountInString(address) < customerAddressMinLength {
		return input, ErrCustomerAddressShort
	}
	pin := strings.TrimSpace(input.Pin)
	if pin != "" && !pinPattern.MatchString(pin) {
		return input, ErrCustomerPinInvalid
	}
	area, err := s.catalogRepo.GetAreaByID(input.AreaID)
	if err != nil {
		return input, err
	}
	if area == nil {
		return input, ErrAreaNotFound
	}
	if !area.IsActive {
		return input, ErrAreaInactive
	}
	exists, err := s.customerRepo.GetByMobile(mobile)
	if err != nil {
		return input, err
	}
	if exists != nil && exists.ID != selfID {
		return input, ErrCustomerMobileExists
	}
	return CustomerInput{
		Name:    name,
		Mobile:  mobile,
		AreaID:  area.ID,
		Address: address,
		Pin:     pin,
	}, nil
}

func (s *CustomerService) publish() {
	if s.notifier != nil {
		s.notifier.Publish(constants.RefreshTopicCustomers)
	}
}

func requireActiveCustomer(repo repository.CustomerRepository, id uint) (*models.Customer, error) {
	customer, err := repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	if !customer.IsActive {
		return nil, ErrCustomerInactive
	}
	return customer, nil
}
