package service

import (
	"context"
	"strings"
	"time"

	"github.com/milkdesk/internal/models"
	"github.com/milkdesk/internal/repository"

	"github.com/shopspring/decimal"
)

// CatalogService 片区与牛奶券类型服务
type CatalogService struct {
	catalogRepo repository.CatalogRepository
}

// NewCatalogService 创建基础资料服务
func NewCatalogService(catalogRepo repository.CatalogRepository) *CatalogService {
	return &CatalogService{catalogRepo: catalogRepo}
}

// AreaInput 片区输入
type AreaInput struct {
	Name      string
	IsActive  *bool
	SortOrder int
}

// TokenTypeInput 牛奶券类型输入
type TokenTypeInput struct {
	Name      string
	UnitPrice string
	IsActive  *bool
	SortOrder int
}

// ListAreas 片区列表
func (s *CatalogService) ListAreas(onlyActive bool) ([]models.Area, error) {
	return s.catalogRepo.ListAreas(onlyActive)
}

// CreateArea 创建片区
func (s *CatalogService) CreateArea(_ context.Context, input AreaInput) (*models.Area, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrAreaNameRequired
	}
	exists, err := s.catalogRepo.GetAreaByName(name)
	if err != nil {
		return nil, err
	}
	if exists != nil {
		return nil, ErrAreaNameExists
	}
	area := &models.Area{
		Name:      name,
		IsActive:  input.IsActive == nil || *input.IsActive,
		SortOrder: input.SortOrder,
	}
	if err := s.catalogRepo.CreateArea(area); err != nil {
		return nil, err
	}
	return area, nil
}

// UpdateArea 更新片区
func (s *CatalogService) UpdateArea(_ context.Context, id uint, input AreaInput) (*models.Area, error) {
	area, err := s.catalogRepo.GetAreaByID(id)
	if err != nil {
		return nil, err
	}
	if area == nil {
		return nil, ErrAreaNotFound
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrAreaNameRequired
	}
	if name != area.Name {
		exists, err := s.catalogRepo.GetAreaByName(name)
		if err != nil {
			return nil, err
		}
		if exists != nil && exists.ID != area.ID {
			return nil, ErrAreaNameExists
		}
	}
	area.Name = name
	area.SortOrder = input.SortOrder
	if input.IsActive != nil {
		area.IsActive = *input.IsActive
	}
	area.UpdatedAt = time.Now()
	if err := s.catalogRepo.UpdateArea(area); err != nil {
		return nil, err
	}
	return area, nil
}

// ListTokenTypes 牛奶券类型列表
func (s *CatalogService) ListTokenTypes(onlyActive bool) ([]models.TokenType, error) {
	return s.catalogRepo.ListTokenTypes(onlyActive)
}

// CreateTokenType 创建牛奶券类型
func (s *CatalogService) CreateTokenType(_ context.Context, input TokenTypeInput) (*models.TokenType, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTokenTypeNameInvalid
	}
	price, err := parseUnitPrice(input.UnitPrice)
	if err != nil {
		return nil, err
	}
	exists, err := s.catalogRepo.GetTokenTypeByName(name)
	if err != nil {
		return nil, err
	}
	if exists != nil {
		return nil, ErrTokenTypeNameExists
	}
	tokenType := &models.TokenType{
		Name:      name,
		UnitPrice: models.NewMoneyFromDecimal(price),
		IsActive:  input.IsActive == nil || *input.IsActive,
		SortOrder: input.SortOrder,
	}
	if err := s.catalogRepo.CreateTokenType(tokenType); err != nil {
		return nil, err
	}
	return tokenType, nil
}

// UpdateTokenType 更新牛奶券类型
func (s *CatalogService) UpdateTokenType(_ context.Context, id uint, input TokenTypeInput) (*models.TokenType, error) {
	tokenType, err := s.catalogRepo.GetTokenTypeByID(id)
	if err != nil {
		return nil, err
	}
	if tokenType == nil {
		return nil, ErrTokenTypeNotFound
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTokenTypeNameInvalid
	}
	if name != tokenType.Name {
		exists, err := s.catalogRepo.GetTokenTypeByName(name)
		if err != nil {
			return nil, err
		}
		if exists != nil && exists.ID != tokenType.ID {
			return nil, ErrTokenTypeNameExists
		}
	}
	price, err := parseUnitPrice(input.UnitPrice)
	if err != nil {
		return nil, err
	}
	tokenType.Name = name
	tokenType.UnitPrice = models.NewMoneyFromDecimal(price)
	tokenType.SortOrder = input.SortOrder
	if input.IsActive != nil {
		tokenType.IsActive = *input.IsActive
	}
	tokenType.UpdatedAt = time.Now()
	if err := s.catalogRepo.UpdateTokenType(tokenType); err != nil {
		return nil, err
	}
	return tokenType, nil
}

// RequireActiveTokenType 获取启用的牛奶券类型
func (s *CatalogService) RequireActiveTokenType(id uint) (*models.TokenType, error) {
	return requireActiveTokenType(s.catalogRepo, id)
}

func requireActiveTokenType(repo repository.CatalogRepository, id uint) (*models.TokenType, error) {
	tokenType, err := repo.GetTokenTypeByID(id)
	if err != nil {
		return nil, err
	}
	if tokenType == nil {
		return nil, ErrTokenTypeNotFound
	}
	if !tokenType.IsActive {
		return nil, ErrTokenTypeInactive
	}
	return tokenType, nil
}

func parseUnitPrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, ErrTokenTypePriceInvalid
	}
	price, err := decimal.NewFromString(raw)
	if err != nil || price.IsNegative() {
		return decimal.Zero, ErrTokenTypePriceInvalid
	}
	return price.Round(2), nil
}
