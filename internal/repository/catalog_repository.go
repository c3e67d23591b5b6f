package repository

import (
	"errors"
	"strings"

	"github.com/milkdesk/internal/models"

	"gorm.io/gorm"
)

// CatalogRepository 片区与牛奶券类型数据访问接口
type CatalogRepository interface {
	ListAreas(onlyActive bool) ([]models.Area, error)
	GetAreaByID(id uint) (*models.Area, error)
	GetAreaByName(name string) (*models.Area, error)
	CreateArea(area *models.Area) error
	UpdateArea(area *models.Area) error
	ListTokenTypes(onlyActive bool) ([]models.TokenType, error)
	GetTokenTypeByID(id uint) (*models.TokenType, error)
	GetTokenTypeByName(name string) (*models.TokenType, error)
	CreateTokenType(tokenType *models.TokenType) error
	UpdateTokenType(tokenType *models.TokenType) error
}

// GormCatalogRepository GORM 实现
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository 创建基础资料仓库
func NewCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCatalogRepository) WithTx(tx *gorm.DB) *GormCatalogRepository {
	if tx == nil {
		return r
	}
	return &GormCatalogRepository{db: tx}
}

// ListAreas 获取片区列表
func (r *GormCatalogRepository) ListAreas(onlyActive bool) ([]models.Area, error) {
	query := r.db.Model(&models.Area{})
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	areas := make([]models.Area, 0)
	if err := query.Order("sort_order asc, id asc").Find(&areas).Error; err != nil {
		return nil, err
	}
	return areas, nil
}

// GetAreaByID 根据 ID 获取片区
func (r *GormCatalogRepository) GetAreaByID(id uint) (*models.Area, error) {
	if id == 0 {
		return nil, nil
	}
	var area models.Area
	if err := r.db.First(&area, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &area, nil
}

// GetAreaByName 根据名称获取片区
func (r *GormCatalogRepository) GetAreaByName(name string) (*models.Area, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var area models.Area
	if err := r.db.Where("name = ?", name).First(&area).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &area, nil
}

// CreateArea 创建片区
func (r *GormCatalogRepository) CreateArea(area *models.Area) error {
	return r.db.Create(area).Error
}

// UpdateArea 更新片区
func (r *GormCatalogRepository) UpdateArea(area *models.Area) error {
	return r.db.Save(area).Error
}

// ListTokenTypes 获取牛奶券类型列表
func (r *GormCatalogRepository) ListTokenTypes(onlyActive bool) ([]models.TokenType, error) {
	query := r.db.Model(&models.TokenType{})
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	types := make([]models.TokenType, 0)
	if err := query.Order("sort_order asc, id asc").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

// GetTokenTypeByID 根据 ID 获取牛奶券类型
func (r *GormCatalogRepository) GetTokenTypeByID(id uint) (*models.TokenType, error) {
	if id == 0 {
		return nil, nil
	}
	var tokenType models.TokenType
	if err := r.db.First(&tokenType, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tokenType, nil
}

// GetTokenTypeByName 根据名称获取牛奶券类型
func (r *GormCatalogRepository) GetTokenTypeByName(name string) (*models.TokenType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var tokenType models.TokenType
	if err := r.db.Where("name = ?", name).First(&tokenType).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tokenType, nil
}

// CreateTokenType 创建牛奶券类型
func (r *GormCatalogRepository) CreateTokenType(tokenType *models.TokenType) error {
	return r.db.Create(tokenType).Error
}

// UpdateTokenType 更新牛奶券类型
func (r *GormCatalogRepository) UpdateTokenType(tokenType *models.TokenType) error {
	return r.db.Save(tokenType).Error
}
