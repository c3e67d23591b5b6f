package admin

import (
	"strings"

	"github.com/milkdesk/internal/http/response"
	"github.com/milkdesk/internal/service"

	"github.com/gin-gonic/gin"
)

// AreaRequest 片区请求
type AreaRequest struct {
	Name      string `json:"name" binding:"required"`
	IsActive  *bool  `json:"is_active"`
	SortOrder int    `json:"sort_order"`
}

// TokenTypeRequest 牛奶券类型请求
type TokenTypeRequest struct {
	Name      string `json:"name" binding:"required"`
	UnitPrice string `json:"unit_price" binding:"required"`
	IsActive  *bool  `json:"is_active"`
	SortOrder int    `json:"sort_order"`
}

func onlyActiveQuery(c *gin.Context) bool {
	value := strings.ToLower(strings.TrimSpace(c.Query("only_active")))
	return value == "1" || value == "true"
}

// ListAreas 片区列表
func (h *Handler) ListAreas(c *gin.Context) {
	areas, err := h.CatalogService.ListAreas(onlyActiveQuery(c))
	if err != nil {
		respondError(c, response.CodeInternal, "error.catalog_fetch_failed", err)
		return
	}
	response.Success(c, areas)
}

// CreateArea 新建片区
func (h *Handler) CreateArea(c *gin.Context) {
	var req AreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	area, err := h.CatalogService.CreateArea(c.Request.Context(), service.AreaInput{
		Name:      req.Name,
		IsActive:  req.IsActive,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		respondMappedError(c, err, catalogErrorRules, "error.area_save_failed")
		return
	}
	response.Success(c, area)
}

// UpdateArea 更新片区
func (h *Handler) UpdateArea(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	area, err := h.CatalogService.UpdateArea(c.Request.Context(), id, service.AreaInput{
		Name:      req.Name,
		IsActive:  req.IsActive,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		respondMappedError(c, err, catalogErrorRules, "error.area_save_failed")
		return
	}
	response.Success(c, area)
}

// ListTokenTypes 牛奶券类型列表
func (h *Handler) ListTokenTypes(c *gin.Context) {
	tokenTypes, err := h.CatalogService.ListTokenTypes(onlyActiveQuery(c))
	if err != nil {
		respondError(c, response.CodeInternal, "error.catalog_fetch_failed", err)
		return
	}
	response.Success(c, tokenTypes)
}

// CreateTokenType 新建牛奶券类型
func (h *Handler) CreateTokenType(c *gin.Context) {
	var req TokenTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	tokenType, err := h.CatalogService.CreateTokenType(c.Request.Context(), service.TokenTypeInput{
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		IsActive:  req.IsActive,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		respondMappedError(c, err, catalogErrorRules, "error.token_type_save_failed")
		return
	}
	response.Success(c, tokenType)
}

// UpdateTokenType 更新牛奶券类型
func (h *Handler) UpdateTokenType(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req TokenTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	tokenType, err := h.CatalogService.UpdateTokenType(c.Request.Context(), id, service.TokenTypeInput{
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		IsActive:  req.IsActive,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		respondMappedError(c, err, catalogErrorRules, "error.token_type_save_failed")
		return
	}
	response.Success(c, tokenType)
}
