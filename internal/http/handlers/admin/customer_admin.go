package admin

import (
	"strings"

	handlershared "github.com/milkdesk/internal/http/handlers/shared"
	"github.com/milkdesk/internal/http/response"
	"github.com/milkdesk/internal/models"
	"github.com/milkdesk/internal/repository"
	"github.com/milkdesk/internal/service"

	"github.com/gin-gonic/gin"
)

// CustomerRequest 客户创建/更新请求
type CustomerRequest struct {
	Name    string `json:"name" binding:"required"`
	Mobile  string `json:"mobile" binding:"required"`
	AreaID  uint   `json:"area_id" binding:"required"`
	Address string `json:"address"`
	Pin     string `json:"pin"`
}

func (r CustomerRequest) toInput() service.CustomerInput {
	return service.CustomerInput{
		Name:    r.Name,
		Mobile:  r.Mobile,
		AreaID:  r.AreaID,
		Address: r.Address,
		Pin:     r.Pin,
	}
}

// CustomerStatusRequest 客户启停请求
type CustomerStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// CustomerListResponse 客户列表返回，附带全量启停统计
type CustomerListResponse struct {
	Items []models.Customer     `json:"items"`
	Stats service.CustomerStats `json:"stats"`
}

func parseCustomerFilter(c *gin.Context) repository.CustomerListFilter {
	page, pageSize := parsePagination(c)
	return repository.CustomerListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		AreaID:   handlershared.QueryUint(c, "area_id"),
		IsActive: service.ParseCustomerStatus(c.Query("status")),
	}
}

// ListCustomers 客户列表
func (h *Handler) ListCustomers(c *gin.Context) {
	filter := parseCustomerFilter(c)
	customers, total, err := h.CustomerService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.customer_fetch_failed", err)
		return
	}
	stats, err := h.CustomerService.Stats()
	if err != nil {
		respondError(c, response.CodeInternal, "error.customer_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, CustomerListResponse{Items: customers, Stats: stats}, response.NewPagination(filter.Page, filter.PageSize, total))
}

// GetCustomer 客户详情
func (h *Handler) GetCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	customer, err := h.CustomerService.Get(id)
	if err != nil {
		respondMappedError(c, err, customerErrorRules, "error.customer_fetch_failed")
		return
	}
	response.Success(c, customer)
}

// CreateCustomer 新建客户
func (h *Handler) CreateCustomer(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	customer, err := h.CustomerService.Create(c.Request.Context(), req.toInput(), adminID)
	if err != nil {
		respondMappedError(c, err, customerErrorRules, "error.customer_save_failed")
		return
	}
	response.Success(c, customer)
}

// UpdateCustomer 更新客户资料
func (h *Handler) UpdateCustomer(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	customer, err := h.CustomerService.Update(c.Request.Context(), id, req.toInput(), adminID)
	if err != nil {
		respondMappedError(c, err, customerErrorRules, "error.customer_save_failed")
		return
	}
	response.Success(c, customer)
}

// UpdateCustomerStatus 启用/停用客户（软删除）
func (h *Handler) UpdateCustomerStatus(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req CustomerStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	customer, err := h.CustomerService.SetStatus(c.Request.Context(), id, *req.IsActive, adminID)
	if err != nil {
		respondMappedError(c, err, customerErrorRules, "error.customer_save_failed")
		return
	}
	response.Success(c, customer)
}

// ExportCustomers 导出客户 PDF
func (h *Handler) ExportCustomers(c *gin.Context) {
	filter := parseCustomerFilter(c)
	label := strings.ToLower(strings.TrimSpace(c.Query("status")))
	if filter.IsActive == nil {
		label = "all"
	}
	file, err := h.ExportService.ExportCustomers(c.Request.Context(), filter, label)
	if err != nil {
		respondMappedError(c, err, exportErrorRules, "error.export_failed")
		return
	}
	response.Attachment(c, file.FileName, "application/pdf", file.Content)
}
