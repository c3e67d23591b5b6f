package admin

import (
	"errors"
	"strings"

	handlershared "github.com/milkdesk/internal/http/handlers/shared"
	"github.com/milkdesk/internal/http/response"
	"github.com/milkdesk/internal/models"
	"github.com/milkdesk/internal/repository"
	"github.com/milkdesk/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderStatusRequest 单个订单状态更新请求
type OrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// BulkOrderStatusRequest 批量状态更新请求
type BulkOrderStatusRequest struct {
	OrderIDs []uint `json:"order_ids"`
	Status   string `json:"status"`
}

// ManualOrderRequest 手工下单请求
type ManualOrderRequest struct {
	CustomerID   uint   `json:"customer_id" binding:"required"`
	TokenTypeID  uint   `json:"token_type_id" binding:"required"`
	Quantity     int    `json:"quantity"`
	DeliveryDate string `json:"delivery_date"`
}

// OrderListResponse 订单列表返回，附带当前筛选条件下的状态统计
type OrderListResponse struct {
	Items   []models.Order             `json:"items"`
	Summary service.OrderStatusSummary `json:"summary"`
}

func parseOrderFilter(c *gin.Context) (repository.OrderListFilter, error) {
	page, pageSize := parsePagination(c)
	from, err := handlershared.ParseDateNullable(c.Query("delivery_from"))
	if err != nil {
		return repository.OrderListFilter{}, err
	}
	to, err := handlershared.ParseDateNullable(c.Query("delivery_to"))
	if err != nil {
		return repository.OrderListFilter{}, err
	}
	return repository.OrderListFilter{
		Page:             page,
		PageSize:         pageSize,
		CustomerID:       handlershared.QueryUint(c, "customer_id"),
		CustomerName:     strings.TrimSpace(c.Query("customer_name")),
		AreaID:           handlershared.QueryUint(c, "area_id"),
		TokenTypeID:      handlershared.QueryUint(c, "token_type_id"),
		Status:           service.NormalizeOrderStatus(c.Query("status")),
		DeliveryDateFrom: from,
		DeliveryDateTo:   handlershared.EndOfDay(to),
	}, nil
}

func (r ManualOrderRequest) toInput(operatorID uint) (service.ManualOrderInput, error) {
	deliveryDate, err := handlershared.ParseDateNullable(r.DeliveryDate)
	if err != nil {
		return service.ManualOrderInput{}, err
	}
	return service.ManualOrderInput{
		CustomerID:   r.CustomerID,
		TokenTypeID:  r.TokenTypeID,
		Quantity:     r.Quantity,
		DeliveryDate: deliveryDate,
		OperatorID:   operatorID,
	}, nil
}

// ListOrders 订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	filter, err := parseOrderFilter(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.date_invalid", nil)
		return
	}
	orders, total, err := h.OrderService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	summary, err := h.OrderService.Summary(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, OrderListResponse{Items: orders, Summary: summary}, response.NewPagination(filter.Page, filter.PageSize, total))
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.Get(id)
	if err != nil {
		respondMappedError(c, err, orderErrorRules, "error.order_fetch_failed")
		return
	}
	response.Success(c, order)
}

// UpdateOrderStatus 更新单个订单状态；取消时退回对应张数
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	order, err := h.OrderService.UpdateStatus(c.Request.Context(), id, req.Status, adminID)
	if err != nil {
		respondMappedError(c, err, orderErrorRules, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}

// BatchUpdateOrderStatus 批量更新订单状态，不退回余额
func (h *Handler) BatchUpdateOrderStatus(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req BulkOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.OrderService.BulkUpdateStatus(c.Request.Context(), service.BulkStatusInput{
		OrderIDs:   req.OrderIDs,
		Status:     req.Status,
		OperatorID: adminID,
	})
	if err != nil {
		if errors.Is(err, service.ErrOrderBulkEmpty) {
			// 未选择订单或状态：不做修改，仅提示
			handlershared.RespondErrorWithData(c, response.CodeBadRequest, "error.order_bulk_empty", gin.H{"updated": []uint{}})
			return
		}
		respondMappedError(c, err, orderErrorRules, "error.order_update_failed")
		return
	}
	response.Success(c, result)
}

// ValidateManualOrder 手工下单预校验
func (h *Handler) ValidateManualOrder(c *gin.Context) {
	var req ManualOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := req.toInput(0)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.date_invalid", nil)
		return
	}
	check, err := h.OrderService.ValidateManualOrder(input)
	if err != nil {
		respondMappedError(c, err, orderErrorRules, "error.order_fetch_failed")
		return
	}
	response.Success(c, check)
}

// CreateManualOrder 手工下单并扣减余额
func (h *Handler) CreateManualOrder(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req ManualOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := req.toInput(adminID)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.date_invalid", nil)
		return
	}
	order, err := h.OrderService.CreateManualOrder(c.Request.Context(), input)
	if err != nil {
		respondMappedError(c, err, orderErrorRules, "error.order_create_failed")
		return
	}
	response.Success(c, order)
}

// ExportOrders 导出订单 PDF
func (h *Handler) ExportOrders(c *gin.Context) {
	filter, err := parseOrderFilter(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.date_invalid", nil)
		return
	}
	label := filter.Status
	if label == "" {
		label = "all"
	}
	file, err := h.ExportService.ExportOrders(c.Request.Context(), filter, label)
	if err != nil {
		respondMappedError(c, err, exportErrorRules, "error.export_failed")
		return
	}
	response.Attachment(c, file.FileName, "application/pdf", file.Content)
}
