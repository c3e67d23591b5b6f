package admin

import (
	"errors"
	"strings"

	handlershared "github.com/milkdesk/internal/http/handlers/shared"
	"github.com/milkdesk/internal/http/response"
	"github.com/milkdesk/internal/repository"
	"github.com/milkdesk/internal/service"

	"github.com/gin-gonic/gin"
)

// AdjustBalanceRequest 余额人工调整请求，delta 为正入账、为负扣减
type AdjustBalanceRequest struct {
	CustomerID  uint   `json:"customer_id" binding:"required"`
	TokenTypeID uint   `json:"token_type_id" binding:"required"`
	Delta       int    `json:"delta"`
	Remark      string `json:"remark"`
}

// AuditBalanceRequest 对账请求
type AuditBalanceRequest struct {
	Repair bool `json:"repair"`
}

// ListTokenBalances 余额列表；group=customer 时按客户分组返回
func (h *Handler) ListTokenBalances(c *gin.Context) {
	page, pageSize := parsePagination(c)
	onlyPositive := strings.TrimSpace(c.Query("only_positive"))
	filter := repository.TokenBalanceListFilter{
		Page:         page,
		PageSize:     pageSize,
		CustomerID:   handlershared.QueryUint(c, "customer_id"),
		CustomerName: strings.TrimSpace(c.Query("customer_name")),
		TokenTypeID:  handlershared.QueryUint(c, "token_type_id"),
		OnlyPositive: onlyPositive == "1" || strings.EqualFold(onlyPositive, "true"),
	}
	rows, total, err := h.TokenLedgerService.ListBalances(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.token_balance_fetch_failed", err)
		return
	}
	pagination := response.NewPagination(filter.Page, filter.PageSize, total)
	if strings.EqualFold(strings.TrimSpace(c.Query("group")), "customer") {
		response.SuccessWithPage(c, service.GroupBalancesByCustomer(rows), pagination)
		return
	}
	response.SuccessWithPage(c, rows, pagination)
}

// GetCustomerBalance 单个客户的各类型余额汇总
func (h *Handler) GetCustomerBalance(c *gin.Context) {
	customerID, ok := parseIDParam(c, "customer_id")
	if !ok {
		return
	}
	summary, err := h.TokenLedgerService.BalanceSummary(c.Request.Context(), customerID)
	if err != nil {
		respondMappedError(c, err, tokenErrorRules, "error.token_balance_fetch_failed")
		return
	}
	response.Success(c, summary)
}

// AdjustTokenBalance 人工调整余额，写入 admin_adjust 流水
func (h *Handler) AdjustTokenBalance(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.TokenLedgerService.AdminAdjust(c.Request.Context(), service.AdminAdjustInput{
		CustomerID:  req.CustomerID,
		TokenTypeID: req.TokenTypeID,
		Delta:       req.Delta,
		Remark:      req.Remark,
		OperatorID:  adminID,
	})
	if err != nil {
		respondMappedError(c, err, tokenErrorRules, "error.token_adjust_failed")
		return
	}
	response.Success(c, gin.H{
		"balance":     result.Balance,
		"transaction": result.Transaction,
	})
}

// ListTokenTransactions 余额流水（入账/扣减合并视图）
func (h *Handler) ListTokenTransactions(c *gin.Context) {
	page, pageSize := parsePagination(c)
	createdFrom, err := handlershared.ParseDateNullable(c.Query("created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.date_invalid", nil)
		return
	}
	createdTo, err := handlershared.ParseDateNullable(c.Query("created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.date_invalid", nil)
		return
	}
	filter := repository.TokenTransactionListFilter{
		Page:        page,
		PageSize:    pageSize,
		CustomerID:  handlershared.QueryUint(c, "customer_id"),
		TokenTypeID: handlershared.QueryUint(c, "token_type_id"),
		Direction:   strings.ToLower(strings.TrimSpace(c.Query("direction"))),
		Reason:      strings.ToLower(strings.TrimSpace(c.Query("reason"))),
		CreatedFrom: createdFrom,
		CreatedTo:   handlershared.EndOfDay(createdTo),
	}
	txns, total, err := h.TokenLedgerService.ListTransactions(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.token_balance_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, txns, response.NewPagination(filter.Page, filter.PageSize, total))
}

// AuditTokenBalances 触发余额对账；队列可用时异步执行，否则同步返回报告
func (h *Handler) AuditTokenBalances(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req AuditBalanceRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
	}

	err := h.TaskDispatcher.EnqueueLedgerAudit(c.Request.Context(), req.Repair, adminID)
	if err == nil {
		response.Success(c, gin.H{"queued": true, "repair": req.Repair})
		return
	}
	if !errors.Is(err, service.ErrQueueUnavailable) {
		respondError(c, response.CodeUnavailable, "error.queue_unavailable", err)
		return
	}

	var report *service.LedgerAuditReport
	if req.Repair {
		report, err = h.TokenLedgerService.Repair(c.Request.Context(), adminID)
	} else {
		report, err = h.TokenLedgerService.Audit(c.Request.Context())
	}
	if err != nil {
		respondError(c, response.CodeInternal, "error.token_audit_failed", err)
		return
	}
	response.Success(c, gin.H{"queued": false, "repair": req.Repair, "report": report})
}
