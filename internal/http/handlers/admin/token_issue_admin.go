package admin

import (
	"strings"

	handlershared "github.com/milkdesk/internal/http/handlers/shared"
	"github.com/milkdesk/internal/http/response"
	"github.com/milkdesk/internal/repository"
	"github.com/milkdesk/internal/service"

	"github.com/gin-gonic/gin"
)

// IssueTokensRequest 发放牛奶券请求
type IssueTokensRequest struct {
	CustomerID  uint   `json:"customer_id" binding:"required"`
	TokenTypeID uint   `json:"token_type_id" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required"`
	IssueDate   string `json:"issue_date"`
	Paid        bool   `json:"paid"`
	PaymentMode string `json:"payment_mode"`
}

// CashPaymentRequest 收款请求
type CashPaymentRequest struct {
	PaymentMode string `json:"payment_mode"`
	PaymentDate string `json:"payment_date"`
}

func parseTokenIssueFilter(c *gin.Context) (repository.TokenIssueListFilter, error) {
	page, pageSize := parsePagination(c)
	issueFrom, err := handlershared.ParseDateNullable(c.Query("issue_from"))
	if err != nil {
		return repository.TokenIssueListFilter{}, err
	}
	issueTo, err := handlershared.ParseDateNullable(c.Query("issue_to"))
	if err != nil {
		return repository.TokenIssueListFilter{}, err
	}
	return repository.TokenIssueListFilter{
		Page:          page,
		PageSize:      pageSize,
		CustomerID:    handlershared.QueryUint(c, "customer_id"),
		CustomerName:  strings.TrimSpace(c.Query("customer_name")),
		TokenTypeID:   handlershared.QueryUint(c, "token_type_id"),
		PaymentStatus: strings.ToLower(strings.TrimSpace(c.Query("payment_status"))),
		PaymentMode:   strings.ToLower(strings.TrimSpace(c.Query("payment_mode"))),
		IssueFrom:     issueFrom,
		IssueTo:       handlershared.EndOfDay(issueTo),
	}, nil
}

// ListTokenIssues 发放历史列表
func (h *Handler) ListTokenIssues(c *gin.Context) {
	filter, err := parseTokenIssueFilter(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.date_invalid", nil)
		return
	}
	issues, total, err := h.TokenIssueService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.token_issue_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, issues, response.NewPagination(filter.Page, filter.PageSize, total))
}

// IssueTokens 发放牛奶券
func (h *Handler) IssueTokens(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req IssueTokensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	issueDate, err := handlershared.ParseDateNullable(req.IssueDate)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.date_invalid", nil)
		return
	}
	issue, err := h.TokenIssueService.Issue(c.Request.Context(), service.IssueTokensInput{
		CustomerID:  req.CustomerID,
		TokenTypeID: req.TokenTypeID,
		Quantity:    req.Quantity,
		IssueDate:   issueDate,
		Paid:        req.Paid,
		PaymentMode: req.PaymentMode,
		OperatorID:  adminID,
	})
	if err != nil {
		respondMappedError(c, err, tokenErrorRules, "error.token_issue_save_failed")
		return
	}
	response.Success(c, issue)
}

// RecordCashPayment 登记现金收款，待收款的发放记录在此时入账
func (h *Handler) RecordCashPayment(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req CashPaymentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
	}
	paymentDate, err := handlershared.ParseDateNullable(req.PaymentDate)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.date_invalid", nil)
		return
	}
	issue, err := h.TokenIssueService.RecordCashPayment(c.Request.Context(), id, service.CashPaymentInput{
		PaymentMode: req.PaymentMode,
		PaymentDate: paymentDate,
		OperatorID:  adminID,
	})
	if err != nil {
		respondMappedError(c, err, tokenErrorRules, "error.token_issue_save_failed")
		return
	}
	response.Success(c, issue)
}

// DeleteTokenIssue 删除发放记录并扣回对应张数；余额已被消费时整体回滚
func (h *Handler) DeleteTokenIssue(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.TokenIssueService.Delete(c.Request.Context(), id, adminID); err != nil {
		respondMappedError(c, err, tokenErrorRules, "error.token_issue_delete_failed")
		return
	}
	response.Success(c, gin.H{"id": id})
}

// ExportTokenIssues 导出发放历史 PDF
func (h *Handler) ExportTokenIssues(c *gin.Context) {
	filter, err := parseTokenIssueFilter(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.date_invalid", nil)
		return
	}
	label := filter.PaymentStatus
	if label == "" {
		label = "all"
	}
	file, err := h.ExportService.ExportTokenIssues(c.Request.Context(), filter, label)
	if err != nil {
		respondMappedError(c, err, exportErrorRules, "error.export_failed")
		return
	}
	response.Attachment(c, file.FileName, "application/pdf", file.Content)
}
