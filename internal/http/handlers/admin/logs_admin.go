package admin

import (
	"strings"

	handlershared "github.com/milkdesk/internal/http/handlers/shared"
	"github.com/milkdesk/internal/http/response"
	"github.com/milkdesk/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListOperationLogs 后台操作日志
func (h *Handler) ListOperationLogs(c *gin.Context) {
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
	filter := repository.OperationLogListFilter{
		Page:        page,
		PageSize:    pageSize,
		OperatorID:  handlershared.QueryUint(c, "operator_id"),
		Action:      strings.TrimSpace(c.Query("action")),
		TargetType:  strings.TrimSpace(c.Query("target_type")),
		TargetID:    handlershared.QueryUint(c, "target_id"),
		CreatedFrom: createdFrom,
		CreatedTo:   handlershared.EndOfDay(createdTo),
	}
	logs, total, err := h.OperationLogService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.log_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, logs, response.NewPagination(filter.Page, filter.PageSize, total))
}

// ListLoginLogs 员工登录日志
func (h *Handler) ListLoginLogs(c *gin.Context) {
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
	filter := repository.LoginLogListFilter{
		Page:        page,
		PageSize:    pageSize,
		AdminID:     handlershared.QueryUint(c, "admin_id"),
		Account:     strings.TrimSpace(c.Query("account")),
		Status:      strings.TrimSpace(c.Query("status")),
		CreatedFrom: createdFrom,
		CreatedTo:   handlershared.EndOfDay(createdTo),
	}
	logs, total, err := h.LoginLogService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.log_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, logs, response.NewPagination(filter.Page, filter.PageSize, total))
}
