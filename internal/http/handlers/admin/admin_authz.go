package admin

import (
	"errors"

	"github.com/milkdesk/internal/authz"
	"github.com/milkdesk/internal/constants"
	"github.com/milkdesk/internal/http/response"
	"github.com/milkdesk/internal/logger"
	"github.com/milkdesk/internal/service"

	"github.com/gin-gonic/gin"
)

type authzSetAdminRolesPayload struct {
	Roles []string `json:"roles"`
}

// ListAuthzRoles 内置角色列表
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "error.authz_failed", err)
		return
	}
	response.Success(c, roles)
}

// GetAuthzAdminRoles 获取员工角色
func (h *Handler) GetAuthzAdminRoles(c *gin.Context) {
	adminID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.authz_failed", err)
		return
	}
	response.Success(c, gin.H{"admin_id": adminID, "roles": roles})
}

// SetAuthzAdminRoles 设置员工角色
func (h *Handler) SetAuthzAdminRoles(c *gin.Context) {
	operatorID, ok := getAdminID(c)
	if !ok {
		return
	}
	adminID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	admin, err := h.AuthService.GetAdmin(adminID)
	if err != nil {
		if errors.Is(err, service.ErrAdminNotFound) {
			respondError(c, response.CodeNotFound, "error.admin_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.authz_failed", err)
		return
	}

	var req authzSetAdminRolesPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.AuthzService.SetAdminRoles(adminID, req.Roles); err != nil {
		respondMappedError(c, err, []errorRule{
			{Target: authz.ErrRoleUnknown, Code: response.CodeBadRequest, Key: "error.authz_role_unknown"},
			{Target: authz.ErrAdminMissing, Code: response.CodeBadRequest, Key: "error.admin_id_invalid"},
		}, "error.authz_failed")
		return
	}

	h.OperationLogService.Record(c.Request.Context(), service.OperationLogEntry{
		OperatorID: operatorID,
		Action:     constants.ActionAdminRolesAssigned,
		TargetType: "admin",
		TargetID:   adminID,
		Detail: map[string]interface{}{
			"target_username": admin.Username,
			"roles":           req.Roles,
		},
	})

	logger.Infow("admin_authz_admin_roles_updated",
		"operator_admin_id", operatorID,
		"target_admin_id", adminID,
		"roles", req.Roles,
	)

	response.Success(c, nil)
}
