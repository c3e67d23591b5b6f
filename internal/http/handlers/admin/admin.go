package admin

import (
	"errors"

	"github.com/milkdesk/internal/http/response"
	"github.com/milkdesk/internal/i18n"
	"github.com/milkdesk/internal/models"
	"github.com/milkdesk/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminProfile 当前登录员工信息
type AdminProfile struct {
	*models.Admin
	Roles []string `json:"roles"`
}

// GetMe 获取当前登录员工
func (h *Handler) GetMe(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	admin, err := h.AuthService.GetAdmin(adminID)
	if err != nil {
		if errors.Is(err, service.ErrAdminNotFound) {
			respondError(c, response.CodeNotFound, "error.admin_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	roles := []string{}
	if h.AuthzService != nil && !admin.IsSuper {
		if assigned, err := h.AuthzService.GetAdminRoles(adminID); err == nil {
			roles = assigned
		} else {
			requestLog(c).Warnw("admin_me_roles_fetch_failed", "admin_id", adminID, "error", err)
		}
	}
	response.Success(c, AdminProfile{Admin: admin, Roles: roles})
}

// Logout 退出登录，使当前员工已签发的 Token 全部失效
func (h *Handler) Logout(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	if err := h.AuthService.Logout(c.Request.Context(), adminID); err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, nil)
}

// UpdatePasswordRequest 修改密码请求
type UpdatePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword 修改当前员工密码
func (h *Handler) ChangePassword(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.AuthService.ChangePassword(c.Request.Context(), adminID, req.OldPassword, req.NewPassword); err != nil {
		var policyErr service.PasswordPolicyError
		if errors.As(err, &policyErr) {
			response.Error(c, response.CodeBadRequest, i18n.Sprintf(i18n.ResolveLocale(c), policyErr.Key(), policyErr.Args()...))
			return
		}
		respondMappedError(c, err, []errorRule{
			{Target: service.ErrInvalidPassword, Code: response.CodeBadRequest, Key: "error.password_invalid"},
			{Target: service.ErrAdminNotFound, Code: response.CodeNotFound, Key: "error.admin_not_found"},
		}, "error.internal")
		return
	}
	response.Success(c, nil)
}
