package router

import (
	"context"
	"strings"

	"github.com/milkdesk/internal/authz"
	"github.com/milkdesk/internal/cache"
	"github.com/milkdesk/internal/http/response"
	"github.com/milkdesk/internal/i18n"
	"github.com/milkdesk/internal/logger"
	"github.com/milkdesk/internal/repository"
	"github.com/milkdesk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	adminIDContextKey       = "admin_id"
	adminUsernameContextKey = "username"
	adminIsSuperContextKey  = "admin_is_super"
)

// JWTAuthMiddleware 校验员工 JWT，并与员工当前状态比对
// 员工被停用、token_version 变化或签发时间早于 token_invalid_before 时拒绝
func JWTAuthMiddleware(secretKey string, adminRepo repository.AdminRepository) gin.HandlerFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	keyFunc := func(*jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	}

	return func(c *gin.Context) {
		if secretKey == "" {
			abortUnauthorized(c, "error.jwt_secret_missing")
			return
		}
		if adminRepo == nil {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		tokenString, key := bearerToken(c.GetHeader("Authorization"))
		if key != "" {
			abortUnauthorized(c, key)
			return
		}

		claims := &service.JWTClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, keyFunc)
		if err != nil || !token.Valid || claims.AdminID == 0 {
			abortUnauthorized(c, "error.token_invalid")
			return
		}

		state := loadAdminAuthState(c.Request.Context(), adminRepo, claims.AdminID)
		if key := checkAdminSession(claims, state); key != "" {
			abortUnauthorized(c, key)
			return
		}

		c.Set(adminIDContextKey, claims.AdminID)
		c.Set(adminUsernameContextKey, claims.Username)
		c.Set(adminIsSuperContextKey, state.IsSuper)
		c.Request = c.Request.WithContext(logger.IntoContext(
			c.Request.Context(),
			logger.FromContext(c.Request.Context()).With("admin_id", claims.AdminID),
		))
		c.Next()
	}
}

// bearerToken 解析 Authorization 头，失败时返回对应的错误文案 key
func bearerToken(header string) (string, string) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", "error.auth_header_missing"
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || scheme != "Bearer" || token == "" {
		return "", "error.auth_header_invalid"
	}
	return token, ""
}

// loadAdminAuthState 优先读缓存，未命中时回源数据库并回填
func loadAdminAuthState(ctx context.Context, adminRepo repository.AdminRepository, adminID uint) *cache.AdminAuthState {
	if cached, hit, err := cache.GetAdminAuthState(ctx, adminID); err == nil && hit && cached != nil {
		return cached
	}
	admin, err := adminRepo.GetByID(adminID)
	if err != nil || admin == nil {
		return nil
	}
	state := cache.BuildAdminAuthState(admin)
	if err := cache.SetAdminAuthState(ctx, state); err != nil {
		logger.FromContext(ctx).Debugw("admin_auth_state_cache_set_failed", "admin_id", adminID, "error", err)
	}
	return state
}

func checkAdminSession(claims *service.JWTClaims, state *cache.AdminAuthState) string {
	switch {
	case state == nil:
		return "error.token_invalid"
	case !state.IsActive:
		return "error.admin_disabled"
	case claims.TokenVersion != state.TokenVersion:
		return "error.token_revoked"
	case !issuedAfter(claims.IssuedAt, state.TokenInvalidBefore):
		return "error.token_revoked"
	}
	return ""
}

func issuedAfter(issuedAt *jwt.NumericDate, invalidBeforeUnix int64) bool {
	if invalidBeforeUnix <= 0 {
		return true
	}
	return issuedAt != nil && issuedAt.Unix() >= invalidBeforeUnix
}

// AdminRBACMiddleware 按路由模板与方法校验员工角色，超级管理员直接放行
func AdminRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("admin_rbac_service_unavailable")
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		if c.GetBool(adminIsSuperContextKey) {
			c.Next()
			return
		}
		adminID := c.GetUint(adminIDContextKey)
		if adminID == 0 {
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}
		log := logger.FromContext(c.Request.Context()).With(
			"method", c.Request.Method,
			"resource", authz.NormalizeObject(resource),
		)

		allowed, err := authzService.EnforceAdmin(adminID, resource, c.Request.Method)
		if err != nil {
			log.Errorw("admin_rbac_enforce_failed", "error", err)
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		if !allowed {
			log.Warnw("admin_rbac_permission_denied")
			response.Forbidden(c, i18n.T(i18n.ResolveLocale(c), "error.forbidden"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, key string) {
	response.Unauthorized(c, i18n.T(i18n.ResolveLocale(c), key))
	c.Abort()
}
