package router

import (
	"sort"
	"strings"

	"github.com/milkdesk/internal/authz"
	"github.com/milkdesk/internal/cache"
	"github.com/milkdesk/internal/config"
	adminhandlers "github.com/milkdesk/internal/http/handlers/admin"
	publichandlers "github.com/milkdesk/internal/http/handlers/public"
	"github.com/milkdesk/internal/http/response"
	"github.com/milkdesk/internal/logger"
	"github.com/milkdesk/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按公开/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "milkdesk"
	}
	redisClient := cache.Client()
	authLimits := newAuthRateLimits(redisPrefix, cfg.Security)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))
	if cfg.Metrics.Enabled {
		r.Use(MetricsMiddleware())
		metricsPath := strings.TrimSpace(cfg.Metrics.Path)
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		r.GET(metricsPath, gin.WrapH(promhttp.Handler()))
	}

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/captcha/image", publicHandler.GetImageCaptcha)

			auth := public.Group("/auth")
			auth.POST("/login", RateLimitMiddleware(redisClient, authLimits.staffLogin, KeyByUsername), publicHandler.Login)
			auth.POST("/send-otp", RateLimitMiddleware(redisClient, authLimits.otpSend, KeyByMobile), publicHandler.SendOtp)
			auth.POST("/resend-otp", RateLimitMiddleware(redisClient, authLimits.otpSend, KeyByOtpSession), publicHandler.ResendOtp)
			auth.POST("/verify-otp", RateLimitMiddleware(redisClient, authLimits.otpVerify, KeyByOtpSession), publicHandler.VerifyOtp)
			auth.GET("/otp-status", publicHandler.GetOtpStatus)
			auth.POST("/cancel-otp", publicHandler.CancelOtp)
		}

		admin := apiV1.Group("/admin")
		admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
		{
			// 会话接口：登录即可访问，不走 RBAC
			session := admin.Group("/auth")
			session.GET("/me", adminHandler.GetMe)
			session.POST("/logout", adminHandler.Logout)
			session.PUT("/password", adminHandler.ChangePassword)

			authorized := admin.Group("")
			authorized.Use(AdminRBACMiddleware(c.AuthzService))

			// 客户
			authorized.GET("/customers", adminHandler.ListCustomers)
			authorized.POST("/customers", adminHandler.CreateCustomer)
			authorized.GET("/customers/export", adminHandler.ExportCustomers)
			authorized.GET("/customers/:id", adminHandler.GetCustomer)
			authorized.PUT("/customers/:id", adminHandler.UpdateCustomer)
			authorized.PATCH("/customers/:id/status", adminHandler.UpdateCustomerStatus)

			// 片区与牛奶券类型
			authorized.GET("/areas", adminHandler.ListAreas)
			authorized.POST("/areas", adminHandler.CreateArea)
			authorized.PUT("/areas/:id", adminHandler.UpdateArea)
			authorized.GET("/token-types", adminHandler.ListTokenTypes)
			authorized.POST("/token-types", adminHandler.CreateTokenType)
			authorized.PUT("/token-types/:id", adminHandler.UpdateTokenType)

			// 发放记录
			authorized.GET("/token-issues", adminHandler.ListTokenIssues)
			authorized.POST("/token-issues", adminHandler.IssueTokens)
			authorized.GET("/token-issues/export", adminHandler.ExportTokenIssues)
			authorized.DELETE("/token-issues/:id", adminHandler.DeleteTokenIssue)
			authorized.POST("/token-issues/:id/cash-payment", adminHandler.RecordCashPayment)

			// 余额与流水
			authorized.GET("/token-balances", adminHandler.ListTokenBalances)
			authorized.POST("/token-balances/adjust", adminHandler.AdjustTokenBalance)
			authorized.POST("/token-balances/audit", adminHandler.AuditTokenBalances)
			authorized.GET("/token-balances/:customer_id", adminHandler.GetCustomerBalance)
			authorized.GET("/token-transactions", adminHandler.ListTokenTransactions)

			// 订单
			authorized.GET("/orders", adminHandler.ListOrders)
			authorized.GET("/orders/export", adminHandler.ExportOrders)
			authorized.POST("/orders/manual", adminHandler.CreateManualOrder)
			authorized.POST("/orders/manual/validate", adminHandler.ValidateManualOrder)
			authorized.PATCH("/orders/batch-status", adminHandler.BatchUpdateOrderStatus)
			authorized.GET("/orders/:id", adminHandler.GetOrder)
			authorized.PATCH("/orders/:id/status", adminHandler.UpdateOrderStatus)

			// 仪表盘与实时刷新
			authorized.GET("/dashboard/overview", adminHandler.GetDashboardOverview)
			authorized.GET("/dashboard/trends", adminHandler.GetDashboardTrends)
			authorized.GET("/events", adminHandler.StreamEvents)

			// 日志
			authorized.GET("/operation-logs", adminHandler.ListOperationLogs)
			authorized.GET("/login-logs", adminHandler.ListLoginLogs)

			// 权限管理
			authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
			authorized.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
			authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
			authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminPermissionCatalog(r))
			})
		}
	}

	// 健康检查
	r.GET("/health", publicHandler.HealthCheck)
	apiV1.GET("/health", publicHandler.HealthCheck)

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if strings.HasPrefix(item.Path, "/api/v1/admin/auth/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	switch segments[1] {
	case "token-issues", "token-balances", "token-transactions", "token-types":
		return "tokens"
	case "operation-logs", "login-logs":
		return "logs"
	}
	return segments[1]
}
