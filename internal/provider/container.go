package provider

import (
	"github.com/milkdesk/internal/authz"
	"github.com/milkdesk/internal/cache"
	"github.com/milkdesk/internal/config"
	"github.com/milkdesk/internal/logger"
	"github.com/milkdesk/internal/models"
	"github.com/milkdesk/internal/queue"
	"github.com/milkdesk/internal/refresh"
	"github.com/milkdesk/internal/repository"
	"github.com/milkdesk/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	RefreshHub  *refresh.Hub

	// Repositories
	AdminRepo       repository.AdminRepository
	LoginOtpRepo    repository.LoginOtpRepository
	CustomerRepo    repository.CustomerRepository
	CatalogRepo     repository.CatalogRepository
	OrderRepo       repository.OrderRepository
	TokenIssueRepo  repository.TokenIssueRepository
	TokenLedgerRepo repository.TokenLedgerRepository
	LogRepo         repository.LogRepository
	DashboardRepo   repository.DashboardRepository

	// Services
	AuthzService        *authz.Service
	TaskDispatcher      *service.TaskDispatcher
	OperationLogService *service.OperationLogService
	LoginLogService     *service.LoginLogService
	AuthService         *service.AuthService
	CaptchaService      *service.CaptchaService
	SMSService          *service.SMSService
	OtpLoginService     *service.OtpLoginService
	CatalogService      *service.CatalogService
	CustomerService     *service.CustomerService
	TokenLedgerService  *service.TokenLedgerService
	TokenIssueService   *service.TokenIssueService
	OrderService        *service.OrderService
	DashboardService    *service.DashboardService
	ExportService       *service.ExportService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端；未启用时返回禁用态客户端，投递方回退为同步处理
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		RefreshHub:  refresh.NewHub(cfg.Refresh.BufferSize),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.LoginOtpRepo = repository.NewLoginOtpRepository(db)
	c.CustomerRepo = repository.NewCustomerRepository(db)
	c.CatalogRepo = repository.NewCatalogRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.TokenIssueRepo = repository.NewTokenIssueRepository(db)
	c.TokenLedgerRepo = repository.NewTokenLedgerRepository(db)
	c.LogRepo = repository.NewLogRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.TaskDispatcher = service.NewTaskDispatcher(c.QueueClient)
	c.OperationLogService = service.NewOperationLogService(c.LogRepo)
	c.LoginLogService = service.NewLoginLogService(c.LogRepo)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo, c.LoginLogService)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.SMSService = service.NewSMSService(c.Config.SMS)
	c.OtpLoginService = service.NewOtpLoginService(
		c.Config.Otp,
		c.AdminRepo,
		c.LoginOtpRepo,
		c.AuthService,
		c.LoginLogService,
		c.CaptchaService,
		c.SMSService,
	)
	c.OtpLoginService.SetDispatcher(c.TaskDispatcher)

	c.CatalogService = service.NewCatalogService(c.CatalogRepo)
	c.CustomerService = service.NewCustomerService(c.CustomerRepo, c.CatalogRepo, c.OperationLogService, c.RefreshHub)
	c.TokenLedgerService = service.NewTokenLedgerService(c.TokenLedgerRepo, c.CatalogRepo, c.CustomerRepo, c.RefreshHub)
	c.TokenIssueService = service.NewTokenIssueService(
		c.TokenIssueRepo,
		c.CustomerRepo,
		c.CatalogRepo,
		c.TokenLedgerService,
		c.OperationLogService,
		c.RefreshHub,
		c.Config.Order,
	)
	c.OrderService = service.NewOrderService(
		c.OrderRepo,
		c.CustomerRepo,
		c.CatalogRepo,
		c.TokenLedgerService,
		c.OperationLogService,
		c.RefreshHub,
		c.Config.Order,
	)
	c.DashboardService = service.NewDashboardService(c.DashboardRepo)
	c.ExportService = service.NewExportService(c.Config.Export, c.CustomerRepo, c.OrderRepo, c.TokenIssueRepo)
}
