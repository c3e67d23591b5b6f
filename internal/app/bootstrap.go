package app

import (
	"context"
	"errors"
	"os/signal"

	"github.com/milkdesk/internal/cache"
	"github.com/milkdesk/internal/config"
	"github.com/milkdesk/internal/logger"
	"github.com/milkdesk/internal/provider"
	"github.com/milkdesk/internal/router"
	"github.com/milkdesk/internal/telemetry"
	"github.com/milkdesk/internal/worker"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)

	var services []Service

	// 初始化 HTTP 服务与跨实例刷新桥接
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		handler := otelhttp.NewHandler(engine, telemetry.ServiceName(cfg.Telemetry))
		services = append(services, NewHTTPService(addr, handler))
		if cache.Enabled() {
			services = append(services, NewRefreshBridgeService(cache.Client(), cfg.Refresh.RedisChannel, container.RefreshHub))
		}
	}

	// 初始化 Worker 服务；all 模式下队列未启用时仅运行 HTTP，投递方回退为同步处理
	if mode == ModeWorker || (mode == ModeAll && cfg.Queue.Enabled) {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		if err != nil {
			return nil, err
		}
		services = append(services, workerService)
	} else if mode == ModeAll {
		logger.Infow("app_worker_skipped", "reason", "queue_disabled")
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	shutdownTelemetry := telemetry.Setup(context.Background(), opts.Config.Telemetry)
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			opts.Logger.Warnw("telemetry_shutdown_failed", "error", err)
		}
	}()

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)

	ctx := context.Background()
	if len(opts.Signals) > 0 {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, opts.Signals...)
		defer stop()
	}
	return runner.Run(ctx, opts.ShutdownTimeout, opts.Logger)
}
