package telemetry

import (
	"context"
	"strings"

	"github.com/milkdesk/internal/config"
	"github.com/milkdesk/internal/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// DefaultServiceName 未配置时上报的服务名
const DefaultServiceName = "milkdesk"

// ShutdownFunc 关闭链路导出器
type ShutdownFunc func(context.Context) error

func noop(context.Context) error { return nil }

// Setup 初始化 OTLP gRPC 链路导出；未启用或初始化失败时返回空操作
func Setup(ctx context.Context, cfg config.TelemetryConfig) ShutdownFunc {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if !cfg.Enabled || endpoint == "" {
		return noop
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		logger.Warnw("telemetry_exporter_init_failed", "endpoint", endpoint, "error", err)
		return noop
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(ServiceName(cfg))))
	if err != nil {
		logger.Warnw("telemetry_resource_init_failed", "error", err)
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	logger.Infow("telemetry_enabled", "endpoint", endpoint, "service_name", ServiceName(cfg))
	return provider.Shutdown
}

// ServiceName 返回链路上报使用的服务名
func ServiceName(cfg config.TelemetryConfig) string {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		return DefaultServiceName
	}
	return name
}
