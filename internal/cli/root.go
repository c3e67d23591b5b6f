package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/milkdesk/internal/config"
	"github.com/milkdesk/internal/logger"
	"github.com/milkdesk/internal/models"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "milkdesk",
	Short:         "Milk delivery admin service",
	Long:          `milkdesk runs the staff back office for milk token issuing, customer records and delivery orders.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadRuntime 加载配置、初始化日志并连接数据库
func loadRuntime() (*config.Config, error) {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, cfg.Server.Mode == "debug"); err != nil {
		return nil, fmt.Errorf("数据库初始化失败: %w", err)
	}
	return cfg, nil
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	return strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key")
}
