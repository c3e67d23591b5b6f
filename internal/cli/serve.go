package cli

import (
	"errors"
	"os"
	"syscall"

	"github.com/milkdesk/internal/app"
	"github.com/milkdesk/internal/logger"
	"github.com/milkdesk/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("mode", app.ModeAll, "启动模式: all (默认), api, worker")
	serveCmd.Flags().Bool("skip-migrate", false, "启动时跳过自动迁移")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and/or the background worker",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	mode, _ := cmd.Flags().GetString("mode")
	skipMigrate, _ := cmd.Flags().GetBool("skip-migrate")
	switch mode {
	case app.ModeAll, app.ModeAPI, app.ModeWorker:
	default:
		return errors.New("mode must be one of: all, api, worker")
	}

	cfg, err := loadRuntime()
	if err != nil {
		return err
	}
	if isWeakSecret(cfg.JWT.SecretKey) {
		if cfg.Server.Mode == "release" {
			return errors.New("JWT secret 过弱或仍为默认值，请在生产环境中配置强随机密钥")
		}
		logger.Warnw("jwt_secret_weak", "mode", cfg.Server.Mode)
	}

	if !skipMigrate {
		if err := models.AutoMigrate(); err != nil {
			return err
		}
	}
	if err := ensureDefaultAdmin(cfg.Server.Mode); err != nil {
		logger.Warnw("default_admin_init_failed", "error", err)
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	return app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	})
}

func ensureDefaultAdmin(mode string) error {
	input := models.DefaultAdminInput{
		Username: os.Getenv("MILKDESK_DEFAULT_ADMIN_USERNAME"),
		Password: os.Getenv("MILKDESK_DEFAULT_ADMIN_PASSWORD"),
		Mobile:   os.Getenv("MILKDESK_DEFAULT_ADMIN_MOBILE"),
	}
	if mode == "release" && input.Password == "" {
		logger.Warnw("default_admin_skipped", "reason", "MILKDESK_DEFAULT_ADMIN_PASSWORD not set")
		return nil
	}
	return models.InitDefaultAdmin(input)
}
