package cli

import (
	"github.com/milkdesk/internal/logger"
	"github.com/milkdesk/internal/models"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := loadRuntime(); err != nil {
			return err
		}
		if err := models.AutoMigrate(); err != nil {
			return err
		}
		logger.Infow("cli_migrate_done")
		return nil
	},
}
