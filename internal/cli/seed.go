package cli

import (
	"fmt"
	"strings"

	"github.com/milkdesk/internal/logger"
	"github.com/milkdesk/internal/models"

	"github.com/spf13/cobra"
)

var (
	defaultSeedAreas      = []string{"North Zone", "South Zone", "East Zone", "West Zone"}
	defaultSeedTokenTypes = []string{"Full Cream 500ml=32.50", "Toned 500ml=28.00", "Double Toned 500ml=25.00"}
)

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringSlice("area", defaultSeedAreas, "片区名称，可重复")
	seedCmd.Flags().StringSlice("token-type", defaultSeedTokenTypes, "牛奶券类型，格式 名称=单价")
	seedCmd.Flags().Bool("with-admin", true, "同时初始化默认管理员")
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert default areas, token types and the first admin",
	RunE:  runSeed,
}

func runSeed(cmd *cobra.Command, _ []string) error {
	areas, _ := cmd.Flags().GetStringSlice("area")
	rawTypes, _ := cmd.Flags().GetStringSlice("token-type")
	withAdmin, _ := cmd.Flags().GetBool("with-admin")

	tokenTypes, err := parseTokenTypeFlags(rawTypes)
	if err != nil {
		return err
	}

	cfg, err := loadRuntime()
	if err != nil {
		return err
	}
	if err := models.AutoMigrate(); err != nil {
		return err
	}
	if err := models.SeedCatalog(areas, tokenTypes); err != nil {
		return err
	}
	if withAdmin {
		if err := ensureDefaultAdmin(cfg.Server.Mode); err != nil {
			return err
		}
	}
	logger.Infow("cli_seed_done", "areas", len(areas), "token_types", len(tokenTypes))
	return nil
}

// parseTokenTypeFlags 解析 名称=单价 形式的参数
func parseTokenTypeFlags(values []string) (map[string]string, error) {
	result := make(map[string]string, len(values))
	for _, raw := range values {
		name, price, ok := strings.Cut(raw, "=")
		name = strings.TrimSpace(name)
		price = strings.TrimSpace(price)
		if !ok || name == "" || price == "" {
			return nil, fmt.Errorf("invalid token type %q, expected name=price", raw)
		}
		if _, err := models.NewMoneyFromString(price); err != nil {
			return nil, fmt.Errorf("invalid price for %q: %w", name, err)
		}
		result[name] = price
	}
	return result, nil
}
