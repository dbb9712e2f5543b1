// Package cmd 组装 inventario 命令行。
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ByLCY/inventario/config"
	"github.com/ByLCY/inventario/logging"
	"github.com/ByLCY/inventario/store/sqlite"
)

var (
	configPath string
	debug      bool
	dbOverride string

	cfg    config.Config
	logger *zap.Logger
)

// rootCmd 是根命令
var rootCmd = &cobra.Command{
	Use:   "inventario",
	Short: "Inventário de ativos de TI com etiquetas em PDF",
	Long: `inventario registra equipamentos, gera folhas de etiquetas com QR code,
testa a conectividade dos hosts e consulta um modelo generativo sobre o inventário.

Execute "inventario serve" para abrir a interface web.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dbOverride != "" {
			cfg.DBPath = dbOverride
		}
		logger, err = logging.New(cfg.LogLevel, debug)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML 配置文件路径")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "输出 debug 级别日志")
	rootCmd.PersistentFlags().StringVar(&dbOverride, "db", "", "SQLite 数据库路径（覆盖配置）")

	rootCmd.AddCommand(serveCmd, labelsCmd, listCmd, addCmd, pingCmd, askCmd)
}

// Execute 执行根命令。
func Execute() error {
	return rootCmd.Execute()
}

func openStore() (*sqlite.AssetRepository, error) {
	repo, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库 %s 失败: %w", cfg.DBPath, err)
	}
	return repo, nil
}
