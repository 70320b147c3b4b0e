package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/config"
	"github.com/ekaya-inc/ekaya-crm/pkg/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ekaya-crm",
	Short: "Sales CRM server",
	Long: `ekaya-crm tracks enterprises, contacts, opportunities and activities.

It serves the REST API and the MCP endpoint, and carries the maintenance
commands that operate on the same store: migrations, fixture seeding,
workbook export and the pipeline board.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath, Version)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger, err = logging.NewLogger(cfg.Env, cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	// Money totals go out as JSON numbers, like amounts and counts.
	decimal.MarshalJSONWithoutQuotes = true

	rootCmd.Version = Version
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the configuration file")

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, exportCmd, pipelineCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
