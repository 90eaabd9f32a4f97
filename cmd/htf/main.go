// Command htf evaluates multi-timeframe signal workspaces.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ShenglingZHU/hiera-tf/internal/config"
	"github.com/ShenglingZHU/hiera-tf/internal/logging"
)

var (
	configPath string
	logLevel   string

	appCfg *config.Config
	logger zerolog.Logger
)

// rootCmd is the base command for the htf CLI
var rootCmd = &cobra.Command{
	Use:   "htf",
	Short: "Hierarchical multi-timeframe signal engine",
	Long: `htf evaluates signal graphs over timeframe series ordered coarse to fine,
gates finer series by the windows of coarser ones, and exports, verifies or
streams the results.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		l, err := logging.New(cfg.Logging.Level, cfg.Logging.Console, os.Stderr)
		if err != nil {
			return err
		}
		appCfg = cfg
		logger = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "htf.yaml", "Path to runtime configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
