package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/cbredeem/internal/common"
)

var (
	// Persistent flags
	configFiles []string
	logLevel    string

	// Global state, set by loadConfig before any command runs
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "cbredeem",
	Short: "Find forced-call announcement dates and prices for delisted convertible bonds",
	Long: `cbredeem reads a table of delisted convertible bonds, opens each bond's detail
page in headless Chrome, finds the earliest forced-call (early redemption)
announcement and records the price quoted on that date.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&configFiles, "config", "c", nil, "Configuration file path (repeatable, later files override earlier ones)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	rootCmd.AddCommand(augmentCmd)
	rootCmd.AddCommand(cookiesCmd)
	rootCmd.AddCommand(delistedCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig runs the startup sequence: config (defaults -> files -> env),
// CLI overrides, crash handler, logger, banner.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error

	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	common.ApplyFlagOverrides(config, logLevel)
	if err := config.Validate(); err != nil {
		return err
	}

	common.InstallCrashHandler(common.LogsDir(config))

	logger = common.InitLogger(config)

	common.PrintBanner(common.GetVersion())

	logger.Debug().
		Strs("config_files", configFiles).
		Str("log_level", config.Logging.Level).
		Str("badger_path", config.Storage.Badger.Path).
		Bool("headless", config.Browser.Headless).
		Msg("Configuration loaded")

	return nil
}

func main() {
	defer common.RecoverWithCrashFile()

	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error().Err(err).Msg("Command failed")
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
