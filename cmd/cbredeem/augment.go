package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ternarybob/cbredeem/internal/app"
	"github.com/ternarybob/cbredeem/internal/services/instruments"
)

var augmentCmd = &cobra.Command{
	Use:   "augment <input.xlsx|input.csv>",
	Short: "Add forced-call date and price columns to an instrument table",
	Long: `Reads the instrument table, processes every row whose delisting reason equals
the configured target reason and writes the table back with the forced-call
date and price columns filled in. Ctrl+C stops after the current bond and
still saves what has been found.`,
	Args: cobra.ExactArgs(1),
	RunE: runAugment,
}

var (
	augmentOutput     string
	augmentSheet      string
	augmentResume     bool
	augmentHeadless   bool
	augmentClearCache bool
)

func init() {
	augmentCmd.Flags().StringVarP(&augmentOutput, "output", "o", "", "Output path (default: input name with 'in' replaced by 'au')")
	augmentCmd.Flags().StringVar(&augmentSheet, "sheet", "", "Worksheet name for input and output (default from config)")
	augmentCmd.Flags().BoolVar(&augmentResume, "resume", true, "Reuse results cached by an earlier run")
	augmentCmd.Flags().BoolVar(&augmentHeadless, "headless", true, "Run Chrome without a window")
	augmentCmd.Flags().BoolVar(&augmentClearCache, "clear-cache", false, "Delete cached results before starting")
}

func runAugment(cmd *cobra.Command, args []string) error {
	input := args[0]

	if cmd.Flags().Changed("resume") {
		config.Augment.Resume = augmentResume
	}
	if cmd.Flags().Changed("headless") {
		config.Browser.Headless = augmentHeadless
	}
	if augmentSheet != "" {
		config.Augment.Sheet = augmentSheet
	}

	output := augmentOutput
	if output == "" {
		output = instruments.OutputPath(input)
	}
	// A bad output name must fail before the batch, not after it
	if err := instruments.CheckFormat(output); err != nil {
		return err
	}

	table, err := instruments.Load(input, config.Augment.Sheet)
	if err != nil {
		return err
	}
	logger.Info().Str("input", input).Int("rows", len(table.Rows)).Msg("Instrument table loaded")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	if augmentClearCache {
		if err := application.ResultStorage.DeleteAll(ctx); err != nil {
			return err
		}
	} else if count, err := application.ResultStorage.CountResults(ctx); err == nil && count > 0 && config.Augment.Resume {
		logger.Info().Int("cached", count).Msg("Cached results available for resume")
	}

	if err := application.StartBrowser(ctx); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}

	runner, err := application.AugmentRunner()
	if err != nil {
		return err
	}

	summary, err := runner.Run(ctx, table)
	if err != nil {
		return err
	}

	// Save even when interrupted; the table holds everything found so far
	if err := instruments.Save(table, output, config.Augment.Sheet, config.Augment.CodeColumn); err != nil {
		return err
	}

	logger.Info().
		Str("output", output).
		Int("targets", summary.Targets).
		Int("dates_found", summary.DatesFound).
		Int("prices_found", summary.PricesFound).
		Int("failures", summary.Failures).
		Bool("interrupted", summary.Interrupted).
		Msg("Results saved")

	if summary.Interrupted {
		logger.Warn().Msg("Run was interrupted; rerun the same command to continue from the cache")
	}
	return nil
}
