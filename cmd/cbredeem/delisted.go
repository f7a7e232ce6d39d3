package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ternarybob/cbredeem/internal/app"
	"github.com/ternarybob/cbredeem/internal/services/delisted"
	"github.com/ternarybob/cbredeem/internal/services/instruments"
)

var delistedCmd = &cobra.Command{
	Use:   "delisted",
	Short: "Download the delisted convertible bond list as an input table",
	Args:  cobra.NoArgs,
	RunE:  runDelisted,
}

var delistedOutput string

func init() {
	delistedCmd.Flags().StringVarP(&delistedOutput, "output", "o", "", "Output path (default: YYYY_MM_DD_in.xlsx)")
}

func runDelisted(cmd *cobra.Command, args []string) error {
	output := delistedOutput
	if output == "" {
		output = delisted.DefaultOutputName(time.Now())
	}
	if err := instruments.CheckFormat(output); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.StartBrowser(ctx); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}

	svc, err := application.DelistedService()
	if err != nil {
		return err
	}

	table, err := svc.Download(ctx)
	if err != nil {
		return err
	}

	if err := instruments.Save(table, output, config.Augment.Sheet, delisted.TextColumns...); err != nil {
		return err
	}

	logger.Info().Str("output", output).Int("rows", len(table.Rows)).Msg("Delisted list saved")
	return nil
}
