package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ternarybob/cbredeem/internal/app"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "List or clear the per-bond results cached by augment runs",
	Args:  cobra.NoArgs,
	RunE:  runCache,
}

var cacheClear bool

func init() {
	cacheCmd.Flags().BoolVar(&cacheClear, "clear", false, "Delete all cached results")
}

func runCache(cmd *cobra.Command, args []string) error {
	application, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx := cmd.Context()

	if cacheClear {
		if err := application.ResultStorage.DeleteAll(ctx); err != nil {
			return err
		}
		logger.Info().Msg("Cached results cleared")
		return nil
	}

	results, err := application.ResultStorage.ListResults(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME\tDATE\tPRICE\tQUOTE DATE\tFETCHED")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.Code, r.Name, r.Date, r.Price, r.QuoteDate, r.FetchedAt.Format("2006-01-02 15:04"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	logger.Info().Int("results", len(results)).Msg("Cached results listed")
	return nil
}
