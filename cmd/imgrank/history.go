package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/iishyfishyy/imgrank/internal/config"
	"github.com/iishyfishyy/imgrank/internal/history"
	"github.com/iishyfishyy/imgrank/internal/topk"
	"github.com/iishyfishyy/imgrank/internal/ui"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "List recent runs or show the ranking of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, args, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to list")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string, limit int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg == nil {
		cfg = config.Default()
	}

	histPath, err := cfg.HistoryPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(histPath); os.IsNotExist(err) {
		ui.ShowInfo("No runs recorded yet.")
		return nil
	}

	store, err := history.Open(histPath)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	out := cmd.OutOrStdout()

	if len(args) == 1 {
		run, err := store.Get(cmd.Context(), args[0])
		if errors.Is(err, history.ErrRunNotFound) {
			ui.ShowError(fmt.Sprintf("No run with ID %s", args[0]))
			return err
		}
		if err != nil {
			return err
		}
		showRun(out, run)
		return nil
	}

	runs, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		ui.ShowInfo("No runs recorded yet.")
		return nil
	}
	listRuns(out, runs)
	return nil
}

func listRuns(w io.Writer, runs []history.Run) {
	gray := color.New(color.FgHiBlack)
	for _, run := range runs {
		fmt.Fprintf(w, "%s  ", run.ID)
		gray.Fprintf(w, "%-16s", humanize.Time(run.StartedAt))
		fmt.Fprintf(w, "  %s  (%s candidates, %d skipped)\n",
			run.Query, humanize.Comma(int64(run.Candidates)), run.Skipped)
	}
}

func showRun(w io.Writer, run history.Run) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(w, "Run %s\n", run.ID)
	fmt.Fprintf(w, "  Started:  %s (%s)\n", run.StartedAt.Format("2006-01-02 15:04:05"), humanize.Time(run.StartedAt))
	fmt.Fprintf(w, "  Query:    %s\n", run.Query)
	fmt.Fprintf(w, "  Dataset:  %s\n", run.Dataset)
	fmt.Fprintf(w, "  Output:   %s\n", run.Output)
	fmt.Fprintf(w, "  Strategy: %s\n", run.Strategy)
	fmt.Fprintln(w)

	ranked := make([]topk.ScoredCandidate, len(run.Ranked))
	for i, e := range run.Ranked {
		ranked[i] = topk.ScoredCandidate{Path: e.Path, Score: e.Score}
	}
	ui.RenderRanking(w, ranked)
	fmt.Fprintln(w)
	ui.RenderSummary(w, run.Candidates, run.Candidates-run.Skipped, run.Skipped)
	ui.RenderTiming(w, run.Elapsed)
}
