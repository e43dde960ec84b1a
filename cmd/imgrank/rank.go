package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iishyfishyy/imgrank/internal/config"
	"github.com/iishyfishyy/imgrank/internal/history"
	"github.com/iishyfishyy/imgrank/internal/imaging"
	"github.com/iishyfishyy/imgrank/internal/logging"
	"github.com/iishyfishyy/imgrank/internal/output"
	"github.com/iishyfishyy/imgrank/internal/retrieval"
	"github.com/iishyfishyy/imgrank/internal/ui"
)

// rankFlags holds the root command's flags
type rankFlags struct {
	output     string
	topK       int
	workers    int
	resolution int
	strategy   string
	logFormat  string
	copy       bool
	explain    bool
	noHistory  bool
}

func (f *rankFlags) register(cmd *cobra.Command) {
	def := config.Default()
	fs := cmd.Flags()
	fs.StringVarP(&f.output, "output", "o", def.Output, "File to write the ranked image paths to")
	fs.IntVarP(&f.topK, "top-k", "k", def.TopK, "Number of ranked images to keep")
	fs.IntVarP(&f.workers, "workers", "w", def.Workers, "Number of images compared in parallel")
	fs.IntVar(&f.resolution, "resolution", def.Resolution, "Canonical width and height images are resized to")
	fs.StringVar(&f.strategy, "strategy", def.Strategy, "How workers share the ranking: merge or shared")
	fs.StringVar(&f.logFormat, "log-format", "console", "Diagnostic log format: console or json")
	fs.BoolVar(&f.copy, "copy", false, "Copy the ranked paths to the clipboard")
	fs.BoolVar(&f.explain, "explain", false, "Print the distance breakdown of each ranked image")
	fs.BoolVar(&f.noHistory, "no-history", false, "Do not record this run in the history log")
}

// applyTo overrides config values with the flags the user actually set
func (f *rankFlags) applyTo(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("output") {
		cfg.Output = f.output
	}
	if fs.Changed("top-k") {
		cfg.TopK = f.topK
	}
	if fs.Changed("workers") {
		cfg.Workers = f.workers
	}
	if fs.Changed("resolution") {
		cfg.Resolution = f.resolution
	}
	if fs.Changed("strategy") {
		cfg.Strategy = f.strategy
	}
	if f.noHistory {
		cfg.History.Enabled = false
	}
}

// loadConfig returns the saved configuration, or the defaults when none exists
func loadConfig(log zerolog.Logger) (*config.Config, error) {
	configPath, _ := config.GetConfigPath()
	log.Debug().Str("path", configPath).Msg("loading configuration")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg == nil {
		log.Debug().Msg("no configuration file, using defaults")
		cfg = config.Default()
	}
	return cfg, nil
}

func runRank(cmd *cobra.Command, args []string, flags *rankFlags) error {
	log := logging.New(logging.Config{Debug: debug, Format: flags.logFormat, Output: cmd.ErrOrStderr()})

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	flags.applyTo(cmd, cfg)
	if len(args) > 1 {
		cfg.Dataset = args[1]
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	strategy, err := retrieval.ParseStrategy(cfg.Strategy)
	if err != nil {
		return err
	}

	query := args[0]
	startedAt := time.Now()

	candidates, err := imaging.ListFiles(cfg.Dataset)
	if err != nil {
		return fmt.Errorf("failed to list dataset: %w", err)
	}
	log.Debug().Str("dataset", cfg.Dataset).Int("candidates", len(candidates)).Msg("dataset listed")

	engine, err := retrieval.NewEngine(imaging.NewDiskLoader(cfg.Resolution), func(o *retrieval.Options) {
		o.K = cfg.TopK
		o.Workers = cfg.Workers
		o.Resolution = cfg.Resolution
		o.Strategy = strategy
		o.Logger = log
	})
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	opts := engine.Options()
	log.Debug().
		Int("k", opts.K).
		Int("workers", opts.Workers).
		Int("resolution", opts.Resolution).
		Str("strategy", string(opts.Strategy)).
		Str("output", cfg.Output).
		Msg("effective settings")

	result, err := engine.Run(cmd.Context(), query, candidates)
	if err != nil {
		if errors.Is(err, retrieval.ErrInvalidImage) {
			ui.ShowError(fmt.Sprintf("Cannot read query image %s", query))
		}
		return err
	}

	if err := output.WriteRanking(cfg.Output, result.Paths()); err != nil {
		ui.ShowError(err.Error())
		return err
	}

	elapsed := time.Since(startedAt)

	out := cmd.OutOrStdout()
	if err := report(out, engine, result, len(candidates), elapsed, flags.explain); err != nil {
		return err
	}
	warnSkipped(result.Skipped)

	if flags.copy {
		copyRanking(result.Paths())
	}

	if cfg.History.Enabled {
		recordRun(cmd, log, cfg, strategy, startedAt, elapsed, result, len(candidates))
	}

	return nil
}

// report prints the ranking table, the run summary and the timing line.
// elapsed covers the whole run, from listing the dataset to writing the ranking.
func report(w io.Writer, engine *retrieval.Engine, result *retrieval.Result, candidates int,
	elapsed time.Duration, explain bool) error {
	ui.RenderRanking(w, result.Ranked)
	if explain {
		for i, c := range result.Ranked {
			comps, err := engine.Explain(result.QueryVector, c.Path)
			if err != nil {
				return fmt.Errorf("failed to explain %s: %w", c.Path, err)
			}
			fmt.Fprintf(w, "  %2d. %s\n", i+1, c.Path)
			ui.RenderBreakdown(w, comps)
		}
	}
	fmt.Fprintln(w)
	ui.RenderSummary(w, candidates, result.Evaluated, len(result.Skipped))
	ui.RenderTiming(w, elapsed)
	return nil
}

// warnSkipped lists the candidates that could not be compared
func warnSkipped(skipped []retrieval.Skipped) {
	if len(skipped) == 0 {
		return
	}
	ui.ShowWarning(fmt.Sprintf("Skipped %d unreadable image(s):", len(skipped)))
	for _, s := range skipped {
		ui.ShowWarning(fmt.Sprintf("  %s: %v", s.Path, s.Err))
	}
}

func copyRanking(paths []string) {
	if err := clipboard.WriteAll(strings.Join(paths, "\n")); err != nil {
		ui.ShowError(fmt.Sprintf("Failed to copy to clipboard: %v", err))
		return
	}
	ui.ShowSuccess("Ranking copied to clipboard!")
}

// recordRun stores the run in the history log. Failures are logged, not returned.
func recordRun(cmd *cobra.Command, log zerolog.Logger, cfg *config.Config, strategy retrieval.Strategy,
	startedAt time.Time, elapsed time.Duration, result *retrieval.Result, candidates int) {
	histPath, err := cfg.HistoryPath()
	if err != nil {
		log.Warn().Err(err).Msg("failed to resolve history path")
		return
	}

	store, err := history.Open(histPath)
	if err != nil {
		log.Warn().Err(err).Str("path", histPath).Msg("failed to open history")
		return
	}
	defer store.Close()

	run := history.NewRun(result.Query, cfg.Dataset, cfg.Output, string(strategy), startedAt)
	run.Candidates = candidates
	run.Skipped = len(result.Skipped)
	run.Elapsed = elapsed
	run.Ranked = make([]history.Entry, len(result.Ranked))
	for i, c := range result.Ranked {
		run.Ranked[i] = history.Entry{Path: c.Path, Score: c.Score}
	}

	if err := store.Record(cmd.Context(), run); err != nil {
		log.Warn().Err(err).Msg("failed to save history")
		return
	}
	log.Debug().Str("run", run.ID).Str("path", histPath).Msg("run recorded")
}
