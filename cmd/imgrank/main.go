package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// version is set by goreleaser at build time
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// CLI flags
	debug bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rankFlags{}

	rootCmd := &cobra.Command{
		Use:   "imgrank QUERY [DATASET_DIR]",
		Short: "Rank a directory of images by similarity to a query image",
		Long: "imgrank compares a query image against every image in a dataset directory\n" +
			"and writes the most similar ones, best first, to a ranking file.",
		Version:      version + " (" + commit + ", " + date + ")",
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRank(cmd, args, flags)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	flags.register(rootCmd)

	rootCmd.AddCommand(newConfigureCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}
