package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/iishyfishyy/imgrank/internal/config"
	"github.com/iishyfishyy/imgrank/internal/ui"
)

func newConfigureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Set the default dataset, output file and ranking options",
		Args:  cobra.NoArgs,
		RunE:  runConfigure,
	}
}

func runConfigure(cmd *cobra.Command, args []string) error {
	ui.ShowSection("imgrank Configuration")

	cfg, existing, err := currentConfig()
	if err != nil {
		return err
	}
	if existing {
		displayConfig(cfg)
	} else {
		ui.ShowInfo("No configuration found. Starting from defaults.\n")
	}

	if cfg.Dataset, err = ui.PromptInput("Dataset directory:", cfg.Dataset); err != nil {
		return err
	}
	if cfg.Output, err = ui.PromptInput("Ranking output file:", cfg.Output); err != nil {
		return err
	}
	if cfg.TopK, err = ui.PromptInt("Number of ranked images (K):", cfg.TopK); err != nil {
		return err
	}
	if cfg.Workers, err = ui.PromptInt("Parallel workers:", cfg.Workers); err != nil {
		return err
	}
	if cfg.Resolution, err = ui.PromptInt("Canonical resolution (pixels):", cfg.Resolution); err != nil {
		return err
	}
	if cfg.Strategy, err = ui.PromptSelect("Ranking strategy:",
		[]string{config.StrategyMerge, config.StrategyShared}, cfg.Strategy); err != nil {
		return err
	}
	if cfg.History.Enabled, err = ui.PromptYesNo("Record runs in the history log?", cfg.History.Enabled); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	configPath, _ := config.GetConfigPath()
	ui.ShowSuccess(fmt.Sprintf("Configuration saved to %s", configPath))
	ui.ShowInfo("\nYou're all set! Try running: imgrank query.jpg")

	return nil
}

// currentConfig returns the saved configuration and true, or the defaults
// and false when no configuration file exists yet
func currentConfig() (*config.Config, bool, error) {
	exists, err := config.Exists()
	if err != nil {
		return nil, false, fmt.Errorf("failed to check configuration: %w", err)
	}
	if !exists {
		return config.Default(), false, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, false, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, true, nil
}

// displayConfig shows the current configuration
func displayConfig(cfg *config.Config) {
	fmt.Println()
	cyan := color.New(color.FgCyan, color.Bold)
	gray := color.New(color.FgHiBlack)

	cyan.Println("Current settings:")
	fmt.Printf("  Dataset:    %s\n", cfg.Dataset)
	fmt.Printf("  Output:     %s\n", cfg.Output)
	fmt.Printf("  Top K:      %d\n", cfg.TopK)
	fmt.Printf("  Workers:    %d\n", cfg.Workers)
	fmt.Printf("  Resolution: %d\n", cfg.Resolution)
	fmt.Printf("  Strategy:   %s\n", cfg.Strategy)
	fmt.Print("  History:    ")
	if cfg.History.Enabled {
		fmt.Println("enabled")
	} else {
		gray.Println("disabled")
	}
	fmt.Println()
}
