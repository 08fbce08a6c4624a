package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"news-hierarchy/config"
	"news-hierarchy/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "newshier",
	Short: "News hierarchy aggregation service",
	Long:  "newshier serves news articles grouped into categories, subcategories and events, ranked by coverage.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (defaults plus NEWSHIER_* env when empty)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
}

// loadConfig reads and validates the config, then sets up logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}
