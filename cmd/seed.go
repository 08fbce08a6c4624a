package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"news-hierarchy/database"
	"news-hierarchy/logger"
	"news-hierarchy/seed"
)

var fixturesPath string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo data from a YAML fixture file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if fixturesPath == "" {
			return errors.New("--fixtures is required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		f, err := seed.Load(fixturesPath)
		if err != nil {
			return err
		}

		db, err := database.Open(cfg.Database, logger.Component("database"))
		if err != nil {
			return err
		}
		defer database.Close(db)

		return seed.Apply(db, f, time.Now(), logger.Component("seed"))
	},
}

func init() {
	seedCmd.Flags().StringVar(&fixturesPath, "fixtures", "", "path to YAML fixtures")
}
