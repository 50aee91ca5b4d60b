package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zakupwatch/lotscan/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "lotscan",
	Short: "Procurement lot scraper and corruption-risk scorer",
	Long:  "Scrapes public procurement lot listings page by page, accumulates them in a durable store, and scores each lot's corruption risk with a pre-trained classifier ensemble.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
