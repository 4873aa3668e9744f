package main

import (
	"os"

	"github.com/marcolomele/makeup-portfolio/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Serve and maintain the makeup portfolio",
	Long: `Serves the portfolio grid and project pages, resolving every Google Drive image
through a bounded retry and fallback chain. Configuration comes from PORTFOLIO_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		return setupLogging(cfg.LogLevel, cfg.LogFormat)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(probeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
