package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vytor/skola/internal/config"
	"github.com/vytor/skola/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:          "skola",
	Short:        "Spaced repetition learning server",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides DB_PATH)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (overrides LOG_LEVEL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(gradeCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the environment, applies flag overrides, validates the
// result and installs the default logger.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Load()
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DBPath = p
	}
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		cfg.LogLevel = l
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	logger.SetDefault(logger.New(
		logger.WithLevel(level),
		logger.WithColors(true),
	))
	return cfg, nil
}
