// Package cli wires the cobra command tree for the s2s binary.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trackforge/s2s/internal/config"
	"github.com/trackforge/s2s/internal/database"
)

// Version is stamped at build time via -ldflags.
var Version = "0.1.0-dev"

// Database seams, swappable in tests.
var (
	connectDatabase = func() error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("no database configured; run 's2s setup' or set DATABASE_URL")
		}
		return database.ConnectWithURL(cfg.DatabaseURL)
	}
	closeDatabase = database.Close
)

var RootCmd = &cobra.Command{
	Use:   "s2s",
	Short: "Server-side click tracking and conversion postbacks",
	Long: `s2s records affiliate tracking-link clicks, captures lead conversions,
and fires server-to-server postbacks to affiliate networks with full
token substitution and per-attempt logging.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the s2s version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("s2s %s\n", Version)
	},
}

// Execute runs the root command.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// ensureDatabase connects the global pool if nothing has yet, returning a
// cleanup func that closes only what this call opened.
func ensureDatabase() (func(), error) {
	if database.DB != nil {
		return func() {}, nil
	}
	if err := connectDatabase(); err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return func() { _ = closeDatabase() }, nil
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
