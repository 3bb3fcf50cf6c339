package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nutrition-hq/dietapi/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "dietapi",
	Short: "Diet API - JSON data service for the diet catalog",
	Long: `dietapi serves food categories, food items and diet templates as JSON over
HTTP, and accepts bulk meal-item inserts.

The data engine is MySQL by default; PostgreSQL and SQLite are also
supported. Configuration is read from dietapi.yaml (or --config) and the
environment; DB_HOST, DB_USER, DB_PASSWORD, DB_NAME, DB_PORT and PORT are
honoured as well as DIETAPI_* overrides.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default dietapi.yaml if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
}
