// Package cli provides the command-line interface for the centerscrape application.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/labatlas/centerscrape/internal/app"
	"github.com/labatlas/centerscrape/internal/config"
)

// application is initialized in PersistentPreRunE and shared by all commands.
var application *app.Application

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "centerscrape",
	Short: "Scrape and enrich diagnostic center listings",
	Long: `Centerscrape collects diagnostic center listings from a business
directory, enriches matched records with map profile data, and exports the
combined results as CSV and JSON.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	config.RegisterFlags(rootCmd)

	// Lazily initialize the application before running commands (avoid starting app for -h/help)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if application != nil {
			return nil
		}

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		application = a
		return nil
	}

	// Ensure app is closed after command runs
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if application == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), application.Config.HTTPTimeout)
		defer cancel()
		_ = application.Close(ctx)
		application = nil
	}
}
