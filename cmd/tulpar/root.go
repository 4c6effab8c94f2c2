package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tulparsec/tulpar/internal/config"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tulpar",
	Short: "Subdomain-to-vulnerability reconnaissance pipeline",
	Long: `Tulpar automates the full web reconnaissance workflow for a target domain:
subdomain enumeration, liveness probing, JavaScript endpoint mining,
payload-based vulnerability probing, and historical archive collection.

Results from every stage accumulate into a single JSON report plus a
markdown summary. Scan metadata is persisted so history works across runs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it
		skipConfig := map[string]bool{
			"check":   true,
			"init":    true,
			"help":    true,
			"version": true,
		}

		if skipConfig[cmd.Name()] {
			return nil
		}

		// A missing config file is fine — Load falls back to defaults.
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default: tulpar.yaml in . or ~/.config/tulpar/)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose output")

	// Version flag
	rootCmd.Version = "0.1.0-dev"
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
