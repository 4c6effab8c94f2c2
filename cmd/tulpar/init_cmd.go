package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tulparsec/tulpar/internal/config"
	"github.com/tulparsec/tulpar/internal/storage"
)

var (
	initForce bool
	initDir   string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize tulpar with default configuration",
	Long: `Creates a default configuration file (tulpar.yaml), initializes the
output directory, and sets up the database for storing scan metadata.

This is typically the first command you run when setting up tulpar.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := filepath.Join(initDir, "tulpar.yaml")

		// Check if config already exists
		if _, err := os.Stat(configPath); err == nil && !initForce {
			return fmt.Errorf("config file already exists at %s. Use --force to overwrite", configPath)
		}

		// Create default config
		if err := config.WriteDefault(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		fmt.Printf("Created %s with default configuration\n", configPath)

		// Load the config we just created to get paths
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Create output directory
		if err := storage.EnsureDir(cfg.OutputDir); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		fmt.Printf("Created output directory: %s\n", cfg.OutputDir)

		// Initialize database
		store, err := storage.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer store.Close()
		fmt.Printf("Initialized database: %s\n", cfg.DBPath)

		// Print success message
		fmt.Println()
		fmt.Println("Tulpar initialized successfully!")
		fmt.Println("Run 'tulpar check' to verify your tools.")

		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing config file")
	initCmd.Flags().StringVar(&initDir, "dir", ".", "output directory")
	rootCmd.AddCommand(initCmd)
}
