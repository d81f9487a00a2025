// Command pausemo-admin runs maintenance tasks against a Pausemo deployment:
// schema migration, catalog checks, card seeding and retirement,
// effectiveness recomputes and offline classification.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pausemo/api/internal/config"
	"github.com/pausemo/api/internal/content"
	"github.com/pausemo/api/internal/database"
	"github.com/pausemo/api/internal/logger"
)

var (
	verbose     bool
	timeout     time.Duration
	catalogPath string
	outputJSON  bool
)

var rootCmd = &cobra.Command{
	Use:           "pausemo-admin",
	Short:         "Maintenance commands for the Pausemo engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Card catalog YAML (default: embedded catalog)")

	classifyCmd.Flags().StringVarP(&classifyCategory, "category", "c", "", "Diagnosis category")
	classifyCmd.Flags().BoolVar(&outputJSON, "json", false, "Output as JSON")
	_ = classifyCmd.MarkFlagRequired("category")

	recomputeCmd.Flags().BoolVar(&recomputeAll, "all", false, "Recompute every active card")

	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(recomputeCmd)

	cardCmd.AddCommand(cardRetireCmd)
	cardCmd.AddCommand(cardRestoreCmd)
	rootCmd.AddCommand(cardCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() (*logger.Logger, error) {
	level := "info"
	if verbose {
		level = "debug"
	}
	return logger.New(logger.Options{Level: level})
}

func loadCatalog() (*content.Catalog, error) {
	if catalogPath == "" {
		return content.Default()
	}
	return content.Load(catalogPath)
}

// connect opens the database named by the environment, the same way the
// server does
func connect(ctx context.Context, log *logger.Logger) (*database.SurrealDB, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	db := database.NewSurrealDB(database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Namespace:       cfg.Database.Namespace,
		Database:        cfg.Database.Database,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	}, log)
	if err := db.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, cfg, nil
}
