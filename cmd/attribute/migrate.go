package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/johnquangdev/speaker-attribution/internal/infrastructure/database"
	"github.com/johnquangdev/speaker-attribution/pkg/config"
	pkglogger "github.com/johnquangdev/speaker-attribution/pkg/logger"
)

var (
	migrationsDir string
	rollbackSteps int
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the attribution database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(env *migrateEnv) error {
			n, err := database.Migrate(env.db, migrationsDir, env.logger)
			if err != nil {
				return err
			}
			env.logger.Info("✅ Successfully applied migrations", zap.Int("count", n))
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert applied migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if rollbackSteps < 0 {
			return fmt.Errorf("--steps must not be negative")
		}
		return withDatabase(func(env *migrateEnv) error {
			n, err := database.Rollback(env.db, migrationsDir, rollbackSteps, env.logger)
			if err != nil {
				return err
			}
			env.logger.Info("✅ Successfully reverted migrations", zap.Int("count", n))
			return nil
		})
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrationsDir, "dir", database.DefaultMigrationsDir, "migrations directory")
	migrateDownCmd.Flags().IntVar(&rollbackSteps, "steps", 1, "number of migrations to revert, 0 for all")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

type migrateEnv struct {
	db     *gorm.DB
	logger *zap.Logger
}

func withDatabase(fn func(env *migrateEnv) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := pkglogger.New(cfg.Server.Environment, logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	db, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.CloseDB(db)

	logger.Info("✅ Database connected successfully")
	return fn(&migrateEnv{db: db, logger: logger})
}
