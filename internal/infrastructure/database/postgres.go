package database

import (
	"fmt"
	"time"

	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/johnquangdev/speaker-attribution/pkg/config"
)

// DefaultMigrationsDir is where sql-migrate looks for migration files
const DefaultMigrationsDir = "migrations"

// NewPostgresDB creates a new PostgreSQL database connection using GORM
func NewPostgresDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), &gorm.Config{
		Logger: newGormLogger(logger, cfg.IsProduction()),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MinConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if logger != nil {
		logger.Info("✅ Database connected successfully",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.Name),
		)
	}
	return db, nil
}

// newGormLogger routes GORM logs through zap; production only reports errors
func newGormLogger(logger *zap.Logger, production bool) gormlogger.Interface {
	if logger == nil {
		return gormlogger.Discard
	}
	level := gormlogger.Warn
	if production {
		level = gormlogger.Error
	}
	return gormlogger.New(zap.NewStdLog(logger.Named("gorm")), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// Migrate applies pending migrations from dir with sql-migrate
func Migrate(db *gorm.DB, dir string, logger *zap.Logger) (int, error) {
	return exec(db, dir, migrate.Up, 0, logger)
}

// Rollback reverts up to steps migrations; zero reverts all of them
func Rollback(db *gorm.DB, dir string, steps int, logger *zap.Logger) (int, error) {
	return exec(db, dir, migrate.Down, steps, logger)
}

func exec(db *gorm.DB, dir string, direction migrate.MigrationDirection, max int, logger *zap.Logger) (int, error) {
	if dir == "" {
		dir = DefaultMigrationsDir
	}
	source := &migrate.FileMigrationSource{Dir: dir}

	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("failed to get db connection during migrate: %w", err)
	}

	n, err := migrate.ExecMax(sqlDB, "postgres", source, direction, max)
	if err != nil {
		return n, fmt.Errorf("failed to apply migrations from %s: %w", dir, err)
	}

	if logger != nil {
		logger.Info("✅ Migrations applied",
			zap.String("dir", dir),
			zap.Int("count", n),
			zap.Bool("up", direction == migrate.Up),
		)
	}
	return n, nil
}

// CloseDB closes the database connection
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database object: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
