package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/johnquangdev/speaker-attribution/pkg/validator"

	"github.com/johnquangdev/speaker-attribution/internal/adapter/handler"
	"github.com/johnquangdev/speaker-attribution/internal/adapter/repository"
	"github.com/johnquangdev/speaker-attribution/internal/infrastructure/cache"
	"github.com/johnquangdev/speaker-attribution/internal/infrastructure/database"
	"github.com/johnquangdev/speaker-attribution/internal/infrastructure/storage"
	"github.com/johnquangdev/speaker-attribution/internal/usecase/attribution"
	"github.com/johnquangdev/speaker-attribution/internal/usecase/report"
	"github.com/johnquangdev/speaker-attribution/internal/usecase/transcript"
	pkgai "github.com/johnquangdev/speaker-attribution/pkg/ai"
	"github.com/johnquangdev/speaker-attribution/pkg/config"
	pkglogger "github.com/johnquangdev/speaker-attribution/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := pkglogger.New(cfg.Server.Environment, cfg.Server.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true
	e.HidePort = false

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${id} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("20M"))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
	}))

	logger.Info("🔧 Initializing dependencies...")
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Database
	logger.Info("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	// Schema is managed by sql-migrate; applying on boot is for development only
	if cfg.Database.AutoMigrate {
		if cfg.IsProduction() {
			logger.Fatal("DB_AUTO_MIGRATE is enabled in production. Run the migrate command instead.")
		}
		if _, err := database.Migrate(db, database.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	checks := map[string]handler.Pinger{
		"database": handler.PingFunc(func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
	}

	// Result cache: Redis when enabled, in-process otherwise
	var store cache.Store
	if cfg.Redis.Enabled {
		logger.Info("📦 Connecting to Redis...")
		redisStore, err := cache.NewRedisStore(ctx, &cfg.Redis, cfg.GetRedisAddr())
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		store = redisStore
	} else {
		logger.Warn("⚠️ Redis disabled, caching results in memory")
		store = cache.NewMemoryStore(time.Minute)
	}
	defer store.Close()
	checks["cache"] = store

	// Artifact storage
	var artifacts transcript.ArtifactStore
	var artifactsHandler *handler.Artifacts
	if cfg.Storage.Enabled {
		logger.Info("🪣 Connecting to object storage...")
		artifactStore, err := storage.NewArtifactStore(ctx, &cfg.Storage, logger)
		if err != nil {
			logger.Fatal("Failed to initialize artifact storage", zap.Error(err))
		}
		artifacts = artifactStore
		artifactsHandler = handler.NewArtifacts(artifactStore, logger)
		checks["storage"] = artifactStore
	} else {
		logger.Warn("⚠️ Object storage disabled, renderings are not published")
	}

	// Diarization provider
	diarization := pkgai.NewDiarizationClient(&cfg.Assembly, logger)
	if !diarization.Configured() {
		logger.Warn("⚠️ ASSEMBLYAI_API_KEY not set, provider transcripts and jobs are unavailable")
	}

	// Attribution engine
	engine, err := attribution.NewEngine(
		attribution.ParamsFromConfig(cfg.Attribution),
		attribution.WithObserver(attribution.NewZapObserver(logger.Named("engine"))),
	)
	if err != nil {
		logger.Fatal("Invalid attribution parameters", zap.Error(err))
	}

	opts := transcript.DefaultOptions()
	opts.ResultTTL = cfg.Redis.ResultTTL
	opts.PollInterval = cfg.Worker.PollInterval
	opts.BatchSize = cfg.Worker.BatchSize
	opts.MaxRetries = cfg.Worker.MaxRetries
	opts.JobTimeout = cfg.Worker.JobTimeout
	opts.RetryBaseDelay = cfg.Worker.RetryBaseDelay
	opts.StaleAfter = cfg.Worker.StaleAfter
	opts.WebhookSecret = cfg.Assembly.WebhookSecret

	svc := transcript.NewService(
		repository.NewTranscriptRepository(db),
		repository.NewAttributionRepository(db),
		repository.NewJobRepository(db),
		diarization,
		artifacts,
		store,
		engine,
		report.NewRenderer(),
		opts,
		logger,
	)

	if cfg.Worker.Count > 0 {
		if err := svc.StartWorkerPool(ctx, cfg.Worker.Count); err != nil {
			logger.Fatal("Failed to start worker pool", zap.Error(err))
		}
	}

	// Routes
	router := handler.NewRouter(cfg,
		handler.NewAttribution(svc, logger),
		handler.NewWebhook(svc, logger),
		artifactsHandler,
		checks,
		logger,
	)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		logger.Info("🚀 Starting server",
			zap.String("addr", addr),
			zap.String("environment", cfg.Server.Environment),
		)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("❌ Server forced to shutdown", zap.Error(err))
	}
	if cfg.Worker.Count > 0 {
		if err := svc.StopWorkerPool(); err != nil {
			logger.Warn("⚠️ Failed to stop worker pool", zap.Error(err))
		}
	}
	stop()

	logger.Info("✅ Server stopped gracefully")
}
