package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Storage     StorageConfig
	Assembly    AssemblyAIConfig
	Attribution AttributionConfig
	Worker      WorkerConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel        string   `envconfig:"LOG_LEVEL" default:"info"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name        string `envconfig:"DB_NAME" default:"speaker_attribution"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns    int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns    int    `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled   bool          `envconfig:"REDIS_ENABLED" default:"true"`
	Host      string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port      string        `envconfig:"REDIS_PORT" default:"6379"`
	Password  string        `envconfig:"REDIS_PASSWORD"`
	DB        int           `envconfig:"REDIS_DB" default:"0"`
	ResultTTL time.Duration `envconfig:"REDIS_RESULT_TTL" default:"24h"`
}

// StorageConfig holds artifact storage configuration
type StorageConfig struct {
	Enabled         bool          `envconfig:"STORAGE_ENABLED" default:"true"`
	Endpoint        string        `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string        `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string        `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string        `envconfig:"STORAGE_BUCKET" default:"speaker-attribution"`
	UseSSL          bool          `envconfig:"STORAGE_USE_SSL" default:"false"`
	PublicURL       string        `envconfig:"STORAGE_PUBLIC_URL"`
	URLExpiry       time.Duration `envconfig:"STORAGE_URL_EXPIRY" default:"168h"`
}

// AssemblyAIConfig holds diarization provider configuration
type AssemblyAIConfig struct {
	APIKey         string `envconfig:"ASSEMBLYAI_API_KEY"`
	BaseURL        string `envconfig:"ASSEMBLYAI_BASE_URL"`
	WebhookBaseURL string `envconfig:"ASSEMBLYAI_WEBHOOK_URL"`
	WebhookSecret  string `envconfig:"ASSEMBLYAI_WEBHOOK_SECRET"`
	LanguageCode   string `envconfig:"ASSEMBLYAI_LANGUAGE_CODE"`
}

// AttributionConfig holds every attribution engine threshold
type AttributionConfig struct {
	AutomatedPhraseCutoffMs   int64   `envconfig:"ATTR_AUTOMATED_PHRASE_CUTOFF_MS" default:"30000"`
	StartupNoiseWindowMs      int64   `envconfig:"ATTR_STARTUP_NOISE_WINDOW_MS" default:"15000"`
	StartupNoiseMaxDurationMs int64   `envconfig:"ATTR_STARTUP_NOISE_MAX_DURATION_MS" default:"1000"`
	StartupNoiseMaxTextLen    int     `envconfig:"ATTR_STARTUP_NOISE_MAX_TEXT_LEN" default:"15"`
	ShortWordMaxLen           int     `envconfig:"ATTR_SHORT_WORD_MAX_LEN" default:"5"`
	ShortWordMaxDurationMs    int64   `envconfig:"ATTR_SHORT_WORD_MAX_DURATION_MS" default:"500"`
	DuplicateMaxGapMs         int64   `envconfig:"ATTR_DUPLICATE_MAX_GAP_MS" default:"10000"`
	DuplicateMinSimilarity    float64 `envconfig:"ATTR_DUPLICATE_MIN_SIMILARITY" default:"0.75"`
	DuplicateLengthRatio      float64 `envconfig:"ATTR_DUPLICATE_LENGTH_RATIO" default:"1.2"`

	ImmediateWeight         float64 `envconfig:"ATTR_IMMEDIATE_WEIGHT" default:"10"`
	NearWeightEqual         float64 `envconfig:"ATTR_NEAR_WEIGHT_EQUAL" default:"1"`
	NearWeightOverSegmented float64 `envconfig:"ATTR_NEAR_WEIGHT_OVER_SEGMENTED" default:"2"`
	NearWindow              int     `envconfig:"ATTR_NEAR_WINDOW" default:"4"`
	AssignThreshold         float64 `envconfig:"ATTR_ASSIGN_THRESHOLD" default:"5"`
	NicknameMinLen          int     `envconfig:"ATTR_NICKNAME_MIN_LEN" default:"3"`

	RealMinPercentage       float64 `envconfig:"ATTR_REAL_MIN_PERCENTAGE" default:"15"`
	RealMinUtterances       int     `envconfig:"ATTR_REAL_MIN_UTTERANCES" default:"10"`
	GroupedMinUtterances    int     `envconfig:"ATTR_GROUPED_MIN_UTTERANCES" default:"5"`
	TopMaxCumulativePercent float64 `envconfig:"ATTR_TOP_MAX_CUMULATIVE_PERCENT" default:"85"`
	TopMinPercentage        float64 `envconfig:"ATTR_TOP_MIN_PERCENTAGE" default:"10"`
	GroupedSpanRatio        float64 `envconfig:"ATTR_GROUPED_SPAN_RATIO" default:"0.3"`
	GroupedMaxGapMs         int64   `envconfig:"ATTR_GROUPED_MAX_GAP_MS" default:"60000"`

	TimelineWindowMs int64   `envconfig:"ATTR_TIMELINE_WINDOW_MS" default:"10000"`
	TimelineMinScore float64 `envconfig:"ATTR_TIMELINE_MIN_SCORE" default:"0.1"`
}

// WorkerConfig holds background job configuration
type WorkerConfig struct {
	Count        int           `envconfig:"WORKER_COUNT" default:"2"`
	PollInterval time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"10s"`
	BatchSize    int           `envconfig:"WORKER_BATCH_SIZE" default:"10"`
	MaxRetries   int           `envconfig:"WORKER_MAX_RETRIES" default:"3"`
	JobTimeout   time.Duration `envconfig:"WORKER_JOB_TIMEOUT" default:"5m"`
	// RetryBaseDelay is the first in-job backoff delay
	RetryBaseDelay time.Duration `envconfig:"WORKER_RETRY_BASE_DELAY" default:"5s"`
	// StaleAfter is how long a job may wait for a webhook, or sit in processing, before recovery
	StaleAfter time.Duration `envconfig:"WORKER_STALE_AFTER" default:"10m"`
}

// Load loads configuration from .env and environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only
func FromEnv() (*Config, error) {
	var cfg Config
	sections := []struct {
		name   string
		target interface{}
	}{
		{"server", &cfg.Server},
		{"database", &cfg.Database},
		{"redis", &cfg.Redis},
		{"storage", &cfg.Storage},
		{"assemblyai", &cfg.Assembly},
		{"attribution", &cfg.Attribution},
		{"worker", &cfg.Worker},
	}
	for _, s := range sections {
		if err := envconfig.Process("", s.target); err != nil {
			return nil, fmt.Errorf("failed to load %s config: %w", s.name, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Worker.Count < 0 {
		return fmt.Errorf("WORKER_COUNT must not be negative")
	}
	if c.Worker.PollInterval <= 0 {
		return fmt.Errorf("WORKER_POLL_INTERVAL must be positive")
	}
	if c.Storage.Enabled && c.Storage.BucketName == "" {
		return fmt.Errorf("STORAGE_BUCKET is required when storage is enabled")
	}
	if s := c.Attribution.DuplicateMinSimilarity; s < 0 || s > 1 {
		return fmt.Errorf("ATTR_DUPLICATE_MIN_SIMILARITY must be within [0,1]")
	}
	if c.Attribution.NearWindow < 1 {
		return fmt.Errorf("ATTR_NEAR_WINDOW must be at least 1")
	}
	if c.Attribution.TimelineWindowMs <= 0 {
		return fmt.Errorf("ATTR_TIMELINE_WINDOW_MS must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
