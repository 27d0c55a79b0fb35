package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 24*time.Hour, cfg.Redis.ResultTTL)
	assert.Equal(t, 10*time.Second, cfg.Worker.PollInterval)
	assert.Equal(t, int64(30000), cfg.Attribution.AutomatedPhraseCutoffMs)
	assert.Equal(t, 0.75, cfg.Attribution.DuplicateMinSimilarity)
	assert.Equal(t, 4, cfg.Attribution.NearWindow)
	assert.Equal(t, "localhost:6379", cfg.GetRedisAddr())
	assert.Contains(t, cfg.GetDatabaseDSN(), "dbname=speaker_attribution")
	assert.False(t, cfg.IsProduction())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("ATTR_ASSIGN_THRESHOLD", "7.5")
	t.Setenv("WORKER_POLL_INTERVAL", "1m")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 7.5, cfg.Attribution.AssignThreshold)
	assert.Equal(t, time.Minute, cfg.Worker.PollInterval)
}

func TestFromEnv_RejectsInvalidThresholds(t *testing.T) {
	t.Setenv("ATTR_DUPLICATE_MIN_SIMILARITY", "1.5")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "ATTR_DUPLICATE_MIN_SIMILARITY")
}

func TestFromEnv_RejectsMalformedValues(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "many")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "database")
}
