package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"APP_ENV":                "test",
		"APP_PORT":               "8080",
		"DB_USER":                "app",
		"DB_HOST":                "localhost",
		"DB_PORT":                "3306",
		"DB_NAME":                "movies",
		"JWT_SECRET":             "secret",
		"ACCESS_TOKEN_TTL_MIN":   "15",
		"REFRESH_TOKEN_TTL_DAYS": "7",
		"BCRYPT_COST":            "4",
	} {
		t.Setenv(k, v)
	}
}

func TestLoad(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_TIMEZONE", "Asia/Tehran")
	t.Setenv("DB_AUTO_MIGRATE", "true")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15, cfg.AccessTTLMin)
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.True(t, cfg.DBAutoMigrate)
	require.NotNil(t, cfg.Location)
	assert.Equal(t, "Asia/Tehran", cfg.Location.String())
	assert.False(t, cfg.IsDev())
}

func TestLoadDefaultsToUTC(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_TIMEZONE", "")

	cfg := Load()
	assert.Equal(t, time.UTC, cfg.Location)
	assert.False(t, cfg.DBAutoMigrate)
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "1m")

	cfg := LoadCacheConfig()
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.False(t, cfg.Methods["POST"])
	assert.Equal(t, time.Minute, cfg.TTL)
}

func TestLoadQueueConfig(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://u:p@mq:5672/")
	t.Setenv("QUEUE_ENABLED", "yes")

	cfg := LoadQueueConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "amqp://u:p@mq:5672/", cfg.URL)
	assert.Equal(t, "reservation.events", cfg.Queue)
}

func TestLoadLogConfig(t *testing.T) {
	t.Setenv("LOG_FORMAT", "")
	assert.False(t, LoadLogConfig("dev").JSON)
	assert.True(t, LoadLogConfig("prod").JSON)

	t.Setenv("LOG_FORMAT", "json")
	assert.True(t, LoadLogConfig("dev").JSON)
}
