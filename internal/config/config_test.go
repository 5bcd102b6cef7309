package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(PathEnv, "")

	cfg, err := Load("5000")
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "bookstore.orders", cfg.OrdersTopic)
	assert.Equal(t, time.Minute, cfg.RateWindow)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookstore.yaml")
	yaml := `
port: "7000"
postgresURL: postgres://file
logLevel: debug
tokenTTL: 2h
kafkaBrokers: [a:9092, b:9092]
rateLimit: 10
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv(PathEnv, path)
	t.Setenv("POSTGRES_URL", "postgres://env")
	t.Setenv("RATE_WINDOW", "30s")

	cfg, err := Load("5000")
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "postgres://env", cfg.PostgresURL)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 10, cfg.RateLimit)
	assert.Equal(t, 30*time.Second, cfg.RateWindow)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestLoad_EnvBrokers(t *testing.T) {
	t.Setenv(PathEnv, "")
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")

	cfg, err := Load("5000")
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv(PathEnv, filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := Load("5000")
		require.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv(PathEnv, "")
		t.Setenv("TOKEN_TTL", "soon")
		_, err := Load("5000")
		require.ErrorContains(t, err, "TOKEN_TTL")
	})

	t.Run("negative rate limit", func(t *testing.T) {
		t.Setenv(PathEnv, "")
		t.Setenv("RATE_LIMIT", "-1")
		_, err := Load("5000")
		require.Error(t, err)
	})
}

func TestConfig_Require(t *testing.T) {
	cfg := Config{PostgresURL: "postgres://x"}

	assert.NoError(t, cfg.Require("POSTGRES_URL"))
	assert.EqualError(t, cfg.Require("POSTGRES_URL", "JWT_SECRET"), "JWT_SECRET is required")
	assert.Error(t, cfg.Require("NOT_A_KEY"))
}
