package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// PathEnv names the optional YAML file. Environment variables override it.
const PathEnv = "BOOKSTORE_CONFIG"

type Config struct {
	Port            string        `yaml:"port"`
	PostgresURL     string        `yaml:"postgresURL"`
	LogLevel        string        `yaml:"logLevel"`
	JWTSecret       string        `yaml:"jwtSecret"`
	JWTIssuer       string        `yaml:"jwtIssuer"`
	TokenTTL        time.Duration `yaml:"tokenTTL"`
	KafkaBrokers    []string      `yaml:"kafkaBrokers"`
	OrdersTopic     string        `yaml:"ordersTopic"`
	CORSOrigin      string        `yaml:"corsOrigin"`
	UpstreamURL     string        `yaml:"upstreamURL"`
	RedisAddr       string        `yaml:"redisAddr"`
	RedisPassword   string        `yaml:"redisPassword"`
	RateLimit       int           `yaml:"rateLimit"`
	RateWindow      time.Duration `yaml:"rateWindow"`
	EmailServiceURL string        `yaml:"emailServiceURL"`
	MigrationsPath  string        `yaml:"migrationsPath"`
	ServiceVersion  string        `yaml:"serviceVersion"`
}

func defaults(port string) Config {
	return Config{
		Port:           port,
		LogLevel:       "info",
		JWTIssuer:      "bookstore-api",
		TokenTTL:       7 * 24 * time.Hour,
		OrdersTopic:    "bookstore.orders",
		RateLimit:      100,
		RateWindow:     time.Minute,
		MigrationsPath: "file://migrations",
		ServiceVersion: "0.1.0",
	}
}

// Load builds the config for a binary listening on defaultPort: defaults,
// then the YAML file named by BOOKSTORE_CONFIG, then the environment.
func Load(defaultPort string) (Config, error) {
	cfg := defaults(defaultPort)

	if path := strings.TrimSpace(os.Getenv(PathEnv)); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if cfg.RateLimit < 0 || cfg.RateWindow < 0 {
		return cfg, errors.New("config: rate limit and window must be >= 0")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Port, "PORT")
	setString(&cfg.PostgresURL, "POSTGRES_URL")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.JWTIssuer, "JWT_ISSUER")
	setString(&cfg.OrdersTopic, "ORDERS_TOPIC")
	setString(&cfg.CORSOrigin, "CORS_ORIGIN")
	setString(&cfg.UpstreamURL, "UPSTREAM_URL")
	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.EmailServiceURL, "EMAIL_SERVICE_URL")
	setString(&cfg.MigrationsPath, "MIGRATIONS_PATH")
	setString(&cfg.ServiceVersion, "SERVICE_VERSION")

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = splitCSV(v)
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: RATE_LIMIT: %w", err)
		}
		cfg.RateLimit = n
	}
	if err := setDuration(&cfg.TokenTTL, "TOKEN_TTL"); err != nil {
		return err
	}
	return setDuration(&cfg.RateWindow, "RATE_WINDOW")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// Require returns an error naming the first empty setting among keys, using
// the environment variable names operators set.
func (c Config) Require(keys ...string) error {
	values := map[string]string{
		"POSTGRES_URL":      c.PostgresURL,
		"JWT_SECRET":        c.JWTSecret,
		"UPSTREAM_URL":      c.UpstreamURL,
		"REDIS_ADDR":        c.RedisAddr,
		"EMAIL_SERVICE_URL": c.EmailServiceURL,
		"KAFKA_BROKERS":     strings.Join(c.KafkaBrokers, ","),
	}
	for _, key := range keys {
		v, known := values[key]
		if !known {
			return fmt.Errorf("config: unknown key %s", key)
		}
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s is required", key)
		}
	}
	return nil
}

// Level maps LogLevel onto slog; unknown values mean info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger is the JSON stdout logger every binary uses.
func (c Config) NewLogger(service string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: c.Level()})
	return slog.New(handler).With("service", service)
}
