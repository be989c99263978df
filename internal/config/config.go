// Package config loads runtime settings from defaults, an optional YAML file
// (CONFIG_FILE) and environment variables, in that order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type AllocationConfig struct {
	// ShelfLifeDays is the expiry window of lots created to cover a shortfall.
	ShelfLifeDays int `yaml:"shelf_life_days"`
	// AutoProvision materializes stock on shortfall. When false, short orders fail.
	AutoProvision bool `yaml:"auto_provision"`
}

type Config struct {
	DatabaseURL    string           `yaml:"database_url"`
	DBMaxConns     int32            `yaml:"db_max_conns"`
	HTTPAddr       string           `yaml:"http_addr"`
	RedisAddr      string           `yaml:"redis_addr"`
	KafkaBrokers   []string         `yaml:"kafka_brokers"`
	OrderTopic     string           `yaml:"order_topic"`
	ServiceName    string           `yaml:"service_name"`
	AllowedOrigins []string         `yaml:"allowed_origins"`
	LogLevel       string           `yaml:"log_level"`
	Allocation     AllocationConfig `yaml:"allocation"`
}

func defaults() Config {
	return Config{
		DBMaxConns:     8,
		HTTPAddr:       ":8080",
		RedisAddr:      "localhost:6379",
		KafkaBrokers:   []string{"localhost:9092"},
		OrderTopic:     "order.placed",
		ServiceName:    "growmart-api",
		AllowedOrigins: []string{"http://localhost:3000"},
		LogLevel:       "info",
		Allocation:     AllocationConfig{ShelfLifeDays: 30, AutoProvision: true},
	}
}

// Load builds the Config. Callers load .env (godotenv) beforehand.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.DatabaseURL = getenv("DATABASE_URL", cfg.DatabaseURL)
	cfg.HTTPAddr = getenv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.RedisAddr = getenv("REDIS_ADDR", cfg.RedisAddr)
	cfg.OrderTopic = getenv("ORDER_TOPIC", cfg.OrderTopic)
	cfg.ServiceName = getenv("SERVICE_NAME", cfg.ServiceName)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = splitCSV(v)
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitCSV(v)
	}

	if v := os.Getenv("DB_MAX_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid DB_MAX_CONNS %q", v)
		}
		cfg.DBMaxConns = int32(n)
	}
	if v := os.Getenv("SHELF_LIFE_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid SHELF_LIFE_DAYS %q", v)
		}
		cfg.Allocation.ShelfLifeDays = n
	}
	if v := os.Getenv("AUTO_PROVISION"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid AUTO_PROVISION %q", v)
		}
		cfg.Allocation.AutoProvision = b
	}

	return cfg, nil
}

// SlogLevel maps LogLevel onto slog levels, defaulting to Info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
