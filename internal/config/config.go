package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mpetrov/glucolog/internal/logger"
)

type Config struct {
	DB     DBConfig
	Logger LoggerConfig
	Sync   SyncConfig
	Dexcom DexcomConfig
}

type DBConfig struct {
	Path string
}

type LoggerConfig struct {
	Level      logger.LogLevel
	OutputPath string
	Format     string
}

// SyncConfig controls the periodic external health import.
type SyncConfig struct {
	Enabled  bool
	Interval time.Duration
}

// DexcomConfig holds Dexcom Share credentials.
type DexcomConfig struct {
	Username string
	Password string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.LevelDebug
	case "info":
		return logger.LevelInfo
	case "warn", "warning":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

func parseBool(value string) bool {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	return b
}

func Load() (*Config, error) {
	intervalMinutes, err := strconv.Atoi(getEnvOrDefault("SYNC_INTERVAL_MINUTES", "15"))
	if err != nil || intervalMinutes < 1 {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL_MINUTES: %q", os.Getenv("SYNC_INTERVAL_MINUTES"))
	}

	return &Config{
		DB: DBConfig{
			Path: getEnvOrDefault("DB_PATH", "data/glucolog.db"),
		},
		Logger: LoggerConfig{
			Level:      parseLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "logs/app.log"),
			Format:     getEnvOrDefault("LOG_FORMAT", "json"),
		},
		Sync: SyncConfig{
			Enabled:  parseBool(getEnvOrDefault("SYNC_ENABLED", "false")),
			Interval: time.Duration(intervalMinutes) * time.Minute,
		},
		Dexcom: DexcomConfig{
			Username: os.Getenv("DEXCOM_USERNAME"),
			Password: os.Getenv("DEXCOM_PASSWORD"),
		},
	}, nil
}
