package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the catalog API.
type Config struct {
	HTTPAddr string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	KafkaBroker  string
	ChangesTopic string
	ChangesGroup string

	DataDir string

	LogLevel      string
	LogDir        string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	// DefaultRadiusKm applies when near_me is requested without radius_km.
	DefaultRadiusKm float64
	// DefaultTZ is the viewer timezone used by the open-now filter when the
	// request does not name one.
	DefaultTZ string
}

// Load reads an optional .env file and then the environment.
func Load() *Config {
	// joho/godotenv: missing .env is fine, real env vars always win.
	_ = godotenv.Load()

	return &Config{
		HTTPAddr:        GetEnv("HTTP_ADDR", ":8080"),
		RedisAddr:       GetEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:   GetEnv("REDIS_PASSWORD", ""),
		RedisDB:         GetEnvInt("REDIS_DB", 0),
		RedisPrefix:     GetEnv("REDIS_PREFIX", "market"),
		KafkaBroker:     GetEnv("KAFKA_BROKER", "kafka:9092"),
		ChangesTopic:    GetEnv("CHANGES_TOPIC", "catalog.changes"),
		ChangesGroup:    GetEnv("CHANGES_GROUP", "catalog-projector"),
		DataDir:         GetEnv("DATA_DIR", "./data"),
		LogLevel:        GetEnv("LOG_LEVEL", "info"),
		LogDir:          GetEnv("LOG_DIR", "./logs"),
		LogMaxSizeMB:    GetEnvInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups:   GetEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays:   GetEnvInt("LOG_MAX_AGE_DAYS", 28),
		DefaultRadiusKm: GetEnvFloat("DEFAULT_RADIUS_KM", 10),
		DefaultTZ:       GetEnv("DEFAULT_TZ", "UTC"),
	}
}

func GetEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func GetEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

func GetEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return fallback
}

func GetEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}
