package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const devJWTSecret = "dev-secret-change-in-production"

var ErrJWTSecretRequired = errors.New("JWT_SECRET must be set in production environment")

type Storage string

const (
	StorageMySQL  Storage = "mysql"
	StorageMemory Storage = "memory"
)

type Config struct {
	Port        string
	Env         string
	LogLevel    slog.Level
	Storage     Storage
	DatabaseDSN string
	JWTSecret   string
	JWTExpiry   time.Duration

	OTPIssuer string
	OTPWindow int

	AuthRateRPS   float64
	AuthRateBurst int

	// TrustProxy makes the server take client addresses from forwarding
	// headers. Off unless a trusted proxy sits in front.
	TrustProxy bool
}

// Load reads configuration from the environment. Malformed values fall back
// to their defaults with a warning.
func Load() (Config, error) {
	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		LogLevel:    getLevel("LOG_LEVEL", slog.LevelInfo),
		Storage:     getStorage("STORAGE", StorageMySQL),
		DatabaseDSN: getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/securevault?parseTime=true"),
		JWTSecret:   getEnv("JWT_SECRET", devJWTSecret),
		JWTExpiry:   getDuration("JWT_EXPIRY", 7*24*time.Hour),

		OTPIssuer: getEnv("OTP_ISSUER", "SecureVault"),
		OTPWindow: getInt("OTP_WINDOW", 2),

		AuthRateRPS:   getFloat("AUTH_RATE_RPS", 5),
		AuthRateBurst: getInt("AUTH_RATE_BURST", 10),
		TrustProxy:    getBool("TRUST_PROXY", false),
	}

	if cfg.IsProduction() && cfg.JWTSecret == devJWTSecret {
		return Config{}, ErrJWTSecretRequired
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		slog.Warn("invalid integer, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		slog.Warn("invalid number, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return f
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid boolean, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return b
}

func getLevel(key string, fallback slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		slog.Warn("invalid log level, using default", "key", key, "value", v)
		return fallback
	}
	return level
}

func getStorage(key string, fallback Storage) Storage {
	switch s := Storage(strings.ToLower(os.Getenv(key))); s {
	case "":
		return fallback
	case StorageMySQL, StorageMemory:
		return s
	default:
		slog.Warn("unknown storage backend, using default", "key", key, "value", string(s), "default", string(fallback))
		return fallback
	}
}
