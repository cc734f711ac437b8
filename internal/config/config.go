package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	Environment string
	LogLevel    string

	DBDriver   string // postgres or sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	JWTSecret   string
	CORSOrigins []string
	RedisURL    string // empty disables cross-instance change fan-out

	FirebaseDatabaseURL string
	FirebaseCredentials string
}

// Load reads configs/.env when present and then the process environment.
// It returns whether the env file was loaded so the caller can log it.
func Load() (*Config, bool, error) {
	fileLoaded := godotenv.Load("configs/.env") == nil

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "sitebooks"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "sitebooks.db"),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")),
		RedisURL:    getEnv("REDIS_URL", ""),

		FirebaseDatabaseURL: getEnv("FIREBASE_DATABASE_URL", ""),
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),
	}

	if cfg.JWTSecret == "" {
		if cfg.GinMode == "release" {
			return nil, fileLoaded, fmt.Errorf("JWT_SECRET is required in release mode")
		}
		cfg.JWTSecret = "dev_only_secret_change_me"
	}

	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return nil, fileLoaded, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	return cfg, fileLoaded, nil
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.SQLitePath
	}
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
