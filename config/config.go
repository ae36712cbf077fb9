package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type RedisConfig struct {
	URL       string
	ValkeyURL string
	Addr      string
	Username  string
	Password  string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}

// Enabled reports whether every R2 setting is present.
func (r R2Config) Enabled() bool {
	return r.AccountID != "" && r.AccessKeyID != "" && r.SecretAccessKey != "" &&
		r.BucketName != "" && r.PublicBaseURL != ""
}

type Config struct {
	AppEnv string
	Port   int

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	APISecret      string
	AllowedOrigins []string

	Redis RedisConfig
	R2    R2Config

	SentryDSN     string
	SeedDemo      bool
	GaugeSchedule string
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// DSN prefers DATABASE_URL in production, forcing TLS, and builds a local
// DSN from the DB_* pieces otherwise.
func (c *Config) DSN() string {
	if c.IsProduction() && c.DatabaseURL != "" {
		dsn := c.DatabaseURL
		if !strings.Contains(dsn, "sslmode=") {
			if strings.Contains(dsn, "?") {
				dsn += "&sslmode=require"
			} else {
				dsn += "?sslmode=require"
			}
		}
		return dsn
	}
	if c.DatabaseURL != "" && c.DBHost == "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort,
	)
}

func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// Load reads configuration from the environment. Outside production a local
// .env file is loaded first when present.
func Load() (*Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if !strings.EqualFold(appEnv, "production") {
		_ = godotenv.Load()
	}

	portStr := firstNonEmpty(os.Getenv("PORT"), os.Getenv("API_PORT"), "8888")
	port, err := strconv.Atoi(strings.TrimSpace(portStr))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535, got %d", port)
	}

	cfg := &Config{
		AppEnv:      appEnv,
		Port:        port,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      os.Getenv("DB_HOST"),
		DBPort:      firstNonEmpty(os.Getenv("DB_PORT"), "5432"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),
		APISecret:   os.Getenv("API_SECRET"),
		AllowedOrigins: splitCSV(firstNonEmpty(
			os.Getenv("ALLOWED_ORIGINS"),
			"http://localhost:3000",
		)),
		Redis: RedisConfig{
			URL:       os.Getenv("REDIS_URL"),
			ValkeyURL: os.Getenv("VALKEY_URL"),
			Addr:      firstNonEmpty(os.Getenv("REDIS_ADDR"), "localhost:6379"),
			Username:  os.Getenv("REDIS_USERNAME"),
			Password:  os.Getenv("REDIS_PASSWORD"),
		},
		R2: R2Config{
			AccountID:       os.Getenv("R2_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
			BucketName:      os.Getenv("R2_BUCKET_NAME"),
			PublicBaseURL:   os.Getenv("R2_PUBLIC_URL"),
		},
		SentryDSN:     os.Getenv("SENTRY_DSN"),
		GaugeSchedule: firstNonEmpty(os.Getenv("GAUGE_SCHEDULE"), "@every 1m"),
	}

	if v := strings.TrimSpace(os.Getenv("SEED_DEMO")); v != "" {
		seed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SEED_DEMO environment variable: %w", err)
		}
		cfg.SeedDemo = seed
	}

	if cfg.APISecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("API_SECRET environment variable is not set")
		}
		cfg.APISecret = "showdown-dev-secret"
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func splitCSV(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
