package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds Postgres connection settings. URL takes precedence
// over the individual fields when both are present.
type DatabaseConfig struct {
	URL      string
	Host     string
	User     string
	Password string
	Name     string
	Port     string
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	JWTSecret string
}

// RedisConfig holds cache settings. Addr may be empty, in which case caching
// is disabled and reads go straight to the database.
type RedisConfig struct {
	Addr     string
	Password string
}

// SchedulerConfig holds the cron expression for the low-stock digest.
type SchedulerConfig struct {
	LowStockCron string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes from the
		// environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("PORT", "3000"),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getenvWithDefault("DB_HOST", "localhost"),
			User:     getenvWithDefault("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getenvWithDefault("DB_NAME", "fabric_retail"),
			Port:     getenvWithDefault("DB_PORT", "5432"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Scheduler: SchedulerConfig{
			LowStockCron: getenvWithDefault("LOW_STOCK_CRON", "0 8 * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("PORT must be provided")
	}

	if c.Database.URL == "" {
		switch {
		case c.Database.Host == "":
			return errors.New("DB_HOST must be provided when DATABASE_URL is unset")
		case c.Database.User == "":
			return errors.New("DB_USER must be provided when DATABASE_URL is unset")
		case c.Database.Name == "":
			return errors.New("DB_NAME must be provided when DATABASE_URL is unset")
		}
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must be provided")
	}

	if c.Scheduler.LowStockCron == "" {
		return errors.New("LOW_STOCK_CRON must not be empty")
	}

	return nil
}

// DSN builds the Postgres connection string.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Host, c.User, c.Password, c.Name, c.Port,
	)
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
