package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// HTTP server configuration
	HTTP HTTPConfig `envPrefix:"HTTP_"`

	// Database Configuration
	Database DatabaseConfig `envPrefix:"DATABASE_"`

	// Redis Configuration
	Redis RedisConfig `envPrefix:"REDIS_"`

	// Administrator account configuration
	Admin AdminConfig `envPrefix:"ADMIN_"`

	// Session configuration
	Session SessionConfig `envPrefix:"SESSION_"`

	// Logging Configuration
	Logging LoggingConfig `envPrefix:"LOG_"`

	// MessagesPath is the optional path to a YAML catalog overriding the
	// built-in user-facing auth messages.
	MessagesPath string `env:"MESSAGES_PATH"`
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port          int    `env:"PORT" envDefault:"8080"`
	ConsoleOrigin string `env:"CONSOLE_ORIGIN" envDefault:"http://localhost:5173"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string `env:"URL" envDefault:"bartrekker.sqlite"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string `env:"ADDRESS" envDefault:"localhost:6379"`
}

// AdminConfig is the configured administrator credential tuple. It is the
// trust anchor of the console: the auth gateway only ever accepts this one
// principal, and the bootstrap flow creates exactly this account.
type AdminConfig struct {
	ID       string `env:"ID" envDefault:"bartrekker-admin"`
	Email    string `env:"EMAIL,required,notEmpty"`
	Password string `env:"PASSWORD,required,notEmpty"`
	Name     string `env:"NAME" envDefault:"BarTrekker Admin"`
}

// SessionConfig holds session lifecycle configuration
type SessionConfig struct {
	// StorageKey is the Redis key the persisted session record lives under
	StorageKey string `env:"STORAGE_KEY" envDefault:"bartrekker:admin:session"`

	// IdleTimeout is how long the session may sit without an authenticated
	// request before the expiry sweeper marks it expired. Zero disables the
	// sweeper.
	IdleTimeout time.Duration `env:"IDLE_TIMEOUT" envDefault:"12h"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"` // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return cfg, nil
}
