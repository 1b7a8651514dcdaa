package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for banya-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, signing keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Redis configuration (optional leaderboard cache)
	Redis RedisConfig `yaml:"redis"`

	// Season scoring bounds
	Season SeasonConfig `yaml:"season"`

	// Auth configuration for the admin web UI
	Auth AuthConfig `yaml:"auth"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"banya"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"banya_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// URL builds a Postgres connection string from the parts.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// RedisConfig holds Redis configuration. An empty host disables Redis.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// SeasonConfig pins the scoring season. These are process-wide
// constants supplied at startup, not rows in rule_config: the season
// year scopes new-region/new-country bonuses (a fixed configured year,
// not the visit's own year), and the ultra-unique cutoff is the
// earliest visit date the first-ever-to-this-bath check considers.
type SeasonConfig struct {
	Year                 int    `yaml:"year" env:"SEASON_YEAR" env-default:"2026"`
	UltraUniqueStartDate string `yaml:"ultraunique_start_date" env:"ULTRAUNIQUE_START_DATE" env-default:"2023-01-01"`

	// UltraUniqueStart is the parsed UltraUniqueStartDate (UTC midnight).
	UltraUniqueStart time.Time `yaml:"-"`
}

// AuthConfig holds admin web auth configuration.
type AuthConfig struct {
	// WebPassword grants admin access via the browser login endpoint.
	// Empty disables password login entirely.
	WebPassword string `yaml:"-" env:"WEB_PASSWORD"` // Secret - not in YAML

	// TokenSecret signs session tokens issued after password login.
	// Required when WebPassword is set.
	TokenSecret string `yaml:"-" env:"TOKEN_SECRET"` // Secret - not in YAML

	// TokenTTLHours is the session token lifetime.
	TokenTTLHours int `yaml:"token_ttl_hours" env:"TOKEN_TTL_HOURS" env-default:"24"`
}

// TokenTTL returns the session token lifetime as a duration.
func (c *AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time and set on
// the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	// Load config from YAML file with environment variable overrides
	// when the file exists; fall back to pure env otherwise.
	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	start, err := time.ParseInLocation("2006-01-02", c.Season.UltraUniqueStartDate, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid ULTRAUNIQUE_START_DATE %q: %w", c.Season.UltraUniqueStartDate, err)
	}
	c.Season.UltraUniqueStart = start

	if c.Season.Year < 2000 || c.Season.Year > 2100 {
		return fmt.Errorf("implausible SEASON_YEAR %d", c.Season.Year)
	}

	if c.Auth.WebPassword != "" && c.Auth.TokenSecret == "" {
		return fmt.Errorf("TOKEN_SECRET is required when WEB_PASSWORD is set")
	}

	return nil
}
