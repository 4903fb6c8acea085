package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/artpar/mingle/internal/core/stack"
	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address in host:port format.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}

// DatabaseConfig holds PostgreSQL connection configuration. Conn, when set,
// wins over the individual fields.
type DatabaseConfig struct {
	Conn     string `mapstructure:"conn"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
}

// DSN returns the connection string, assembling one from the individual
// fields when no full URI was given.
func (c DatabaseConfig) DSN() string {
	if c.Conn != "" {
		return c.Conn
	}
	return stack.ConnString(c.User, c.Password, c.Host, c.Port, c.Database)
}

// AuthConfig holds token signing configuration.
type AuthConfig struct {
	// Secret signs access tokens. The server refuses to start without one.
	Secret string `mapstructure:"secret"`

	ExpiresMinutes int `mapstructure:"expires_minutes"`
	ExpiresHours   int `mapstructure:"expires_hours"`
	ExpiresDays    int `mapstructure:"expires_days"`
}

// TokenTTL sums the expiry fields into a token lifetime. When all three are
// zero the lifetime defaults to one hour.
func (c AuthConfig) TokenTTL() time.Duration {
	ttl := time.Duration(c.ExpiresMinutes)*time.Minute +
		time.Duration(c.ExpiresHours)*time.Hour +
		time.Duration(c.ExpiresDays)*24*time.Hour
	if ttl <= 0 {
		return time.Hour
	}
	return ttl
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment. The environment
// names follow the deployment contract: POSTGRES_CONN (or the POSTGRES_*
// parts), SERVER_ADDRESS, SERVER_PORT, RANDOM_SECRET and the
// ACCESS_TOKEN_EXPIRES_* knobs.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("database.conn", "")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "postgres")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.expires_minutes", 0)
	v.SetDefault("auth.expires_hours", 0)
	v.SetDefault("auth.expires_days", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only return error if file was explicitly specified and is invalid
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	// Bind the deployment environment names
	mustBind(v, "server.address", "SERVER_ADDRESS")
	mustBind(v, "server.port", "SERVER_PORT")
	mustBind(v, "database.conn", "POSTGRES_CONN")
	mustBind(v, "database.user", "POSTGRES_USER")
	mustBind(v, "database.password", "POSTGRES_PASSWORD")
	mustBind(v, "database.host", "POSTGRES_HOST")
	mustBind(v, "database.port", "POSTGRES_PORT")
	mustBind(v, "database.database", "POSTGRES_DATABASE")
	mustBind(v, "auth.secret", "RANDOM_SECRET")
	mustBind(v, "auth.expires_minutes", "ACCESS_TOKEN_EXPIRES_MINUTES")
	mustBind(v, "auth.expires_hours", "ACCESS_TOKEN_EXPIRES_HOURS")
	mustBind(v, "auth.expires_days", "ACCESS_TOKEN_EXPIRES_DAYS")
	mustBind(v, "log.level", "LOG_LEVEL")
	mustBind(v, "log.format", "LOG_FORMAT")

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func mustBind(v *viper.Viper, key, env string) {
	if err := v.BindEnv(key, env); err != nil {
		panic(err)
	}
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
