package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	SessionStoreMemory   = "memory"
	SessionStoreDatabase = "database"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Name               string   `yaml:"name"`
	Host               string   `yaml:"host"`
	Port               int      `yaml:"port"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	MaxBodyBytes       int64    `yaml:"max_body_bytes"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	AccessTokenSecret      string        `yaml:"access_token_secret"`
	AccessTokenTTL         time.Duration `yaml:"access_token_ttl"`
	RefreshTokenSecret     string        `yaml:"refresh_token_secret"`
	RefreshTokenTTL        time.Duration `yaml:"refresh_token_ttl"`
	SessionStore           string        `yaml:"session_store"`
	BcryptCost             int           `yaml:"bcrypt_cost"`
	SessionCleanupInterval time.Duration `yaml:"session_cleanup_interval"`
}

// RateLimitConfig bounds register, login and refresh attempts per client IP.
type RateLimitConfig struct {
	AuthRequests int           `yaml:"auth_requests"`
	AuthWindow   time.Duration `yaml:"auth_window"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads the YAML file at path. A missing file is not an error, so the
// whole configuration can come from the environment. Variables in a .env
// file in the working directory are loaded first without overriding the
// real environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		slog.Warn("config file not found, using environment only", "path", path)
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("BLOGIFY_ACCESS_TOKEN_SECRET"); v != "" {
		c.Auth.AccessTokenSecret = v
	}
	if v := os.Getenv("BLOGIFY_REFRESH_TOKEN_SECRET"); v != "" {
		c.Auth.RefreshTokenSecret = v
	}
	if v := os.Getenv("BLOGIFY_DATABASE_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("BLOGIFY_SESSION_STORE"); v != "" {
		c.Auth.SessionStore = v
	}
	if v := os.Getenv("BLOGIFY_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BLOGIFY_PORT must be a number: %w", err)
		}
		c.Server.Port = port
	}
	return nil
}

func (c *Config) validate() error {
	if c.Auth.AccessTokenSecret == "" {
		return fmt.Errorf("auth.access_token_secret is required")
	}
	if len(c.Auth.AccessTokenSecret) < 32 {
		return fmt.Errorf("auth.access_token_secret must be at least 32 characters")
	}
	if c.Auth.RefreshTokenSecret == "" {
		return fmt.Errorf("auth.refresh_token_secret is required")
	}
	if len(c.Auth.RefreshTokenSecret) < 32 {
		return fmt.Errorf("auth.refresh_token_secret must be at least 32 characters")
	}
	if c.Auth.RefreshTokenSecret == c.Auth.AccessTokenSecret {
		return fmt.Errorf("auth.refresh_token_secret must differ from auth.access_token_secret")
	}
	if c.Auth.AccessTokenTTL < 0 || c.Auth.RefreshTokenTTL < 0 {
		return fmt.Errorf("auth token TTLs must not be negative")
	}
	if c.Auth.AccessTokenTTL > 0 && c.Auth.RefreshTokenTTL > 0 && c.Auth.AccessTokenTTL >= c.Auth.RefreshTokenTTL {
		return fmt.Errorf("auth.access_token_ttl must be shorter than auth.refresh_token_ttl")
	}
	switch c.Auth.SessionStore {
	case "", SessionStoreMemory, SessionStoreDatabase:
	default:
		return fmt.Errorf("auth.session_store must be %q or %q", SessionStoreMemory, SessionStoreDatabase)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535")
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Name == "" {
		c.Server.Name = "Blogify"
	}
	if len(c.Server.CORSAllowedOrigins) == 0 {
		c.Server.CORSAllowedOrigins = []string{"*"}
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = 1 << 20 // 1 MB
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/blogify.db"
	}
	if c.Auth.AccessTokenTTL == 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL == 0 {
		c.Auth.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if c.Auth.SessionStore == "" {
		c.Auth.SessionStore = SessionStoreMemory
	}
	if c.Auth.SessionCleanupInterval <= 0 {
		c.Auth.SessionCleanupInterval = time.Hour
	}
	if c.RateLimit.AuthRequests <= 0 {
		c.RateLimit.AuthRequests = 10
	}
	if c.RateLimit.AuthWindow <= 0 {
		c.RateLimit.AuthWindow = time.Minute
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// SlogLevel maps log.level to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
