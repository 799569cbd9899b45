package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Port         string `yaml:"port"`
	WebPort      string `yaml:"web_port"`
	Storage      string `yaml:"storage"`
	DBConn       string `yaml:"db_conn"`
	LogLevel     string `yaml:"log_level"`
	JWTSecret    string `yaml:"jwt_secret"`
	JWTExpiresIn string `yaml:"jwt_expires_in"`
	JWTIssuer    string `yaml:"jwt_issuer"`
	JWTAudience  string `yaml:"jwt_audience"`
	BcryptCost   string `yaml:"bcrypt_cost"`
	CORSOrigin   string `yaml:"cors_origin"`
	APIURL       string `yaml:"api_url"`
	SiteURL      string `yaml:"site_url"`
	SiteTitle    string `yaml:"site_title"`
	FeedRefresh  string `yaml:"feed_refresh"`
	FeedSize     string `yaml:"feed_size"`
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     string `yaml:"smtp_port"`
	SMTPUsername string `yaml:"smtp_username"`
	SMTPPassword string `yaml:"smtp_password"`
	SenderEmail  string `yaml:"sender_email"`
	NotifyEmail  string `yaml:"notify_email"`
}

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// NewConfig loads configuration from an optional YAML file (CONFIG_FILE)
// and environment variables. Environment variables take precedence.
func NewConfig() (*Config, error) {
	file := &Config{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, file); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Port:         getEnv("PORT", or(file.Port, "3001")),
		WebPort:      getEnv("WEB_PORT", or(file.WebPort, "3000")),
		Storage:      getEnv("STORAGE", or(file.Storage, StoragePostgres)),
		DBConn:       getEnv("DB_CONN", or(file.DBConn, "host=localhost port=5432 user=devblog password=devblog dbname=devblog sslmode=disable")),
		LogLevel:     getEnv("LOG_LEVEL", or(file.LogLevel, "INFO")),
		JWTSecret:    getEnv("JWT_SECRET", or(file.JWTSecret, "secret")),
		JWTExpiresIn: getEnv("JWT_EXPIRES_IN", or(file.JWTExpiresIn, "24h")),
		JWTIssuer:    getEnv("JWT_ISSUER", or(file.JWTIssuer, "devblog-api")),
		JWTAudience:  getEnv("JWT_AUDIENCE", or(file.JWTAudience, "devblog-users")),
		BcryptCost:   getEnv("BCRYPT_COST", or(file.BcryptCost, "12")),
		CORSOrigin:   getEnv("CORS_ORIGIN", or(file.CORSOrigin, "http://localhost:3000")),
		APIURL:       getEnv("API_URL", or(file.APIURL, "http://localhost:3001/api")),
		SiteURL:      getEnv("SITE_URL", or(file.SiteURL, "http://localhost:3000")),
		SiteTitle:    getEnv("SITE_TITLE", or(file.SiteTitle, "Dev-Blog")),
		FeedRefresh:  getEnv("FEED_REFRESH", or(file.FeedRefresh, "@every 5m")),
		FeedSize:     getEnv("FEED_SIZE", or(file.FeedSize, "20")),
		SMTPHost:     getEnv("SMTP_HOST", file.SMTPHost),
		SMTPPort:     getEnv("SMTP_PORT", or(file.SMTPPort, "587")),
		SMTPUsername: getEnv("SMTP_USERNAME", file.SMTPUsername),
		SMTPPassword: getEnv("SMTP_PASSWORD", file.SMTPPassword),
		SenderEmail:  getEnv("SENDER_EMAIL", or(file.SenderEmail, "noreply@devblog.local")),
		NotifyEmail:  getEnv("NOTIFY_EMAIL", file.NotifyEmail),
	}

	if cfg.Storage != StoragePostgres && cfg.Storage != StorageMemory {
		return nil, fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, cfg.Storage)
	}
	if cfg.Storage == StoragePostgres && cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if _, err := cfg.TokenTTL(); err != nil {
		return nil, err
	}
	if _, err := cfg.PasswordCost(); err != nil {
		return nil, err
	}
	if _, err := cfg.FeedLimit(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// TokenTTL parses JWTExpiresIn
func (c *Config) TokenTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.JWTExpiresIn)
	if err != nil {
		return 0, fmt.Errorf("invalid JWT_EXPIRES_IN %q: %w", c.JWTExpiresIn, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("JWT_EXPIRES_IN must be positive, got %s", d)
	}
	return d, nil
}

// PasswordCost parses BcryptCost
func (c *Config) PasswordCost() (int, error) {
	cost, err := strconv.Atoi(c.BcryptCost)
	if err != nil {
		return 0, fmt.Errorf("invalid BCRYPT_COST %q: %w", c.BcryptCost, err)
	}
	if cost < 4 || cost > 31 {
		return 0, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", cost)
	}
	return cost, nil
}

// FeedLimit parses FeedSize
func (c *Config) FeedLimit() (int, error) {
	n, err := strconv.Atoi(c.FeedSize)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("FEED_SIZE must be a positive integer, got %q", c.FeedSize)
	}
	return n, nil
}

// MailEnabled reports whether owner notifications can be sent
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.NotifyEmail != ""
}

// SecureCookies reports whether the site is served over https
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.SiteURL, "https://")
}

func loadFile(path string, dst *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func or(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
