package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerPort    string         `yaml:"server_port"`
	Database      DatabaseConfig `yaml:"database"`
	JWTSecret     string         `yaml:"jwt_secret"`
	TokenTTL      time.Duration  `yaml:"token_ttl"`
	SessionSecret string         `yaml:"session_secret"`
	FrontendURL   string         `yaml:"frontend_url"`
	Mail          MailConfig     `yaml:"mail"`
	Log           LogConfig      `yaml:"log"`

	// bootstrap admin, created on first start when no admin exists
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // postgres | sqlite
	DSN    string `yaml:"dsn"`
}

type MailConfig struct {
	Driver          string `yaml:"driver"` // log | ses
	From            string `yaml:"from"`
	AWSRegion       string `yaml:"aws_region"`
	AWSAccessKey    string `yaml:"aws_access_key_id"`
	AWSSecretKey    string `yaml:"aws_secret_access_key"`
	AWSSessionToken string `yaml:"aws_session_token"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Dev   bool   `yaml:"dev"`
	File  string `yaml:"file"`
}

// Load reads .env (if present), the environment, and then the YAML file named
// by CONFIG_FILE, in that order of precedence from lowest to highest.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "postgres"),
			DSN:    os.Getenv("DB_DSN"),
		},
		JWTSecret:     os.Getenv("JWT_SECRET"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:3000"),
		Mail: MailConfig{
			Driver:          getEnv("MAIL_DRIVER", "log"),
			From:            getEnv("MAIL_FROM", "no-reply@managemint.local"),
			AWSRegion:       getEnv("AWS_REGION", "eu-central-1"),
			AWSAccessKey:    os.Getenv("AWS_ACCESS_KEY_ID"),
			AWSSecretKey:    os.Getenv("AWS_SECRET_ACCESS_KEY"),
			AWSSessionToken: os.Getenv("AWS_SESSION_TOKEN"),
		},
		Log: LogConfig{
			Level: os.Getenv("LOG_LEVEL"),
			Dev:   os.Getenv("LOG_DEV") == "1",
			File:  os.Getenv("LOG_FILE"),
		},
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@managemint.local"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	ttl, err := parseDurationAllowEmpty(os.Getenv("TOKEN_TTL"))
	if err != nil {
		return nil, fmt.Errorf("config: TOKEN_TTL: %w", err)
	}
	cfg.TokenTTL = ttl

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlay(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overlay(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("config: parse yaml: %w", err)
	}
	return nil
}

func (c *Config) validateAndNormalize() error {
	if c.Database.DSN == "" {
		return errors.New("config: DB_DSN is not set")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is not set")
	}
	if c.SessionSecret == "" {
		c.SessionSecret = c.JWTSecret
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = 24 * time.Hour
	}
	if c.ServerPort == "" {
		c.ServerPort = "8080"
	}
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("config: invalid server port %q", c.ServerPort)
	}
	switch c.Mail.Driver {
	case "log":
	case "ses":
		if (c.Mail.AWSAccessKey == "") != (c.Mail.AWSSecretKey == "") {
			return errors.New("config: AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together")
		}
	default:
		return fmt.Errorf("config: unsupported mail driver %q", c.Mail.Driver)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	return time.ParseDuration(raw)
}
