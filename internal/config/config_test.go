package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SERVER_PORT", "DB_DRIVER", "DB_DSN", "JWT_SECRET", "TOKEN_TTL", "SESSION_SECRET",
		"FRONTEND_URL", "MAIL_DRIVER", "MAIL_FROM", "AWS_REGION", "AWS_ACCESS_KEY_ID",
		"AWS_SECRET_ACCESS_KEY", "AWS_SESSION_TOKEN", "LOG_LEVEL", "LOG_DEV", "LOG_FILE",
		"ADMIN_EMAIL", "ADMIN_PASSWORD", "CONFIG_FILE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "postgres://localhost/managemint")
	t.Setenv("JWT_SECRET", "s3cr3t")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("LOG_DEV", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "s3cr3t", cfg.SessionSecret, "session secret falls back to the jwt secret")
	assert.Equal(t, "log", cfg.Mail.Driver)
	assert.Equal(t, "http://localhost:3000", cfg.FrontendURL)
	assert.True(t, cfg.Log.Dev)
}

func TestLoadDefaultsTokenTTL(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "x")
	t.Setenv("JWT_SECRET", "y")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
}

func TestLoadYAMLOverlay(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "from-env")
	t.Setenv("JWT_SECRET", "env-secret")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server_port: "9090"
database:
  driver: sqlite
  dsn: file:managemint.db
token_ttl: 30m
mail:
  driver: log
  from: ops@agency.test
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file:managemint.db", cfg.Database.DSN)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "ops@agency.test", cfg.Mail.From)
	assert.Equal(t, "env-secret", cfg.JWTSecret, "keys absent from the file keep env values")
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{name: "MissingDSN", env: map[string]string{"JWT_SECRET": "x"}},
		{name: "MissingSecret", env: map[string]string{"DB_DSN": "x"}},
		{name: "BadDriver", env: map[string]string{"DB_DSN": "x", "JWT_SECRET": "x", "DB_DRIVER": "mysql"}},
		{name: "BadTTL", env: map[string]string{"DB_DSN": "x", "JWT_SECRET": "x", "TOKEN_TTL": "soon"}},
		{name: "BadPort", env: map[string]string{"DB_DSN": "x", "JWT_SECRET": "x", "SERVER_PORT": "http"}},
		{name: "SESHalfKeys", env: map[string]string{"DB_DSN": "x", "JWT_SECRET": "x", "MAIL_DRIVER": "ses", "AWS_ACCESS_KEY_ID": "AKIA"}},
		{name: "MissingFile", env: map[string]string{"DB_DSN": "x", "JWT_SECRET": "x", "CONFIG_FILE": "/nonexistent/config.yaml"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadSESDefaultCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "x")
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("MAIL_DRIVER", "ses")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ses", cfg.Mail.Driver)
	assert.Empty(t, cfg.Mail.AWSAccessKey)
}
