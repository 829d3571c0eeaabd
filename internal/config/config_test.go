package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("auth:\n  jwt_secret: s3cret\n"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "mock", cfg.Payment.Provider)
	assert.Equal(t, "USD", cfg.Payment.Currency)
	assert.Equal(t, 10*time.Minute, cfg.Payment.Timeout)
	assert.Equal(t, 10.0, cfg.RateLimit.RPS)
	assert.Equal(t, 20, cfg.RateLimit.Burst)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_JWT_SECRET", "from-env")
	t.Setenv("TEST_DB_HOST", "db.internal")

	cfg, err := Parse([]byte(`
auth:
  jwt_secret: ${TEST_JWT_SECRET}
database:
  driver: memory
  postgres:
    host: ${TEST_DB_HOST}
    password: p@ss
payment:
  timeout: 15m
  timeout_poll_interval: 2s
`))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
	assert.Equal(t, 15*time.Minute, cfg.Payment.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Payment.TimeoutPollInterval)
	assert.Equal(t, "postgres://postgres:p@ss@db.internal:5432/hotel_booking?sslmode=disable", cfg.Database.Postgres.DSN())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing jwt secret", "payment:\n  provider: mock\n"},
		{"unknown driver", "auth:\n  jwt_secret: s\ndatabase:\n  driver: sqlite\n"},
		{"unknown provider", "auth:\n  jwt_secret: s\npayment:\n  provider: paypal\n"},
		{"stripe without key", "auth:\n  jwt_secret: s\npayment:\n  provider: stripe\n"},
		{"bad currency", "auth:\n  jwt_secret: s\npayment:\n  currency: DOLLAR\n"},
		{"malformed yaml", "auth: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_FromConfigPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  jwt_secret: file-secret\n"), 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "file-secret", cfg.Auth.JWTSecret)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
