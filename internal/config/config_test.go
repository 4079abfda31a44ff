package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "REQ", cfg.Requisition.OrderPrefix)
	assert.Equal(t, "PROP", cfg.Requisition.PropertyCodeFallback)
	assert.Equal(t, 10*time.Second, cfg.Requisition.IdempotencyWindow)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "/tmp/facilityops-test.db")
	t.Setenv("PORT", "9090")
	t.Setenv("REQUISITION_TIMEZONE", "Asia/Kolkata")
	t.Setenv("REQUISITION_IDEMPOTENCY_WINDOW", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/facilityops-test.db", cfg.Database.Path)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Requisition.IdempotencyWindow)

	loc, err := cfg.Requisition.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := []byte("database:\n  driver: sqlite\nrequisition:\n  order_prefix: FAC\n")
	require.NoError(t, os.WriteFile(path, yaml, 0o600))

	t.Setenv("APP_ENV", "test")
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "FAC", cfg.Requisition.OrderPrefix)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"DB_DRIVER": "mysql"}},
		{name: "production without secret", env: map[string]string{"APP_ENV": "production", "JWT_SECRET": ""}},
		{name: "bad timezone", env: map[string]string{"REQUISITION_TIMEZONE": "Mars/Olympus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", "test")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", User: "app", Password: "secret", Name: "ops", Port: "5432", SSLMode: "disable"}
	assert.Equal(t, "host=db user=app password=secret dbname=ops port=5432 sslmode=disable TimeZone=UTC", d.DSN())
}
