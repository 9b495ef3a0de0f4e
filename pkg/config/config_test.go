package config_test

import (
	"testing"
	"time"

	"github.com/jhoicas/timeledger-api/pkg/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", "memory")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, config.DriverMemory, cfg.DB.Driver)
	assert.Equal(t, 5*time.Second, cfg.DB.LockTimeout)
	assert.Equal(t, 30, cfg.Billing.DueDays)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_LeeEntorno(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_SQLITE_PATH", "/tmp/ledger.db")
	t.Setenv("DB_LOCK_TIMEOUT", "2s")
	t.Setenv("BILLING_HOURLY_RATE", "180.50")
	t.Setenv("BILLING_DUE_DAYS", "45")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "/tmp/ledger.db", cfg.DB.SQLitePath)
	assert.Equal(t, 2*time.Second, cfg.DB.LockTimeout)
	assert.Equal(t, 9090, cfg.HTTP.Port)

	policy, err := cfg.Billing.Policy()
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("180.50").Equal(policy.DefaultHourlyRate))
	assert.Equal(t, 45, policy.DueDays)
}

func TestLoad_RechazaTarifaNoPositiva(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("BILLING_HOURLY_RATE", "-1")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_RechazaDriverDesconocido(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", "oracle")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSN_EscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "ledger", Password: "p@ss:word", DBName: "timeledger", SSLMode: "disable"}
	assert.Equal(t, "postgres://ledger:p%40ss%3Aword@db:5432/timeledger?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x/y"
	assert.Equal(t, "postgres://x/y", c.ConnectionString())
}
