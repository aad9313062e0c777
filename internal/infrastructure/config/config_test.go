package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "waterworks-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "waterworks", cfg.Database.DBName)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)

	assert.InDelta(t, 0.10, cfg.Billing.VATRate, 1e-9)
	assert.Equal(t, 15, cfg.Billing.DueDays)
	assert.Equal(t, int64(35000), cfg.Billing.LateFeeAmount)
	assert.Equal(t, 5, cfg.Billing.ReminderDays)
	assert.Equal(t, 10, cfg.Billing.ContractExpiry)
	assert.InDelta(t, 1.5, cfg.Billing.LeakThreshold, 1e-9)
	assert.Equal(t, 168*time.Hour, cfg.Billing.WebhookIdemTTL)

	assert.Equal(t, 2, cfg.Scheduler.DailyHour)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.CollectorEndpoint)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("WCP_DATABASE_HOST", "db.internal")
	t.Setenv("WCP_BILLING_REMINDER_DAYS", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 7, cfg.Billing.ReminderDays)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("idle conns above open conns", func(t *testing.T) {
		cfg := base()
		cfg.Database.MaxIdleConns = 50
		assert.Error(t, cfg.validate())
	})

	t.Run("vat rate out of range", func(t *testing.T) {
		cfg := base()
		cfg.Billing.VATRate = 1.2
		assert.Error(t, cfg.validate())
	})

	t.Run("leak threshold must exceed one", func(t *testing.T) {
		cfg := base()
		cfg.Billing.LeakThreshold = 0.8
		assert.Error(t, cfg.validate())
	})

	t.Run("daily hour bounds", func(t *testing.T) {
		cfg := base()
		cfg.Scheduler.DailyHour = 24
		assert.Error(t, cfg.validate())
	})

	t.Run("production requires webhook secret", func(t *testing.T) {
		cfg := base()
		cfg.App.Env = "production"
		cfg.Database.Password = "secret"
		cfg.Database.SSLMode = "require"
		assert.Error(t, cfg.validate())

		cfg.Webhook.Secret = "token"
		assert.NoError(t, cfg.validate())
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "p@ss/word",
		DBName:   "waterworks",
		SSLMode:  "disable",
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "sslmode=disable")
	assert.Contains(t, dsn, "waterworks")
	assert.NotContains(t, dsn, "p@ss/word") // escaped
}
