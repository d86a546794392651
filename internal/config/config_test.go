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

	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
	assert.Equal(t, "10-M", cfg.RateLimit.Login)
	assert.Equal(t, 5, cfg.Inventory.LowStockThreshold)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("POS_APP_PORT", "8080")
	t.Setenv("POS_DATABASE_URL", "postgres://pos:pos@db:5432/pos")
	t.Setenv("POS_REDIS_ENABLED", "true")
	t.Setenv("POS_IDEMPOTENCY_TTL", "10m")
	t.Setenv("POS_INVENTORY_LOW_STOCK_THRESHOLD", "12")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "postgres://pos:pos@db:5432/pos", cfg.Database.DSN())
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Idempotency.TTL)
	assert.Equal(t, 12, cfg.Inventory.LowStockThreshold)
}

func TestValidate(t *testing.T) {
	t.Run("production requires a real jwt secret", func(t *testing.T) {
		t.Setenv("POS_APP_ENV", "production")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("production requires a real admin password", func(t *testing.T) {
		t.Setenv("POS_APP_ENV", "production")
		t.Setenv("POS_JWT_SECRET", "s3cr3t-from-vault")

		_, err := Load()
		assert.ErrorContains(t, err, "POS_ADMIN_PASSWORD")

		t.Setenv("POS_ADMIN_PASSWORD", "uma-senha-forte")
		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
	})

	t.Run("negative low stock threshold", func(t *testing.T) {
		t.Setenv("POS_INVENTORY_LOW_STOCK_THRESHOLD", "-1")

		_, err := Load()
		assert.Error(t, err)
	})
}
