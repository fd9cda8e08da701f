package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"SERVICE_NAME", "ENV", "LOG_LEVEL", "HTTP_ADDR", "PUBLIC_BASE_URL", "CART_STORE",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "CART_KEY_PREFIX", "CART_TTL",
	"PRODUCTS_FILE", "CHECKOUT_MIN_ITEMS", "PRODUCT_LIST_CAP", "SHUTDOWN_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, "cartmanager", cfg.ServiceName)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StoreRedis, cfg.CartStore)
	assert.Equal(t, "cart", cfg.CartKeyPrefix)
	assert.Zero(t, cfg.CartTTL)
	assert.Equal(t, 5, cfg.CheckoutMinItems)
	assert.Equal(t, 30, cfg.ProductListCap)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	for _, k := range keys {
		require.NoError(t, os.Unsetenv(k))
	}

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(
		"CART_STORE=memory\nCART_TTL=30m\nPUBLIC_BASE_URL=https://shop.example/\nREDIS_DB=2\n",
	), 0o644))
	t.Cleanup(func() {
		for _, k := range keys {
			_ = os.Unsetenv(k)
		}
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.CartStore)
	assert.Equal(t, 30*time.Minute, cfg.CartTTL)
	assert.Equal(t, "https://shop.example", cfg.PublicBaseURL)
	assert.Equal(t, 2, cfg.RedisDB)
}

func TestLoadReportsInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_DB", "zero")
	t.Setenv("CART_TTL", "soon")
	t.Setenv("CART_STORE", "postgres")

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_DB")
	assert.Contains(t, err.Error(), "CART_TTL")
	assert.Contains(t, err.Error(), "CART_STORE")
}

func TestLoadRejectsNegativeLimits(t *testing.T) {
	clearEnv(t)
	t.Setenv("PRODUCT_LIST_CAP", "-1")
	t.Setenv("CHECKOUT_MIN_ITEMS", "-5")

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PRODUCT_LIST_CAP")
	assert.Contains(t, err.Error(), "CHECKOUT_MIN_ITEMS")
}
