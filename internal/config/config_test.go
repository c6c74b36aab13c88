package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8081", cfg.UsersURL)
	assert.Equal(t, "http://localhost:8083", cfg.OrdersURL)
	assert.Equal(t, []string{"http://localhost:8081", "http://localhost:8084"}, cfg.OrdersFallbackURLs)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2, cfg.ReadRetries)
	assert.Equal(t, "sqlite", cfg.SessionStore)
	assert.False(t, cfg.CompletionRequiresPayment)
	assert.Equal(t, "10.0", cfg.DevMinimumCharge)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ORDERS_URL", "http://orders.internal:9000")
	t.Setenv("ORDERS_FALLBACK_URLS", " http://a:1 , ,http://b:2 ")
	t.Setenv("REQUEST_TIMEOUT", "750ms")
	t.Setenv("COMPLETION_REQUIRES_PAYMENT", "true")
	t.Setenv("SESSION_STORE", "Memory")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://orders.internal:9000", cfg.OrdersURL)
	assert.Equal(t, []string{"http://a:1", "http://b:2"}, cfg.OrdersFallbackURLs)
	assert.Equal(t, 750*time.Millisecond, cfg.RequestTimeout)
	assert.True(t, cfg.CompletionRequiresPayment)
	assert.Equal(t, "memory", cfg.SessionStore)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "homemade.yaml")
	require.NoError(t, os.WriteFile(path, []byte("DISHES_URL: http://dishes:8082\nREAD_RETRIES: 0\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://dishes:8082", cfg.DishesURL)
	assert.Equal(t, 0, cfg.ReadRetries)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"USERS_URL":       "not a url",
		"REQUEST_TIMEOUT": "0s",
		"SESSION_STORE":   "etcd",
	}
	for k, v := range tests {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
