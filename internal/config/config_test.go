package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/linemk/shop-checkout/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustLoadByPath(t *testing.T) {
	// обязательные значения приходят только из окружения
	os.Setenv("DB_PASSWORD", "secret")
	os.Setenv("JWT_SECRET", "testsecret")
	defer os.Unsetenv("DB_PASSWORD")
	defer os.Unsetenv("JWT_SECRET")

	content := `
env: test
http_server:
  address: "localhost:9090"
  timeout: 5s
  idle_timeout: 30s
database:
  host: "localhost"
  port: 5432
  user: "shop"
  name: "shop_checkout"
jwt:
  token_ttl: 120
checkout:
  tax_rate: 0.2
  shipping_cost: 10.5
migrations:
  path: "./migrations"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := config.MustLoadByPath(path)

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "localhost:9090", cfg.HTTPServer.Address)
	assert.Equal(t, 5*time.Second, cfg.HTTPServer.Timeout)
	assert.Equal(t, "shop_checkout", cfg.Database.Name)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, 120, cfg.JWT.TokenTTL)
	assert.Equal(t, 0.2, cfg.Checkout.TaxRate)
	assert.Equal(t, 10.5, cfg.Checkout.ShippingCost)
	assert.Equal(t, "./migrations", cfg.Migrations.Path)
}

// Без явных значений параметры оформления равны нулю: налог и доставка не начисляются
func TestMustLoadByPath_CheckoutDefaults(t *testing.T) {
	os.Setenv("DB_PASSWORD", "secret")
	os.Setenv("JWT_SECRET", "testsecret")
	defer os.Unsetenv("DB_PASSWORD")
	defer os.Unsetenv("JWT_SECRET")

	content := `
env: test
database:
  user: "shop"
  name: "shop_checkout"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := config.MustLoadByPath(path)

	assert.Equal(t, 0.0, cfg.Checkout.TaxRate)
	assert.Equal(t, 0.0, cfg.Checkout.ShippingCost)
	assert.Equal(t, "localhost:8080", cfg.HTTPServer.Address)
}

func TestMustLoadByPath_FileNotFound(t *testing.T) {
	assert.Panics(t, func() {
		config.MustLoadByPath("/nonexistent/config.yaml")
	})
}
