package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LEGACY_STORE_SLUG", "")
	t.Setenv("JWT_TTL_HOURS", "")
	t.Setenv("DB_ENABLED", "")

	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "demo", cfg.Store.LegacySlug)
	assert.Equal(t, 72*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.DBEnabled)
	assert.False(t, cfg.EmailJS.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LEGACY_STORE_SLUG", "a2z")
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("PLATFORM_ADMIN_EMAILS", " ops@a2z.com, owner@a2z.com ,")
	t.Setenv("SHIPPING_FEE", "100")
	t.Setenv("EMAILJS_SERVICE_ID", "service_x")
	t.Setenv("EMAILJS_PUBLIC_KEY", "pk")

	cfg := Load()

	assert.Equal(t, "a2z", cfg.Store.LegacySlug)
	assert.False(t, cfg.DBEnabled)
	assert.Equal(t, []string{"ops@a2z.com", "owner@a2z.com"}, cfg.Auth.PlatformAdminEmails)
	assert.Equal(t, int64(100), cfg.Store.ShippingFee)
	assert.True(t, cfg.EmailJS.Enabled())
}

func TestLoad_ClampsNonPositiveDurations(t *testing.T) {
	t.Setenv("ORDER_EXPIRY_INTERVAL_MINUTES", "0")
	t.Setenv("TENANT_CACHE_TTL_SECONDS", "-5")
	t.Setenv("CART_TTL_DAYS", "-1")

	cfg := Load()

	assert.Equal(t, time.Minute, cfg.Store.ExpiryInterval)
	assert.Equal(t, time.Duration(0), cfg.Store.TenantCacheTTL)
	assert.Equal(t, time.Duration(0), cfg.Store.CartTTL)

	t.Setenv("ORDER_EXPIRY_INTERVAL_MINUTES", "-3")
	assert.Equal(t, time.Minute, Load().Store.ExpiryInterval)
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, 5, parseInt("x", 5))
	assert.True(t, parseBool("maybe", true))
	assert.Nil(t, parseList(" , "))
}
