package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the storefront API.
type Config struct {
	HTTP struct {
		Addr        string
		CORSOrigins []string
	}
	DBEnabled bool
	DB        struct {
		DSN string
	}
	RedisEnabled bool
	Redis        struct {
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	Auth struct {
		JWTSecret string
		TokenTTL  time.Duration
		// PlatformAdminEmails is the legacy allowlist. It only seeds the admin
		// role into profile records; request-time checks read the role.
		PlatformAdminEmails []string
	}
	Store struct {
		LegacySlug     string
		ShippingFee    int64
		WhatsAppNumber string
		OnlineOrderTTL time.Duration
		ExpiryInterval time.Duration
		TenantCacheTTL time.Duration
		CartTTL        time.Duration
	}
	EmailJS EmailJSConfig
	Sheets  struct {
		WebAppURL string
	}
	Uploads struct {
		Dir      string
		BaseURL  string
		S3Bucket string
	}
	Gemini struct {
		APIKey string
		Model  string
	}
}

// EmailJSConfig configures the transactional email sender.
type EmailJSConfig struct {
	Endpoint             string
	ServiceID            string
	PublicKey            string
	PrivateKey           string
	OrderTemplateID      string
	VerificationTemplate string
	ResetTemplateID      string
	BusinessEmail        string
}

// Enabled reports whether enough settings are present to send mail.
func (c EmailJSConfig) Enabled() bool {
	return c.ServiceID != "" && c.PublicKey != ""
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.HTTP.CORSOrigins = parseList(getEnv("CORS_ORIGINS", "http://localhost:5173"))

	// Without a database the API runs on in-memory repositories.
	cfg.DBEnabled = parseBool(getEnv("DB_ENABLED", "true"), true)
	cfg.DB.DSN = getEnv("DB_DSN_PRIMARY", "root:root@tcp(127.0.0.1:3306)/a2z?parseTime=true")

	cfg.RedisEnabled = parseBool(getEnv("REDIS_ENABLED", "true"), true)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", "A_VERY_SECURE_SECRET_KEY_REPLACE_LATER")
	cfg.Auth.TokenTTL = time.Duration(parseInt(getEnv("JWT_TTL_HOURS", "72"), 72)) * time.Hour
	cfg.Auth.PlatformAdminEmails = parseList(getEnv("PLATFORM_ADMIN_EMAILS", ""))

	cfg.Store.LegacySlug = getEnv("LEGACY_STORE_SLUG", "demo")
	cfg.Store.ShippingFee = int64(parseInt(getEnv("SHIPPING_FEE", "0"), 0))
	cfg.Store.WhatsAppNumber = getEnv("WHATSAPP_NUMBER", "16027565160")
	cfg.Store.OnlineOrderTTL = time.Duration(parseInt(getEnv("PENDING_ONLINE_ORDER_TTL_MINUTES", "60"), 60)) * time.Minute
	cfg.Store.ExpiryInterval = time.Duration(parseInt(getEnv("ORDER_EXPIRY_INTERVAL_MINUTES", "10"), 10)) * time.Minute
	cfg.Store.TenantCacheTTL = time.Duration(parseInt(getEnv("TENANT_CACHE_TTL_SECONDS", "30"), 30)) * time.Second
	cfg.Store.CartTTL = time.Duration(parseInt(getEnv("CART_TTL_DAYS", "30"), 30)) * 24 * time.Hour
	// A ticker needs a positive period.
	cfg.Store.ExpiryInterval = atLeast(cfg.Store.ExpiryInterval, time.Minute)
	cfg.Store.TenantCacheTTL = atLeast(cfg.Store.TenantCacheTTL, 0)
	cfg.Store.CartTTL = atLeast(cfg.Store.CartTTL, 0)

	cfg.EmailJS.Endpoint = getEnv("EMAILJS_ENDPOINT", "https://api.emailjs.com/api/v1.0/email/send")
	cfg.EmailJS.ServiceID = getEnv("EMAILJS_SERVICE_ID", "")
	cfg.EmailJS.PublicKey = getEnv("EMAILJS_PUBLIC_KEY", "")
	cfg.EmailJS.PrivateKey = getEnv("EMAILJS_PRIVATE_KEY", "")
	cfg.EmailJS.OrderTemplateID = getEnv("EMAILJS_ORDER_TEMPLATE_ID", "")
	cfg.EmailJS.VerificationTemplate = getEnv("EMAILJS_VERIFICATION_TEMPLATE_ID", "")
	cfg.EmailJS.ResetTemplateID = getEnv("EMAILJS_RESET_TEMPLATE_ID", "")
	cfg.EmailJS.BusinessEmail = getEnv("EMAILJS_BUSINESS_EMAIL", "")

	cfg.Sheets.WebAppURL = getEnv("SHEETS_WEB_APP_URL", "")

	cfg.Uploads.Dir = getEnv("UPLOAD_DIR", "./uploads")
	cfg.Uploads.BaseURL = getEnv("BASE_URL", "http://localhost:8080")
	cfg.Uploads.S3Bucket = getEnv("S3_BUCKET", "")

	cfg.Gemini.APIKey = getEnv("GEMINI_API_KEY", "")
	cfg.Gemini.Model = getEnv("GEMINI_MODEL", "gemini-1.5-flash")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseBool(s string, def bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atLeast(d, floor time.Duration) time.Duration {
	if d < floor {
		return floor
	}
	return d
}
