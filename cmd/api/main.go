package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/01moynul/a2z-storefront/internal/ai"
	"github.com/01moynul/a2z-storefront/internal/auth"
	"github.com/01moynul/a2z-storefront/internal/cart"
	"github.com/01moynul/a2z-storefront/internal/catalog"
	"github.com/01moynul/a2z-storefront/internal/checkout"
	"github.com/01moynul/a2z-storefront/internal/config"
	"github.com/01moynul/a2z-storefront/internal/content"
	"github.com/01moynul/a2z-storefront/internal/database"
	"github.com/01moynul/a2z-storefront/internal/email"
	"github.com/01moynul/a2z-storefront/internal/feed"
	"github.com/01moynul/a2z-storefront/internal/handlers"
	"github.com/01moynul/a2z-storefront/internal/identity"
	"github.com/01moynul/a2z-storefront/internal/ledger"
	"github.com/01moynul/a2z-storefront/internal/logger"
	"github.com/01moynul/a2z-storefront/internal/repository"
	"github.com/01moynul/a2z-storefront/internal/routes"
	"github.com/01moynul/a2z-storefront/internal/sheets"
	"github.com/01moynul/a2z-storefront/internal/store"
	"github.com/01moynul/a2z-storefront/internal/tenancy"
	"github.com/01moynul/a2z-storefront/internal/uploads"
)

type repos struct {
	tenants  repository.TenantRepository
	products repository.ProductRepository
	orders   repository.OrderRepository
	content  repository.ContentRepository
	users    repository.UserRepository
}

func main() {
	// 0. --- Load configuration (.env + environment) ---
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "a2z-storefront")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. --- Database (or in-memory repositories) ---
	var db *sql.DB
	var r repos
	if cfg.DBEnabled {
		db, err = database.OpenDB(cfg.DB.DSN, log)
		if err != nil {
			log.Fatal("failed to connect to primary database", zap.Error(err))
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal("failed to migrate database", zap.Error(err))
		}
		r = repos{
			tenants:  repository.NewMySQLTenantRepository(db),
			products: repository.NewMySQLProductRepository(db),
			orders:   repository.NewMySQLOrderRepository(db),
			content:  repository.NewMySQLContentRepository(db),
			users:    repository.NewMySQLUserRepository(db),
		}
	} else {
		log.Warn("DB disabled, using in-memory repositories")
		mem := repository.NewMemory()
		r = repos{mem.Tenants(), mem.Products(), mem.Orders(), mem.Content(), mem.Users()}
	}

	// 2. --- KV store (carts, codes, revocations, store cache) ---
	var kv store.KV
	if cfg.RedisEnabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		kv = store.NewRedisKV(redisClient)
	} else {
		log.Warn("Redis disabled, using in-memory KV")
		kv = store.NewMemoryKV()
	}

	// 3. --- Outbound integrations ---
	var sender email.Sender = email.NoopSender{Logger: log}
	if cfg.EmailJS.Enabled() {
		sender = email.NewEmailJS(cfg.EmailJS)
	} else {
		log.Warn("EmailJS not configured, emails are dropped")
	}
	mailer := email.NewMailer(sender, cfg.EmailJS)
	sheetsLogger := sheets.New(cfg.Sheets.WebAppURL, log)

	var files uploads.Store = uploads.NewLocal(cfg.Uploads.Dir, cfg.Uploads.BaseURL)
	localUploadDir := cfg.Uploads.Dir
	if cfg.Uploads.S3Bucket != "" {
		s3Store, err := uploads.NewS3(ctx, cfg.Uploads.S3Bucket)
		if err != nil {
			log.Fatal("failed to configure S3 uploads", zap.Error(err))
		}
		files = s3Store
		localUploadDir = ""
	}

	var drafter ai.Drafter
	if cfg.Gemini.APIKey != "" {
		aiService, err := ai.NewService(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, log)
		if err != nil {
			log.Fatal("failed to initialize AI service", zap.Error(err))
		}
		defer aiService.Close()
		drafter = aiService
	} else {
		log.Info("GEMINI_API_KEY not set, AI drafting disabled")
	}

	// 4. --- Domain services ---
	hub := feed.NewHub(log)
	directory := tenancy.NewDirectory(r.tenants, r.products, kv, hub, log, cfg.Store.LegacySlug, cfg.Store.TenantCacheTTL)
	catalogSvc := catalog.NewService(r.products, hub, log, cfg.Store.LegacySlug)
	ledgerSvc := ledger.NewService(r.orders, hub, log)
	contentSvc := content.NewService(r.content, log)
	carts := cart.NewService(kv, cfg.Store.CartTTL)
	tokens := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	identitySvc := identity.NewService(r.users, tokens, kv, mailer, sheetsLogger, log, cfg.Auth.PlatformAdminEmails)
	checkoutSvc := checkout.NewService(carts, ledgerSvc, mailer, sheetsLogger, log,
		decimal.NewFromInt(cfg.Store.ShippingFee), cfg.Store.WhatsAppNumber)

	// The allowlist only seeds roles; requests check the stored role.
	if n, err := identitySvc.SeedAdmins(ctx); err != nil {
		log.Error("admin seed failed", zap.Error(err))
	} else if n > 0 {
		log.Info("admin roles seeded", zap.Int("promoted", n))
	}

	identitySvc.OnIdentityChanged(func(ch identity.Change) {
		log.Info("identity changed", zap.String("kind", ch.Kind), zap.String("user_id", ch.UserID))
	})

	app := &handlers.Handlers{
		Directory: directory,
		Catalog:   catalogSvc,
		Ledger:    ledgerSvc,
		Content:   contentSvc,
		Identity:  identitySvc,
		Carts:     carts,
		Checkouts: checkoutSvc,
		Sheets:    sheetsLogger,
		Uploads:   files,
		Drafter:   drafter,
		Logger:    log,
	}

	// 5. --- Background Workers ---
	// Online orders have no gateway behind them; unpaid ones are cancelled
	// after the configured TTL.
	go func() {
		ticker := time.NewTicker(cfg.Store.ExpiryInterval)
		defer ticker.Stop()

		log.Info("background worker started: monitoring unpaid online orders")
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := ledgerSvc.ExpireStaleOnline(ctx, cfg.Store.OnlineOrderTTL)
				if err != nil {
					log.Error("order expiry failed", zap.Error(err))
					continue
				}
				if n > 0 {
					log.Info("expired unpaid online orders", zap.Int("count", n))
				}
			}
		}
	}()

	// --- Router Setup ---
	router := routes.SetupRouter(app, cfg.HTTP.CORSOrigins, localUploadDir)
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- Start Server ---
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting A2Z storefront API", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server failed", zap.Error(err))
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	sheetsLogger.Wait()
}
