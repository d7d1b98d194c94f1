// Package tenancy owns the tenant (store) records and resolves the store
// named in a request path to its record.
package tenancy

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/01moynul/a2z-storefront/internal/apperr"
	"github.com/01moynul/a2z-storefront/internal/feed"
	"github.com/01moynul/a2z-storefront/internal/models"
	"github.com/01moynul/a2z-storefront/internal/repository"
	"github.com/01moynul/a2z-storefront/internal/store"
)

const (
	minSlugLength     = 3
	maxSlugLength     = 64
	defaultThemeColor = "#4f46e5"
)

// CreateTenantInput is what a business registration supplies.
type CreateTenantInput struct {
	Name        string
	Slug        string
	Description string
	ThemeColor  string
	OwnerID     string
	OwnerEmail  string
	// Status is honoured only for operator calls; everyone else gets pending.
	Status string
}

// Directory is the registry of tenants.
type Directory struct {
	tenants    repository.TenantRepository
	products   repository.ProductRepository
	cache      store.KV
	hub        *feed.Hub
	logger     *zap.Logger
	legacySlug string
	cacheTTL   time.Duration
	now        func() time.Time
}

func NewDirectory(tenants repository.TenantRepository, products repository.ProductRepository,
	cache store.KV, hub *feed.Hub, logger *zap.Logger, legacySlug string, cacheTTL time.Duration) *Directory {
	return &Directory{
		tenants:    tenants,
		products:   products,
		cache:      cache,
		hub:        hub,
		logger:     logger,
		legacySlug: legacySlug,
		cacheTTL:   cacheTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// LegacySlug is the store that also shows products without a business id.
func (d *Directory) LegacySlug() string { return d.legacySlug }

// NormalizeSlug lowercases and trims s, then checks it is URL-safe: lowercase
// letters, digits and single hyphens, at least three characters.
func NormalizeSlug(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < minSlugLength {
		return "", apperr.Invalid("slug", "store URL must be at least 3 characters")
	}
	if len(s) > maxSlugLength {
		return "", apperr.Invalid("slug", "store URL is too long")
	}
	if !slug.IsSlug(s) || strings.ContainsRune(s, '_') {
		return "", apperr.Invalid("slug", "store URL can only contain lowercase letters, numbers, and hyphens")
	}
	return s, nil
}

// SuggestSlug derives a slug from a store name.
func SuggestSlug(name string) string {
	return slug.Make(name)
}

func (d *Directory) Create(ctx context.Context, in CreateTenantInput, asOperator bool) (*models.Tenant, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Invalid("name", "store name is required")
	}
	if in.OwnerID == "" {
		return nil, apperr.Invalid("ownerId", "owner is required")
	}
	raw := in.Slug
	if strings.TrimSpace(raw) == "" {
		raw = SuggestSlug(name)
	}
	s, err := NormalizeSlug(raw)
	if err != nil {
		return nil, err
	}

	status := models.TenantPending
	if asOperator && in.Status != "" {
		if !models.ValidTenantStatus(in.Status) {
			return nil, apperr.Invalid("status", "unknown store status")
		}
		status = in.Status
	}
	theme := in.ThemeColor
	if theme == "" {
		theme = defaultThemeColor
	}

	now := d.now()
	t := &models.Tenant{
		ID:          uuid.NewString(),
		Slug:        s,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		OwnerID:     in.OwnerID,
		OwnerEmail:  strings.ToLower(strings.TrimSpace(in.OwnerEmail)),
		Status:      status,
		ThemeColor:  theme,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	// The unique key on slug makes this a single conditional create.
	if err := d.tenants.Create(ctx, t); err != nil {
		return nil, err
	}
	d.logger.Info("store created", zap.String("tenant_id", t.ID), zap.String("slug", t.Slug), zap.String("status", t.Status))
	return t, nil
}

// IsSlugTaken is a form pre-check only. Create remains the authority.
func (d *Directory) IsSlugTaken(ctx context.Context, s string) (bool, error) {
	_, err := d.tenants.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(s)))
	if err == nil {
		return true, nil
	}
	if apperr.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

func slugCacheKey(s string) string { return "tenant:slug:" + s }

// changingKey marks a slug whose record is being written. A lookup that
// overlaps the write drops what it cached.
func changingKey(s string) string { return "tenant:changing:" + s }

// FindBySlug looks the store up, reading through the KV cache.
func (d *Directory) FindBySlug(ctx context.Context, s string) (*models.Tenant, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil, apperr.NotFound("store")
	}

	if raw, err := d.cache.Get(ctx, slugCacheKey(s)); err == nil {
		var t models.Tenant
		if json.Unmarshal([]byte(raw), &t) == nil {
			return &t, nil
		}
	} else if !errors.Is(err, store.ErrMiss) {
		d.logger.Warn("tenant cache read failed", zap.String("slug", s), zap.Error(err))
	}

	t, err := d.tenants.GetBySlug(ctx, s)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(t); err == nil {
		if err := d.cache.Set(ctx, slugCacheKey(s), string(b), d.cacheTTL); err != nil {
			d.logger.Warn("tenant cache write failed", zap.String("slug", s), zap.Error(err))
		} else if _, err := d.cache.Get(ctx, changingKey(s)); err == nil {
			d.invalidate(ctx, s)
		}
	}
	return t, nil
}

func (d *Directory) FindByID(ctx context.Context, id string) (*models.Tenant, error) {
	return d.tenants.GetByID(ctx, id)
}

// FindByOwner lists the owner's stores, oldest first. An empty result means
// the seller has yet to create a store.
func (d *Directory) FindByOwner(ctx context.Context, ownerID string) ([]models.Tenant, error) {
	return d.tenants.ListByOwner(ctx, ownerID)
}

func (d *Directory) List(ctx context.Context, search string) ([]models.Tenant, error) {
	return d.tenants.List(ctx, strings.TrimSpace(search))
}

// SetStatus overwrites the status. Any transition is allowed and repeating a
// call is harmless. reason is kept only for rejections.
func (d *Directory) SetStatus(ctx context.Context, id, status, reason string) (*models.Tenant, error) {
	if !models.ValidTenantStatus(status) {
		return nil, apperr.Invalid("status", "unknown store status")
	}
	if status != models.TenantRejected {
		reason = ""
	}
	before, err := d.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d.markChanging(ctx, before.Slug)
	if err := d.tenants.SetStatus(ctx, id, status, strings.TrimSpace(reason), d.now()); err != nil {
		return nil, err
	}
	t, err := d.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d.invalidate(ctx, t.Slug)
	d.logger.Info("store status changed", zap.String("tenant_id", id), zap.String("status", status))
	return t, nil
}

// Delete removes a store with its products and page content. Stores that
// already have orders cannot be deleted.
func (d *Directory) Delete(ctx context.Context, id string) error {
	t, err := d.tenants.GetByID(ctx, id)
	if err != nil {
		return err
	}
	d.markChanging(ctx, t.Slug)
	if err := d.tenants.Delete(ctx, id); err != nil {
		return err
	}
	d.invalidate(ctx, t.Slug)
	d.hub.Publish(feed.Event{Collection: feed.Products, BusinessID: id})
	d.logger.Info("store deleted", zap.String("tenant_id", id), zap.String("slug", t.Slug))
	return nil
}

// markChanging flags s for as long as a stale lookup could still be caching
// the old record.
func (d *Directory) markChanging(ctx context.Context, s string) {
	guard := d.cacheTTL
	if guard <= 0 {
		guard = time.Minute
	}
	if err := d.cache.Set(ctx, changingKey(s), "1", guard); err != nil {
		d.logger.Warn("tenant cache guard failed", zap.String("slug", s), zap.Error(err))
	}
}

func (d *Directory) invalidate(ctx context.Context, s string) {
	if err := d.cache.Del(ctx, slugCacheKey(s)); err != nil {
		d.logger.Warn("tenant cache invalidate failed", zap.String("slug", s), zap.Error(err))
	}
}

type demoProduct struct {
	name, description, category, price, image string
	stock                                     int
}

var demoProducts = []demoProduct{
	{"Premium Wireless Headphones", "High-fidelity audio with noise cancellation.", "Electronics", "299.99",
		"https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=800&q=80", 50},
	{"Ergonomic Office Chair", "Comfortable mesh chair for long work hours.", "Furniture", "199.50",
		"https://images.unsplash.com/photo-1592078615290-033ee584e267?w=800&q=80", 25},
	{"Smart Watch Series 5", "Stay connected and track your fitness goals.", "Wearables", "399.00",
		"https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=800&q=80", 100},
}

// SeedDemo creates the active legacy store owned by the operator and fills it
// with a few generic products. It fails with a conflict if the store exists.
func (d *Directory) SeedDemo(ctx context.Context, operator *models.User) (*models.Tenant, error) {
	t, err := d.Create(ctx, CreateTenantInput{
		Name:        "A2Z Demo Store",
		Slug:        d.legacySlug,
		Description: "Official Platform Demo Store",
		OwnerID:     operator.ID,
		OwnerEmail:  operator.Email,
		Status:      models.TenantActive,
	}, true)
	if err != nil {
		return nil, err
	}

	for _, dp := range demoProducts {
		now := d.now()
		p := &models.Product{
			ID:          uuid.NewString(),
			BusinessID:  &t.ID,
			Name:        dp.name,
			Description: dp.description,
			Category:    dp.category,
			Price:       decimal.RequireFromString(dp.price),
			Stock:       dp.stock,
			ImageURL:    dp.image,
			Type:        models.ProductPhysical,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := d.products.Create(ctx, p); err != nil {
			return nil, err
		}
	}
	d.hub.Publish(feed.Event{Collection: feed.Products, BusinessID: t.ID})
	return t, nil
}
