// Package catalog serves each store's products and keeps tenants isolated
// from one another's listings.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/01moynul/a2z-storefront/internal/apperr"
	"github.com/01moynul/a2z-storefront/internal/feed"
	"github.com/01moynul/a2z-storefront/internal/models"
	"github.com/01moynul/a2z-storefront/internal/repository"
)

// Visible is the catalog scoping rule: a product shows in a store when it
// belongs to that store, or when it predates tenancy and the store is the
// legacy store.
func Visible(p *models.Product, t *models.Tenant, legacySlug string) bool {
	if p == nil || t == nil {
		return false
	}
	if p.IsLegacy() {
		return t.Slug == legacySlug
	}
	return *p.BusinessID == t.ID
}

// ProductInput is the editable part of a product.
type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Weight      string          `json:"weight"`
	ImageURL    string          `json:"imageUrl"`
	Type        string          `json:"type"`
}

type Service struct {
	products   repository.ProductRepository
	hub        *feed.Hub
	logger     *zap.Logger
	legacySlug string
	now        func() time.Time
}

func NewService(products repository.ProductRepository, hub *feed.Hub, logger *zap.Logger, legacySlug string) *Service {
	return &Service{
		products:   products,
		hub:        hub,
		logger:     logger,
		legacySlug: legacySlug,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) isLegacyStore(t *models.Tenant) bool {
	return t.Slug == s.legacySlug
}

// List returns the store's products, newest first.
func (s *Service) List(ctx context.Context, t *models.Tenant) ([]models.Product, error) {
	all, err := s.products.ListByBusiness(ctx, t.ID, s.isLegacyStore(t))
	if err != nil {
		return nil, err
	}
	// The store-side filter is re-checked so a loose query can never leak
	// another tenant's products.
	visible := all[:0]
	for i := range all {
		if Visible(&all[i], t, s.legacySlug) {
			visible = append(visible, all[i])
		}
	}
	return visible, nil
}

// Get returns one product of the store. Products of other stores are
// reported as not found.
func (s *Service) Get(ctx context.Context, t *models.Tenant, id string) (*models.Product, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Visible(p, t, s.legacySlug) {
		return nil, apperr.NotFound("product")
	}
	return p, nil
}

// Watch delivers the store's listing now and again after every change to it.
func (s *Service) Watch(ctx context.Context, t *models.Tenant, fn func([]models.Product)) *feed.Subscription {
	tenant := *t
	legacy := s.isLegacyStore(t)
	match := func(ev feed.Event) bool {
		if ev.Collection != feed.Products {
			return false
		}
		return ev.BusinessID == tenant.ID || (ev.BusinessID == "" && legacy)
	}
	load := func(ctx context.Context) ([]models.Product, error) {
		return s.List(ctx, &tenant)
	}
	return feed.Subscribe(ctx, s.hub, match, load, fn)
}

func validateProduct(p *models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperr.Invalid("name", "product name is required")
	}
	if p.Price.IsNegative() {
		return apperr.Invalid("price", "price cannot be negative")
	}
	if p.Stock < 0 {
		return apperr.Invalid("stock", "stock cannot be negative")
	}
	if p.Type != models.ProductPhysical && p.Type != models.ProductService {
		return apperr.Invalid("type", "type must be physical or service")
	}
	return nil
}

// Add creates a product stamped with the store's id.
func (s *Service) Add(ctx context.Context, t *models.Tenant, in ProductInput) (*models.Product, error) {
	now := s.now()
	businessID := t.ID
	p := &models.Product{
		ID:          uuid.NewString(),
		BusinessID:  &businessID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Stock:       in.Stock,
		Weight:      in.Weight,
		ImageURL:    in.ImageURL,
		Type:        in.Type,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Type == "" {
		p.Type = models.ProductPhysical
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	s.publish(p)
	s.logger.Info("product added", zap.String("tenant_id", t.ID), zap.String("product_id", p.ID))
	return p, nil
}

// owned loads a product and checks it belongs to the store.
func (s *Service) owned(ctx context.Context, t *models.Tenant, id string) (*models.Product, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Visible(p, t, s.legacySlug) {
		return nil, apperr.ErrForbidden
	}
	return p, nil
}

// Update merges patch into a product of the store.
func (s *Service) Update(ctx context.Context, t *models.Tenant, id string, patch models.ProductPatch) (*models.Product, error) {
	p, err := s.owned(ctx, t, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(p)
	p.UpdatedAt = s.now()
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	s.publish(p)
	return p, nil
}

// Delete removes a product of the store.
func (s *Service) Delete(ctx context.Context, t *models.Tenant, id string) error {
	p, err := s.owned(ctx, t, id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(p)
	s.logger.Info("product deleted", zap.String("tenant_id", t.ID), zap.String("product_id", id))
	return nil
}

func (s *Service) publish(p *models.Product) {
	ev := feed.Event{Collection: feed.Products, DocID: p.ID}
	if !p.IsLegacy() {
		ev.BusinessID = *p.BusinessID
	}
	s.hub.Publish(ev)
}
