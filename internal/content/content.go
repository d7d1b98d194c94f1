// Package content stores the editable text of each store's pages. The empty
// business id addresses the global record used by the legacy store.
package content

import (
	"context"
	"maps"
	"strings"

	"go.uber.org/zap"

	"github.com/01moynul/a2z-storefront/internal/apperr"
	"github.com/01moynul/a2z-storefront/internal/models"
	"github.com/01moynul/a2z-storefront/internal/repository"
)

const maxFieldKey = 64

var defaults = map[string]models.PageContent{
	models.PageHome: {
		"heroTitle":       "Welcome to",
		"heroSubtitle":    "Our Store",
		"heroDescription": "Discover our premium collection of products. Quality and satisfaction guaranteed.",
		"heroButtonText":  "Shop Now",
		"announcement":    "Free shipping on orders over ₹500!",
	},
	models.PageAbout: {
		"title":       "About Us",
		"mainHeading": "Your Trusted Partner",
		"description": "We are dedicated to providing the best products and services to our customers. Our commitment to quality and excellence makes us the preferred choice for all your needs.",
	},
	models.PageContact: {
		"title":    "Contact Us",
		"subtitle": "We'd love to hear from you. Reach out to us for any questions or support.",
		"phone":    "+1 (555) 123-4567",
		"email":    "support@a2z.com",
	},
}

// Defaults returns a copy of the built-in text of a page.
func Defaults(pageID string) models.PageContent {
	out := models.PageContent{}
	maps.Copy(out, defaults[pageID])
	return out
}

type Service struct {
	repo   repository.ContentRepository
	logger *zap.Logger
}

func NewService(repo repository.ContentRepository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func checkPage(pageID string) error {
	if !models.ValidPage(pageID) {
		return apperr.Invalid("page", "unknown page "+pageID)
	}
	return nil
}

// Get returns what has been saved for the page, or an empty map.
func (s *Service) Get(ctx context.Context, pageID, businessID string) (models.PageContent, error) {
	if err := checkPage(pageID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, businessID, pageID)
}

// Resolved overlays the saved fields on the page defaults.
func (s *Service) Resolved(ctx context.Context, pageID, businessID string) (models.PageContent, error) {
	stored, err := s.Get(ctx, pageID, businessID)
	if err != nil {
		return nil, err
	}
	out := Defaults(pageID)
	maps.Copy(out, stored)
	return out, nil
}

// Update merges fields into the page. Fields that are not named keep their
// saved value. It returns the page as stored afterwards.
func (s *Service) Update(ctx context.Context, pageID string, fields models.PageContent, businessID string) (models.PageContent, error) {
	if err := checkPage(pageID); err != nil {
		return nil, err
	}
	for key := range fields {
		if strings.TrimSpace(key) == "" || len(key) > maxFieldKey {
			return nil, apperr.Invalid("fields", "invalid field name")
		}
	}
	if err := s.repo.Upsert(ctx, businessID, pageID, fields); err != nil {
		return nil, err
	}
	s.logger.Info("page content updated",
		zap.String("tenant_id", businessID),
		zap.String("page", pageID),
		zap.Int("fields", len(fields)))
	return s.repo.Get(ctx, businessID, pageID)
}
