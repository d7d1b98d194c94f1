// Package cart keeps each buyer's basket per store in the KV store. Carts are
// namespaced by store, so a basket filled in one store never shows in another.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/01moynul/a2z-storefront/internal/apperr"
	"github.com/01moynul/a2z-storefront/internal/models"
	"github.com/01moynul/a2z-storefront/internal/store"
)

const maxQuantity = 999

// Key is the KV key of a cart. owner is a user id or a guest cart token.
func Key(businessID, owner string) string {
	return "cart:" + businessID + ":" + owner
}

type Service struct {
	kv  store.KV
	ttl time.Duration
	mu  sync.Mutex // serialises read-modify-write cycles
}

func NewService(kv store.KV, ttl time.Duration) *Service {
	return &Service{kv: kv, ttl: ttl}
}

func (s *Service) load(ctx context.Context, businessID, owner string) (*models.Cart, error) {
	c := &models.Cart{BusinessID: businessID, Items: []models.CartItem{}}
	raw, err := s.kv.Get(ctx, Key(businessID, owner))
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return c, nil
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), c); err != nil {
		return nil, err
	}
	c.BusinessID = businessID
	return c, nil
}

func (s *Service) save(ctx context.Context, owner string, c *models.Cart) error {
	if len(c.Items) == 0 {
		return s.kv.Del(ctx, Key(c.BusinessID, owner))
	}
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, Key(c.BusinessID, owner), string(b), s.ttl)
}

func (s *Service) update(ctx context.Context, businessID, owner string, fn func(*models.Cart) error) (*models.Cart, error) {
	if owner == "" {
		return nil, apperr.Invalid("cart", "cart owner is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx, businessID, owner)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.save(ctx, owner, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, businessID, owner string) (*models.Cart, error) {
	return s.load(ctx, businessID, owner)
}

// Add puts qty units of p in the cart, merging with an existing line. The
// line keeps the name, price and image p had when it was first added.
func (s *Service) Add(ctx context.Context, businessID, owner string, p *models.Product, qty int) (*models.Cart, error) {
	if qty <= 0 {
		return nil, apperr.Invalid("quantity", "quantity must be at least 1")
	}
	return s.update(ctx, businessID, owner, func(c *models.Cart) error {
		for i := range c.Items {
			if c.Items[i].ProductID == p.ID {
				c.Items[i].Quantity = min(c.Items[i].Quantity+qty, maxQuantity)
				return nil
			}
		}
		c.Items = append(c.Items, models.CartItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.ImageURL,
			Quantity:  min(qty, maxQuantity),
		})
		return nil
	})
}

// SetQuantity replaces a line's quantity. Zero or less removes the line.
func (s *Service) SetQuantity(ctx context.Context, businessID, owner, productID string, qty int) (*models.Cart, error) {
	return s.update(ctx, businessID, owner, func(c *models.Cart) error {
		i := slices.IndexFunc(c.Items, func(it models.CartItem) bool { return it.ProductID == productID })
		if i < 0 {
			return apperr.NotFound("cart item")
		}
		if qty <= 0 {
			c.Items = slices.Delete(c.Items, i, i+1)
			return nil
		}
		c.Items[i].Quantity = min(qty, maxQuantity)
		return nil
	})
}

func (s *Service) Remove(ctx context.Context, businessID, owner, productID string) (*models.Cart, error) {
	return s.update(ctx, businessID, owner, func(c *models.Cart) error {
		c.Items = slices.DeleteFunc(c.Items, func(it models.CartItem) bool { return it.ProductID == productID })
		return nil
	})
}

func (s *Service) Clear(ctx context.Context, businessID, owner string) error {
	return s.kv.Del(ctx, Key(businessID, owner))
}

// Merge moves the lines of one cart into another in the same store, e.g. a
// guest basket into the account's basket after sign-in.
func (s *Service) Merge(ctx context.Context, businessID, from, to string) (*models.Cart, error) {
	if from == "" || from == to {
		return s.Get(ctx, businessID, to)
	}
	s.mu.Lock()
	src, err := s.load(ctx, businessID, from)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	merged, err := s.update(ctx, businessID, to, func(c *models.Cart) error {
		for _, item := range src.Items {
			i := slices.IndexFunc(c.Items, func(it models.CartItem) bool { return it.ProductID == item.ProductID })
			if i < 0 {
				c.Items = append(c.Items, item)
				continue
			}
			c.Items[i].Quantity = min(c.Items[i].Quantity+item.Quantity, maxQuantity)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merged, s.Clear(ctx, businessID, from)
}
