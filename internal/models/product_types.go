package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product kinds. Services use Weight as a duration label ("60 min").
const (
	ProductPhysical = "physical"
	ProductService  = "service"
)

// Product is a catalog entry. A nil BusinessID marks a record created before
// stores existed; those belong to the legacy store only.
type Product struct {
	ID          string          `json:"id" db:"id"`
	BusinessID  *string         `json:"businessId" db:"business_id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Category    string          `json:"category" db:"category"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	Weight      string          `json:"weight,omitempty" db:"weight"`
	ImageURL    string          `json:"imageUrl" db:"image_url"`
	Type        string          `json:"type" db:"type"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// IsLegacy reports whether the product predates tenancy.
func (p *Product) IsLegacy() bool {
	return p.BusinessID == nil || *p.BusinessID == ""
}

// ProductPatch is a partial product update. Nil fields are left untouched.
type ProductPatch struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	Weight      *string          `json:"weight"`
	ImageURL    *string          `json:"imageUrl"`
	Type        *string          `json:"type"`
}

// Apply merges the non-nil fields of p into prod.
func (p ProductPatch) Apply(prod *Product) {
	if p.Name != nil {
		prod.Name = *p.Name
	}
	if p.Description != nil {
		prod.Description = *p.Description
	}
	if p.Category != nil {
		prod.Category = *p.Category
	}
	if p.Price != nil {
		prod.Price = *p.Price
	}
	if p.Stock != nil {
		prod.Stock = *p.Stock
	}
	if p.Weight != nil {
		prod.Weight = *p.Weight
	}
	if p.ImageURL != nil {
		prod.ImageURL = *p.ImageURL
	}
	if p.Type != nil {
		prod.Type = *p.Type
	}
}
