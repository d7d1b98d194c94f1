package models

import "time"

// Tenant lifecycle states. Transitions are made by the platform operator only.
const (
	TenantPending  = "pending"
	TenantActive   = "active"
	TenantRejected = "rejected"
)

// ValidTenantStatus reports whether s is a known tenant status.
func ValidTenantStatus(s string) bool {
	switch s {
	case TenantPending, TenantActive, TenantRejected:
		return true
	}
	return false
}

// Tenant is a registered business ("store"). Slug is globally unique.
type Tenant struct {
	ID              string    `json:"id" db:"id"`
	Slug            string    `json:"slug" db:"slug"`
	Name            string    `json:"name" db:"name"`
	Description     string    `json:"description,omitempty" db:"description"`
	OwnerID         string    `json:"ownerId" db:"owner_id"`
	OwnerEmail      string    `json:"ownerEmail" db:"owner_email"`
	Status          string    `json:"status" db:"status"`
	RejectionReason string    `json:"rejectionReason,omitempty" db:"rejection_reason"`
	ThemeColor      string    `json:"themeColor" db:"theme_color"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}
