// Package repository persists the storefront's documents. Every interface has
// a MySQL implementation and an in-memory one used when the database is
// disabled and as a fake in tests.
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/01moynul/a2z-storefront/internal/models"
)

type TenantRepository interface {
	// Create inserts t. A taken slug yields *apperr.ConflictError; the check
	// and the insert are one atomic step.
	Create(ctx context.Context, t *models.Tenant) error
	GetByID(ctx context.Context, id string) (*models.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Tenant, error)
	// List returns all tenants, newest first. A non-empty search keeps only
	// tenants whose name, slug or owner email contains it (case-insensitive).
	List(ctx context.Context, search string) ([]models.Tenant, error)
	SetStatus(ctx context.Context, id, status, reason string, at time.Time) error
	// Delete removes the tenant with its products and page content. Tenants
	// that have orders are refused with *apperr.ConflictError.
	Delete(ctx context.Context, id string) error
}

type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) error
	Get(ctx context.Context, id string) (*models.Product, error)
	// ListByBusiness returns the tenant's products, newest first. With
	// includeLegacy it also returns products that carry no business id.
	ListByBusiness(ctx context.Context, businessID string, includeLegacy bool) ([]models.Product, error)
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id string) error
}

type OrderRepository interface {
	Create(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListByBusiness(ctx context.Context, businessID string) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id, status string, at time.Time) error
	// TransitionStatus sets status only while the order is still in from.
	// It reports whether the order changed.
	TransitionStatus(ctx context.Context, id, from, to string, at time.Time) (bool, error)
	// ListStalePending returns pending orders paid with method that were
	// created before the cutoff.
	ListStalePending(ctx context.Context, method string, before time.Time) ([]models.Order, error)
}

type ContentRepository interface {
	// Get returns the stored fields of a page, or an empty map.
	Get(ctx context.Context, businessID, pageID string) (models.PageContent, error)
	// Upsert writes each field, leaving fields not in the map untouched.
	Upsert(ctx context.Context, businessID, pageID string, fields models.PageContent) error
}

type UserRepository interface {
	// Create inserts u. A taken email yields *apperr.ConflictError.
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// UpdateProfile writes the non-credential profile fields.
	UpdateProfile(ctx context.Context, u *models.User) error
	SetPassword(ctx context.Context, id, hash string) error
	SetEmailVerified(ctx context.Context, id string, verified bool) error
	SetRole(ctx context.Context, id, role string) error
	List(ctx context.Context) ([]models.User, error)
}

// isDuplicateKey reports a MySQL unique-key violation (error 1062).
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
