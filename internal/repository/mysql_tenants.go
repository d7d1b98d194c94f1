package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/a2z-storefront/internal/apperr"
	"github.com/01moynul/a2z-storefront/internal/models"
)

type MySQLTenantRepository struct {
	db *sql.DB
}

func NewMySQLTenantRepository(db *sql.DB) *MySQLTenantRepository {
	return &MySQLTenantRepository{db: db}
}

var _ TenantRepository = (*MySQLTenantRepository)(nil)

const tenantColumns = `id, slug, name, COALESCE(description, ''), owner_id, owner_email, status,
	rejection_reason, theme_color, created_at, updated_at`

func scanTenant(row interface{ Scan(...any) error }) (*models.Tenant, error) {
	var t models.Tenant
	err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.Description, &t.OwnerID, &t.OwnerEmail,
		&t.Status, &t.RejectionReason, &t.ThemeColor, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *MySQLTenantRepository) Create(ctx context.Context, t *models.Tenant) error {
	query := `
		INSERT INTO tenants (id, slug, name, description, owner_id, owner_email, status,
			rejection_reason, theme_color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, t.ID, t.Slug, t.Name, t.Description, t.OwnerID,
		t.OwnerEmail, t.Status, t.RejectionReason, t.ThemeColor, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return apperr.Conflict("slug", t.Slug)
		}
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

func (r *MySQLTenantRepository) GetByID(ctx context.Context, id string) (*models.Tenant, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = ?`, id)
	t, err := scanTenant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("store")
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return t, nil
}

func (r *MySQLTenantRepository) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE slug = ?`, slug)
	t, err := scanTenant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("store")
		}
		return nil, fmt.Errorf("failed to get tenant by slug: %w", err)
	}
	return t, nil
}

func (r *MySQLTenantRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Tenant, error) {
	return r.query(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE owner_id = ? ORDER BY created_at ASC`, ownerID)
}

func (r *MySQLTenantRepository) List(ctx context.Context, search string) ([]models.Tenant, error) {
	if search == "" {
		return r.query(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY created_at DESC`)
	}
	p := containsPattern(search)
	return r.query(ctx, `SELECT `+tenantColumns+` FROM tenants
		WHERE LOWER(name) LIKE ? OR LOWER(slug) LIKE ? OR LOWER(owner_email) LIKE ?
		ORDER BY created_at DESC`, p, p, p)
}

func (r *MySQLTenantRepository) query(ctx context.Context, query string, args ...any) ([]models.Tenant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	tenants := []models.Tenant{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, *t)
	}
	return tenants, rows.Err()
}

func (r *MySQLTenantRepository) SetStatus(ctx context.Context, id, status, reason string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET status = ?, rejection_reason = ?, updated_at = ? WHERE id = ?`,
		status, reason, at, id)
	if err != nil {
		return fmt.Errorf("failed to set tenant status: %w", err)
	}
	return r.checkFound(ctx, res, id)
}

// checkFound maps a zero-row update onto not-found. MySQL reports zero rows
// for an update that leaves the row unchanged, so existence is re-checked.
func (r *MySQLTenantRepository) checkFound(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err = r.GetByID(ctx, id)
	return err
}

func (r *MySQLTenantRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var orders int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE business_id = ?`, id).Scan(&orders); err != nil {
		return fmt.Errorf("failed to count tenant orders: %w", err)
	}
	if orders > 0 {
		return &apperr.ConflictError{Field: "store", Value: id, Message: "store has orders and cannot be deleted"}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE business_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete tenant products: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM page_content WHERE business_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete tenant content: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM tenants WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("store")
	}
	return tx.Commit()
}
