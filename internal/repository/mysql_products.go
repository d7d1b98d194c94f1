package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/01moynul/a2z-storefront/internal/apperr"
	"github.com/01moynul/a2z-storefront/internal/models"
)

type MySQLProductRepository struct {
	db *sql.DB
}

func NewMySQLProductRepository(db *sql.DB) *MySQLProductRepository {
	return &MySQLProductRepository{db: db}
}

var _ ProductRepository = (*MySQLProductRepository)(nil)

const productColumns = `id, business_id, name, COALESCE(description, ''), category, price, stock,
	weight, image_url, type, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	var p models.Product
	var businessID sql.NullString
	err := row.Scan(&p.ID, &businessID, &p.Name, &p.Description, &p.Category, &p.Price,
		&p.Stock, &p.Weight, &p.ImageURL, &p.Type, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if businessID.Valid && businessID.String != "" {
		id := businessID.String
		p.BusinessID = &id
	}
	return &p, nil
}

func nullableBusinessID(p *models.Product) sql.NullString {
	if p.IsLegacy() {
		return sql.NullString{}
	}
	return sql.NullString{String: *p.BusinessID, Valid: true}
}

func (r *MySQLProductRepository) Create(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (id, business_id, name, description, category, price, stock,
			weight, image_url, type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, p.ID, nullableBusinessID(p), p.Name, p.Description,
		p.Category, p.Price, p.Stock, p.Weight, p.ImageURL, p.Type, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *MySQLProductRepository) Get(ctx context.Context, id string) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("product")
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (r *MySQLProductRepository) ListByBusiness(ctx context.Context, businessID string, includeLegacy bool) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE business_id = ?`
	if includeLegacy {
		query += ` OR business_id IS NULL OR business_id = ''`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *MySQLProductRepository) Update(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products SET name = ?, description = ?, category = ?, price = ?, stock = ?,
			weight = ?, image_url = ?, type = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, p.Name, p.Description, p.Category, p.Price, p.Stock,
		p.Weight, p.ImageURL, p.Type, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.Get(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *MySQLProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("product")
	}
	return nil
}
