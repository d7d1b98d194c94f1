package repository

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/01moynul/a2z-storefront/internal/models"
)

// MySQLContentRepository stores one row per (store, page, field) so that an
// update touches only the fields it names.
type MySQLContentRepository struct {
	db *sql.DB
}

func NewMySQLContentRepository(db *sql.DB) *MySQLContentRepository {
	return &MySQLContentRepository{db: db}
}

var _ ContentRepository = (*MySQLContentRepository)(nil)

func (r *MySQLContentRepository) Get(ctx context.Context, businessID, pageID string) (models.PageContent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT field_key, field_value FROM page_content WHERE business_id = ? AND page_id = ?`,
		businessID, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get page content: %w", err)
	}
	defer rows.Close()

	content := models.PageContent{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		content[key] = value
	}
	return content, rows.Err()
}

func (r *MySQLContentRepository) Upsert(ctx context.Context, businessID, pageID string, fields models.PageContent) error {
	if len(fields) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO page_content (business_id, page_id, field_key, field_value, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE field_value = VALUES(field_value), updated_at = VALUES(updated_at)`
	now := time.Now().UTC()
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		if _, err := tx.ExecContext(ctx, query, businessID, pageID, key, fields[key], now); err != nil {
			return fmt.Errorf("failed to save page content: %w", err)
		}
	}
	return tx.Commit()
}
