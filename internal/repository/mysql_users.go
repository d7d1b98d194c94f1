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

type MySQLUserRepository struct {
	db *sql.DB
}

func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

var _ UserRepository = (*MySQLUserRepository)(nil)

const userColumns = `id, email, password_hash, name, role, email_verified, phone, address, city,
	state, pincode, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.EmailVerified,
		&u.Phone, &u.Address, &u.City, &u.State, &u.Pincode, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *MySQLUserRepository) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, role, email_verified, phone, address,
			city, state, pincode, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, u.ID, u.Email, u.PasswordHash, u.Name, u.Role,
		u.EmailVerified, u.Phone, u.Address, u.City, u.State, u.Pincode, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return apperr.Conflict("email", u.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *MySQLUserRepository) get(ctx context.Context, where string, arg any) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where+` = ?`, arg)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *MySQLUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.get(ctx, "id", id)
}

func (r *MySQLUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.get(ctx, "email", email)
}

func (r *MySQLUserRepository) UpdateProfile(ctx context.Context, u *models.User) error {
	query := `
		UPDATE users SET name = ?, phone = ?, address = ?, city = ?, state = ?, pincode = ?,
			updated_at = ?
		WHERE id = ?`
	return r.exec(ctx, query, u.ID, u.Name, u.Phone, u.Address, u.City, u.State, u.Pincode, u.UpdatedAt, u.ID)
}

func (r *MySQLUserRepository) SetPassword(ctx context.Context, id, hash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`, id, hash, time.Now().UTC(), id)
}

func (r *MySQLUserRepository) SetEmailVerified(ctx context.Context, id string, verified bool) error {
	return r.exec(ctx, `UPDATE users SET email_verified = ?, updated_at = ? WHERE id = ?`, id, verified, time.Now().UTC(), id)
}

func (r *MySQLUserRepository) SetRole(ctx context.Context, id, role string) error {
	return r.exec(ctx, `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`, id, role, time.Now().UTC(), id)
}

// exec runs an update of the user identified by id.
func (r *MySQLUserRepository) exec(ctx context.Context, query, id string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *MySQLUserRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
