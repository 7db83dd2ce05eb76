package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/elitheslime01/gymmate-2024/internal/models"
)

// AdminRepository provides persistence for staff accounts.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository creates a new admin repository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// FindByEmail loads an admin by email.
func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	const query = `SELECT id, email, password_hash, full_name, active, created_at, updated_at FROM admins WHERE email = $1`
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, email); err != nil {
		return nil, err
	}
	return &admin, nil
}

// FindByID loads an admin by id.
func (r *AdminRepository) FindByID(ctx context.Context, id string) (*models.Admin, error) {
	const query = `SELECT id, email, password_hash, full_name, active, created_at, updated_at FROM admins WHERE id = $1`
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, id); err != nil {
		return nil, err
	}
	return &admin, nil
}

// Create stores a new admin account.
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	admin.CreatedAt = now
	admin.UpdatedAt = now

	const query = `INSERT INTO admins (id, email, password_hash, full_name, active, created_at, updated_at) VALUES (:id, :email, :password_hash, :full_name, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, admin); err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}
