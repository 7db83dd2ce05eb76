package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/elitheslime01/gymmate-2024/internal/models"
)

// ReceiptRepository provides persistence for acknowledgement receipts.
type ReceiptRepository struct {
	db *sqlx.DB
}

// NewReceiptRepository creates a new receipt repository.
func NewReceiptRepository(db *sqlx.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// FindByID loads one receipt.
func (r *ReceiptRepository) FindByID(ctx context.Context, id string) (*models.Receipt, error) {
	const query = `SELECT id, code, student_id, created_at FROM receipts WHERE id = $1`
	var receipt models.Receipt
	if err := r.db.GetContext(ctx, &receipt, query, id); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ListByStudent returns a student's receipts, newest first.
func (r *ReceiptRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Receipt, error) {
	const query = `SELECT id, code, student_id, created_at FROM receipts WHERE student_id = $1 ORDER BY created_at DESC`
	var receipts []models.Receipt
	if err := r.db.SelectContext(ctx, &receipts, query, studentID); err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	return receipts, nil
}

// Create stores a new receipt.
func (r *ReceiptRepository) Create(ctx context.Context, receipt *models.Receipt) error {
	if receipt.ID == "" {
		receipt.ID = uuid.NewString()
	}
	receipt.CreatedAt = time.Now().UTC()

	const query = `INSERT INTO receipts (id, code, student_id, created_at) VALUES (:id, :code, :student_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, receipt); err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}
	return nil
}
