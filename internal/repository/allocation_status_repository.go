package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/elitheslime01/gymmate-2024/internal/models"
)

// AllocationStatusRepository provides persistence for allocation outcomes.
// booking_id defaults to the empty string for records not tied to a booking,
// which keeps the (student_id, booking_id) unique key simple.
type AllocationStatusRepository struct {
	db *sqlx.DB
}

// NewAllocationStatusRepository creates a new allocation status repository.
func NewAllocationStatusRepository(db *sqlx.DB) *AllocationStatusRepository {
	return &AllocationStatusRepository{db: db}
}

// Upsert records the status for a (student, booking) pair. Re-recording the
// same pair overwrites the previous state instead of appending a new row.
func (r *AllocationStatusRepository) Upsert(ctx context.Context, status *models.AllocationStatus) error {
	if status.ID == "" {
		status.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	status.CreatedAt = now
	status.UpdatedAt = now

	const query = `INSERT INTO allocation_statuses (id, student_id, booking_id, status, reason, allocated_at, created_at, updated_at)
		VALUES (:id, :student_id, :booking_id, :status, :reason, :allocated_at, :created_at, :updated_at)
		ON CONFLICT (student_id, booking_id) DO UPDATE SET status = EXCLUDED.status, reason = EXCLUDED.reason, allocated_at = EXCLUDED.allocated_at, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, status); err != nil {
		return fmt.Errorf("upsert allocation status: %w", err)
	}
	return nil
}

// FindCurrent returns the student's most recently updated status record.
func (r *AllocationStatusRepository) FindCurrent(ctx context.Context, studentID string) (*models.AllocationStatus, error) {
	const query = `SELECT id, student_id, booking_id, status, reason, allocated_at, created_at, updated_at FROM allocation_statuses WHERE student_id = $1 ORDER BY updated_at DESC LIMIT 1`
	var status models.AllocationStatus
	if err := r.db.GetContext(ctx, &status, query, studentID); err != nil {
		return nil, err
	}
	return &status, nil
}

// FindByBooking returns the status record for one (student, booking) pair.
func (r *AllocationStatusRepository) FindByBooking(ctx context.Context, studentID, bookingID string) (*models.AllocationStatus, error) {
	const query = `SELECT id, student_id, booking_id, status, reason, allocated_at, created_at, updated_at FROM allocation_statuses WHERE student_id = $1 AND booking_id = $2`
	var status models.AllocationStatus
	if err := r.db.GetContext(ctx, &status, query, studentID, bookingID); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListByStudent returns every status record for a student, newest first.
func (r *AllocationStatusRepository) ListByStudent(ctx context.Context, studentID string) ([]models.AllocationStatus, error) {
	const query = `SELECT id, student_id, booking_id, status, reason, allocated_at, created_at, updated_at FROM allocation_statuses WHERE student_id = $1 ORDER BY updated_at DESC`
	var statuses []models.AllocationStatus
	if err := r.db.SelectContext(ctx, &statuses, query, studentID); err != nil {
		return nil, fmt.Errorf("list allocation statuses: %w", err)
	}
	return statuses, nil
}
