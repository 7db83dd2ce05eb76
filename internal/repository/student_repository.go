package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/elitheslime01/gymmate-2024/internal/models"
)

// StudentRepository provides persistence for gym members.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new student repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

var studentSortColumns = map[string]string{
	"full_name":      "full_name",
	"email":          "email",
	"priority_score": "priority_score",
	"created_at":     "created_at",
}

// List returns students matching the filter plus the total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	where := ""
	args := []interface{}{}
	if filter.Search != "" {
		where = " WHERE full_name ILIKE $1 OR email ILIKE $1"
		args = append(args, "%"+filter.Search+"%")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}

	sortBy, ok := studentSortColumns[filter.SortBy]
	if !ok {
		sortBy = "full_name"
	}
	order := "ASC"
	if strings.EqualFold(filter.SortOrder, "desc") {
		order = "DESC"
	}

	limit := filter.PageSize
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	query := fmt.Sprintf(
		"SELECT id, email, full_name, unsuccessful_attempts, no_shows, attended_slots, priority_score, created_at, updated_at FROM students%s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		where, sortBy, order, len(args)+1, len(args)+2,
	)
	args = append(args, limit, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}
	return students, total, nil
}

// FindByID loads one student.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, email, full_name, unsuccessful_attempts, no_shows, attended_slots, priority_score, created_at, updated_at FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create stores a new student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	const query = `INSERT INTO students (id, email, full_name, unsuccessful_attempts, no_shows, attended_slots, priority_score, created_at, updated_at) VALUES (:id, :email, :full_name, :unsuccessful_attempts, :no_shows, :attended_slots, :priority_score, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

// Update stores profile changes for an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET email = :email, full_name = :full_name, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("student %s: no rows updated", student.ID)
	}
	return nil
}

// FindForUpdate locks and returns a student row inside a transaction. Keeps
// counter updates serial when allocation and attendance tracking overlap.
func (r *StudentRepository) FindForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Student, error) {
	const query = `SELECT id, email, full_name, unsuccessful_attempts, no_shows, attended_slots, priority_score, created_at, updated_at FROM students WHERE id = $1 FOR UPDATE`
	var student models.Student
	if err := tx.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// UpdateCounters writes back the history counters and recomputed score
// inside a transaction.
func (r *StudentRepository) UpdateCounters(ctx context.Context, tx *sqlx.Tx, student *models.Student) error {
	const query = `UPDATE students SET unsuccessful_attempts = $1, no_shows = $2, attended_slots = $3, priority_score = $4, updated_at = $5 WHERE id = $6`
	if _, err := tx.ExecContext(ctx, query, student.UnsuccessfulAttempts, student.NoShows, student.AttendedSlots, student.PriorityScore, time.Now().UTC(), student.ID); err != nil {
		return fmt.Errorf("update student counters: %w", err)
	}
	return nil
}
