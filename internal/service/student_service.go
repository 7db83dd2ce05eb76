package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/elitheslime01/gymmate-2024/internal/dto"
	"github.com/elitheslime01/gymmate-2024/internal/models"
	appErrors "github.com/elitheslime01/gymmate-2024/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	FindForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Student, error)
	UpdateCounters(ctx context.Context, tx *sqlx.Tx, student *models.Student) error
}

// StudentService manages member records and their allocation history
// counters.
type StudentService struct {
	students  studentRepository
	tx        txProvider
	policy    PriorityPolicy
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService wires student management dependencies.
func NewStudentService(students studentRepository, tx txProvider, policy PriorityPolicy, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{students: students, tx: tx, policy: policy, validator: validate, logger: logger}
}

// List returns members matching the filter with paging metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("list students: %w", err)
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	return students, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get loads one member.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, fmt.Errorf("load student: %w", err)
	}
	return student, nil
}

// Create registers a new member. Counters start at zero, which scores as
// neutral priority.
func (s *StudentService) Create(ctx context.Context, req dto.CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student := &models.Student{
		Email:    req.Email,
		FullName: req.FullName,
	}
	student.PriorityScore = s.policy.Score(student)
	if err := s.students.Create(ctx, student); err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	return student, nil
}

// Update changes a member's profile fields.
func (s *StudentService) Update(ctx context.Context, id string, req dto.UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Email != "" {
		student.Email = req.Email
	}
	if req.FullName != "" {
		student.FullName = req.FullName
	}
	if err := s.students.Update(ctx, student); err != nil {
		return nil, fmt.Errorf("update student: %w", err)
	}
	return student, nil
}

// RecordEvent applies one history event under a row lock and returns the
// member with recomputed counters and score.
func (s *StudentService) RecordEvent(ctx context.Context, id, event string) (*models.Student, error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin record event: %w", err)
	}
	defer tx.Rollback()

	student, err := s.students.FindForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, fmt.Errorf("lock student: %w", err)
	}

	switch event {
	case dto.StudentEventUnsuccessful:
		s.policy.ApplyUnsuccessful(student)
	case dto.StudentEventNoShow:
		s.policy.ApplyNoShow(student)
	case dto.StudentEventAttended:
		s.policy.ApplyAttended(student)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown student event")
	}

	if err := s.students.UpdateCounters(ctx, tx, student); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit record event: %w", err)
	}

	s.logger.Info("student event recorded",
		zap.String("student_id", student.ID),
		zap.String("event", event),
		zap.Int("priority_score", student.PriorityScore))
	return student, nil
}
