package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/elitheslime01/gymmate-2024/internal/models"
	appErrors "github.com/elitheslime01/gymmate-2024/pkg/errors"
)

type receiptRepository interface {
	FindByID(ctx context.Context, id string) (*models.Receipt, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Receipt, error)
	Create(ctx context.Context, receipt *models.Receipt) error
}

// ReceiptService manages the acknowledgement receipts required for queueing.
type ReceiptService struct {
	receipts  receiptRepository
	students  queueStudentReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReceiptService wires receipt dependencies.
func NewReceiptService(receipts receiptRepository, students queueStudentReader, validate *validator.Validate, logger *zap.Logger) *ReceiptService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptService{receipts: receipts, students: students, validator: validate, logger: logger}
}

// Get loads one receipt.
func (s *ReceiptService) Get(ctx context.Context, id string) (*models.Receipt, error) {
	receipt, err := s.receipts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "receipt not found")
		}
		return nil, fmt.Errorf("load receipt: %w", err)
	}
	return receipt, nil
}

// ListByStudent returns a student's receipts.
func (s *ReceiptService) ListByStudent(ctx context.Context, studentID string) ([]models.Receipt, error) {
	return s.receipts.ListByStudent(ctx, studentID)
}

// Issue creates a receipt for a student.
func (s *ReceiptService) Issue(ctx context.Context, studentID, code string) (*models.Receipt, error) {
	if code == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "receipt code required")
	}
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, fmt.Errorf("load student: %w", err)
	}

	receipt := &models.Receipt{Code: code, StudentID: studentID}
	if err := s.receipts.Create(ctx, receipt); err != nil {
		return nil, fmt.Errorf("create receipt: %w", err)
	}
	return receipt, nil
}
