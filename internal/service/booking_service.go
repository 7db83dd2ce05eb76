package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/elitheslime01/gymmate-2024/internal/dto"
	"github.com/elitheslime01/gymmate-2024/internal/models"
	appErrors "github.com/elitheslime01/gymmate-2024/pkg/errors"
	"github.com/elitheslime01/gymmate-2024/pkg/export"
)

type bookingRepository interface {
	FindByID(ctx context.Context, id string) (*models.BookingDetail, error)
	ListByDate(ctx context.Context, date time.Time) ([]models.BookingDetail, error)
	CurrentForStudent(ctx context.Context, studentID string, from time.Time) ([]models.BookingEntry, error)
	FindEntry(ctx context.Context, entryID string) (*models.BookingEntry, error)
	UpdateEntryStatus(ctx context.Context, entryID, status string, timeIn, timeOut *time.Time) error
}

// historyRecorder feeds booking outcomes back into the priority counters.
type historyRecorder interface {
	RecordEvent(ctx context.Context, id, event string) (*models.Student, error)
}

// Export formats accepted by the booking export endpoint.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// BookingService exposes committed bookings, attendance transitions, and
// tabular exports.
type BookingService struct {
	bookings  bookingRepository
	history   historyRecorder
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBookingService wires booking dependencies.
func NewBookingService(bookings bookingRepository, history historyRecorder, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		bookings:  bookings,
		history:   history,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// Get loads one booking with its entries.
func (s *BookingService) Get(ctx context.Context, id string) (*models.BookingDetail, error) {
	detail, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}
	return detail, nil
}

// ListByDate returns all bookings for one day.
func (s *BookingService) ListByDate(ctx context.Context, date time.Time) ([]models.BookingDetail, error) {
	return s.bookings.ListByDate(ctx, date)
}

// CurrentForStudent returns the student's upcoming booking entries.
func (s *BookingService) CurrentForStudent(ctx context.Context, studentID string, from time.Time) ([]models.BookingEntry, error) {
	return s.bookings.CurrentForStudent(ctx, studentID, from)
}

// UpdateEntryStatus transitions a booking entry. Moving to Attended stamps
// the check-in time and credits the member's attendance; No Show records
// the penalty. Both counter updates are best-effort relative to the state
// change itself.
func (s *BookingService) UpdateEntryStatus(ctx context.Context, entryID string, req dto.UpdateBookingEntryRequest) (*models.BookingEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking entry payload")
	}

	entry, err := s.bookings.FindEntry(ctx, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking entry not found")
		}
		return nil, fmt.Errorf("load booking entry: %w", err)
	}
	if entry.Status == req.Status {
		return entry, nil
	}

	var timeIn *time.Time
	if req.Status == models.BookingStatusAttended && entry.TimeIn == nil {
		now := time.Now().UTC()
		timeIn = &now
	}
	if err := s.bookings.UpdateEntryStatus(ctx, entryID, req.Status, timeIn, nil); err != nil {
		return nil, err
	}
	entry.Status = req.Status
	if timeIn != nil {
		entry.TimeIn = timeIn
	}

	switch req.Status {
	case models.BookingStatusAttended:
		s.recordHistory(ctx, entry.StudentID, dto.StudentEventAttended)
	case models.BookingStatusNoShow:
		s.recordHistory(ctx, entry.StudentID, dto.StudentEventNoShow)
	}
	return entry, nil
}

// CheckOut stamps the time a member left the gym.
func (s *BookingService) CheckOut(ctx context.Context, entryID string) (*models.BookingEntry, error) {
	entry, err := s.bookings.FindEntry(ctx, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking entry not found")
		}
		return nil, fmt.Errorf("load booking entry: %w", err)
	}
	if entry.Status != models.BookingStatusAttended {
		return nil, appErrors.Clone(appErrors.ErrConflict, "member has not checked in")
	}

	now := time.Now().UTC()
	if err := s.bookings.UpdateEntryStatus(ctx, entryID, entry.Status, nil, &now); err != nil {
		return nil, err
	}
	entry.TimeOut = &now
	return entry, nil
}

// Export renders one day's bookings as CSV or PDF.
func (s *BookingService) Export(ctx context.Context, date time.Time, format string) ([]byte, string, error) {
	details, err := s.bookings.ListByDate(ctx, date)
	if err != nil {
		return nil, "", fmt.Errorf("list bookings: %w", err)
	}

	dataset := export.Dataset{
		Headers: []string{"Date", "Start", "End", "Student", "Score", "Status", "Time In", "Time Out"},
	}
	for _, detail := range details {
		for _, entry := range detail.Entries {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Date":     detail.Date.Format("2006-01-02"),
				"Start":    detail.StartTime,
				"End":      detail.EndTime,
				"Student":  entry.StudentID,
				"Score":    fmt.Sprintf("%d", entry.PriorityScore),
				"Status":   entry.Status,
				"Time In":  formatEntryTime(entry.TimeIn),
				"Time Out": formatEntryTime(entry.TimeOut),
			})
		}
	}

	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", fmt.Errorf("render csv: %w", err)
		}
		return payload, "text/csv", nil
	case ExportFormatPDF:
		title := fmt.Sprintf("Gym bookings %s", date.Format("2006-01-02"))
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, "", fmt.Errorf("render pdf: %w", err)
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func (s *BookingService) recordHistory(ctx context.Context, studentID, event string) {
	if s.history == nil {
		return
	}
	if _, err := s.history.RecordEvent(ctx, studentID, event); err != nil {
		s.logger.Warn("history recording failed",
			zap.String("student_id", studentID),
			zap.String("event", event),
			zap.Error(err))
	}
}

func formatEntryTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("15:04")
}
