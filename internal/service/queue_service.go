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
)

type queueEntryRepository interface {
	FindOrCreate(ctx context.Context, date time.Time, startTime, endTime string) (*models.Queue, error)
	HasEntry(ctx context.Context, queueID, studentID string) (bool, error)
	InsertEntry(ctx context.Context, entry *models.QueueEntry) error
}

type queueStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type queueReceiptReader interface {
	FindByID(ctx context.Context, id string) (*models.Receipt, error)
}

type queueScheduleReader interface {
	FindByDate(ctx context.Context, date time.Time) (*models.ScheduleDetail, error)
}

type queueBookingReader interface {
	HasStudentForDate(ctx context.Context, studentID string, date time.Time, startTime, endTime string) (bool, error)
}

type waitingRecorder interface {
	RecordWaiting(ctx context.Context, studentID string) error
}

// QueueService admits students into waiting queues. Admission requires a
// valid receipt owned by the student, an existing time slot, and no prior
// booking or queue entry for the same window.
type QueueService struct {
	queues    queueEntryRepository
	students  queueStudentReader
	receipts  queueReceiptReader
	schedules queueScheduleReader
	bookings  queueBookingReader
	statuses  waitingRecorder
	policy    PriorityPolicy
	validator *validator.Validate
	logger    *zap.Logger
}

// NewQueueService wires queue admission dependencies.
func NewQueueService(
	queues queueEntryRepository,
	students queueStudentReader,
	receipts queueReceiptReader,
	schedules queueScheduleReader,
	bookings queueBookingReader,
	statuses waitingRecorder,
	policy PriorityPolicy,
	validate *validator.Validate,
	logger *zap.Logger,
) *QueueService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueService{
		queues:    queues,
		students:  students,
		receipts:  receipts,
		schedules: schedules,
		bookings:  bookings,
		statuses:  statuses,
		policy:    policy,
		validator: validate,
		logger:    logger,
	}
}

// Enqueue places a student in the waiting queue for a time window. The
// priority score snapshot is taken here; later counter changes do not move
// an entry that is already queued.
func (s *QueueService) Enqueue(ctx context.Context, req dto.EnqueueRequest) (*dto.EnqueueResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid queue payload")
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, fmt.Errorf("load student: %w", err)
	}

	receipt, err := s.receipts.FindByID(ctx, req.ReceiptID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "receipt not found")
		}
		return nil, fmt.Errorf("load receipt: %w", err)
	}
	if receipt.StudentID != student.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "receipt belongs to another student")
	}

	schedule, err := s.schedules.FindByDate(ctx, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no schedule for date")
		}
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	slot := findSlot(schedule.Slots, req.StartTime, req.EndTime)
	if slot == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no time slot for window")
	}

	booked, err := s.bookings.HasStudentForDate(ctx, student.ID, date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("check booking: %w", err)
	}
	if booked {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already booked for this slot")
	}

	queue, err := s.queues.FindOrCreate(ctx, date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("find or create queue: %w", err)
	}

	queued, err := s.queues.HasEntry(ctx, queue.ID, student.ID)
	if err != nil {
		return nil, fmt.Errorf("check queue entry: %w", err)
	}
	if queued {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "student already queued for this slot")
	}

	entry := &models.QueueEntry{
		QueueID:       queue.ID,
		StudentID:     student.ID,
		ScheduleID:    schedule.ID,
		TimeSlotID:    slot.ID,
		ReceiptID:     receipt.ID,
		PriorityScore: s.policy.Score(student),
		Status:        models.QueueStatusWaiting,
	}
	if err := s.queues.InsertEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("insert queue entry: %w", err)
	}

	// Status recording is best-effort; the entry is already queued.
	if s.statuses != nil {
		if err := s.statuses.RecordWaiting(ctx, student.ID); err != nil {
			s.logger.Warn("waiting status recording failed",
				zap.String("student_id", student.ID),
				zap.Error(err))
		}
	}

	s.logger.Info("student queued",
		zap.String("student_id", student.ID),
		zap.String("queue_id", queue.ID),
		zap.Int("priority_score", entry.PriorityScore))

	return &dto.EnqueueResult{
		QueueID:       queue.ID,
		EntryID:       entry.ID,
		PriorityScore: entry.PriorityScore,
		Status:        entry.Status,
	}, nil
}

func findSlot(slots []models.TimeSlot, startTime, endTime string) *models.TimeSlot {
	for i := range slots {
		if slots[i].StartTime == startTime && slots[i].EndTime == endTime {
			return &slots[i]
		}
	}
	return nil
}
