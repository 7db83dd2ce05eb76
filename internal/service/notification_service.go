package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/elitheslime01/gymmate-2024/internal/dto"
	"github.com/elitheslime01/gymmate-2024/internal/models"
	appErrors "github.com/elitheslime01/gymmate-2024/pkg/errors"
	"github.com/elitheslime01/gymmate-2024/pkg/jobs"
)

// OutcomeJobType labels allocation outcome jobs on the worker queue.
const OutcomeJobType = "allocation_outcome"

type statusRepository interface {
	Upsert(ctx context.Context, status *models.AllocationStatus) error
	FindCurrent(ctx context.Context, studentID string) (*models.AllocationStatus, error)
	FindByBooking(ctx context.Context, studentID, bookingID string) (*models.AllocationStatus, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.AllocationStatus, error)
}

type notificationRepository interface {
	FindOrCreate(ctx context.Context, notification *models.Notification) (*models.Notification, bool, error)
	ListByStudent(ctx context.Context, studentID string, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// NotificationService records allocation outcomes and emits the matching
// notifications. Both halves are idempotent: statuses upsert on the
// (student, booking) key and notifications dedupe on (student, booking,
// type), so replaying an outcome is harmless.
type NotificationService struct {
	statuses      statusRepository
	notifications notificationRepository
	dispatcher    jobDispatcher
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewNotificationService wires the outcome pipeline.
func NewNotificationService(
	statuses statusRepository,
	notifications notificationRepository,
	dispatcher jobDispatcher,
	validate *validator.Validate,
	logger *zap.Logger,
) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		statuses:      statuses,
		notifications: notifications,
		dispatcher:    dispatcher,
		validator:     validate,
		logger:        logger,
	}
}

// SetDispatcher installs the worker queue after construction. The service
// and the queue reference each other, so one side has to be wired late.
func (s *NotificationService) SetDispatcher(dispatcher jobDispatcher) {
	s.dispatcher = dispatcher
}

// RecordWaiting marks a freshly queued student as waiting for allocation.
func (s *NotificationService) RecordWaiting(ctx context.Context, studentID string) error {
	return s.statuses.Upsert(ctx, &models.AllocationStatus{
		StudentID: studentID,
		Status:    models.AllocationStatusWaiting,
	})
}

// RecordOutcome persists an allocation outcome and queues its notification.
// A dispatch failure is logged, not returned: the status record is the
// source of truth and the notify endpoint can re-deliver later.
func (s *NotificationService) RecordOutcome(ctx context.Context, change dto.StatusChange) error {
	status := &models.AllocationStatus{
		StudentID: change.StudentID,
		BookingID: change.BookingID,
		Status:    change.Status,
	}
	if change.Reason != "" {
		reason := change.Reason
		status.Reason = &reason
	}
	if change.Status == models.AllocationStatusAllocated {
		now := time.Now().UTC()
		status.AllocatedAt = &now
	}
	if err := s.statuses.Upsert(ctx, status); err != nil {
		return fmt.Errorf("record status: %w", err)
	}

	if s.dispatcher == nil {
		return nil
	}
	job := jobs.Job{
		ID:   uuid.NewString(),
		Type: OutcomeJobType,
		Payload: dto.OutcomeJob{
			StudentID: change.StudentID,
			BookingID: change.BookingID,
			Type:      notificationTypeFor(change.Status),
			Reason:    change.Reason,
		},
	}
	if err := s.dispatcher.Enqueue(job); err != nil {
		s.logger.Warn("outcome job dispatch failed",
			zap.String("student_id", change.StudentID),
			zap.Error(err))
	}
	return nil
}

// ProcessOutcome is the worker handler that turns outcome jobs into stored
// notifications.
func (s *NotificationService) ProcessOutcome(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(dto.OutcomeJob)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for job %s", job.Payload, job.ID)
	}

	_, created, err := s.emit(ctx, payload)
	if err != nil {
		return err
	}
	if created {
		s.logger.Info("notification emitted",
			zap.String("student_id", payload.StudentID),
			zap.String("type", payload.Type))
	}
	return nil
}

// Notify handles explicit delivery requests. The outcome is read from the
// student's stored allocation status, so a caller can only trigger the
// notification that matches what actually happened. Replays return the
// stored notification with Created=false instead of emitting a duplicate.
func (s *NotificationService) Notify(ctx context.Context, req dto.NotifyRequest) (*dto.NotifyResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notify payload")
	}

	status, err := s.CurrentStatus(ctx, req.StudentID, req.BookingID)
	if err != nil {
		return nil, err
	}

	if status.Status == models.AllocationStatusWaiting {
		return &dto.NotifyResult{Status: "still pending"}, nil
	}

	reason := ""
	if status.Reason != nil {
		reason = *status.Reason
	}
	notification, created, err := s.emit(ctx, dto.OutcomeJob{
		StudentID: status.StudentID,
		BookingID: status.BookingID,
		Type:      notificationTypeFor(status.Status),
		Reason:    reason,
	})
	if err != nil {
		return nil, err
	}

	result := &dto.NotifyResult{
		Status:         "delivered",
		NotificationID: notification.ID,
		Created:        created,
	}
	if !created {
		result.Status = "already delivered"
	}
	return result, nil
}

// CurrentStatus returns the student's latest allocation status record, or
// the record for one booking when bookingID is set.
func (s *NotificationService) CurrentStatus(ctx context.Context, studentID, bookingID string) (*models.AllocationStatus, error) {
	var (
		status *models.AllocationStatus
		err    error
	)
	if bookingID != "" {
		status, err = s.statuses.FindByBooking(ctx, studentID, bookingID)
	} else {
		status, err = s.statuses.FindCurrent(ctx, studentID)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no allocation status for student")
		}
		return nil, fmt.Errorf("load status: %w", err)
	}
	return status, nil
}

// StatusHistory returns every allocation status recorded for a student,
// newest first.
func (s *NotificationService) StatusHistory(ctx context.Context, studentID string) ([]models.AllocationStatus, error) {
	return s.statuses.ListByStudent(ctx, studentID)
}

// ListByStudent returns a student's notifications.
func (s *NotificationService) ListByStudent(ctx context.Context, studentID string, unreadOnly bool) ([]models.Notification, error) {
	return s.notifications.ListByStudent(ctx, studentID, unreadOnly)
}

// MarkRead flags a notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	return s.notifications.MarkRead(ctx, id)
}

func (s *NotificationService) emit(ctx context.Context, payload dto.OutcomeJob) (*models.Notification, bool, error) {
	title, message := notificationContent(payload.Type, payload.Reason)

	metadata, err := json.Marshal(map[string]string{
		"booking_id": payload.BookingID,
		"reason":     payload.Reason,
	})
	if err != nil {
		return nil, false, fmt.Errorf("marshal metadata: %w", err)
	}

	notification, created, err := s.notifications.FindOrCreate(ctx, &models.Notification{
		StudentID: payload.StudentID,
		BookingID: payload.BookingID,
		Type:      payload.Type,
		Title:     title,
		Message:   message,
		Metadata:  metadata,
	})
	if err != nil {
		return nil, false, fmt.Errorf("store notification: %w", err)
	}
	return notification, created, nil
}

func notificationTypeFor(status string) string {
	if status == models.AllocationStatusAllocated {
		return models.NotificationTypeBookingConfirmed
	}
	return models.NotificationTypeQueueFail
}

func notificationContent(notificationType, reason string) (title, message string) {
	switch notificationType {
	case models.NotificationTypeBookingConfirmed:
		return "Booking confirmed", "Your GymMate booking has been confirmed."
	default:
		if reason == "" {
			reason = models.ReasonNoSlots
		}
		return "Allocation update", reason
	}
}
