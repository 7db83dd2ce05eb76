package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elitheslime01/gymmate-2024/internal/dto"
	"github.com/elitheslime01/gymmate-2024/internal/models"
	appErrors "github.com/elitheslime01/gymmate-2024/pkg/errors"
	"github.com/elitheslime01/gymmate-2024/pkg/jobs"
)

func TestRecordOutcomeAllocatedQueuesConfirmation(t *testing.T) {
	statuses := &statusRepoStub{}
	dispatcher := &dispatcherStub{}
	service := NewNotificationService(statuses, &notificationRepoStub{}, dispatcher, nil, nil)

	err := service.RecordOutcome(context.Background(), dto.StatusChange{
		StudentID: "student-1",
		BookingID: "booking-1",
		Status:    models.AllocationStatusAllocated,
	})
	require.NoError(t, err)

	require.Len(t, statuses.upserted, 1)
	stored := statuses.upserted[0]
	assert.Equal(t, models.AllocationStatusAllocated, stored.Status)
	require.NotNil(t, stored.AllocatedAt)
	assert.Nil(t, stored.Reason)

	require.Len(t, dispatcher.jobs, 1)
	payload, ok := dispatcher.jobs[0].Payload.(dto.OutcomeJob)
	require.True(t, ok)
	assert.Equal(t, models.NotificationTypeBookingConfirmed, payload.Type)
	assert.Equal(t, OutcomeJobType, dispatcher.jobs[0].Type)
}

func TestRecordOutcomeFailedCarriesReason(t *testing.T) {
	statuses := &statusRepoStub{}
	dispatcher := &dispatcherStub{}
	service := NewNotificationService(statuses, &notificationRepoStub{}, dispatcher, nil, nil)

	err := service.RecordOutcome(context.Background(), dto.StatusChange{
		StudentID: "student-1",
		Status:    models.AllocationStatusFailed,
		Reason:    models.ReasonNoSlots,
	})
	require.NoError(t, err)

	stored := statuses.upserted[0]
	require.NotNil(t, stored.Reason)
	assert.Equal(t, models.ReasonNoSlots, *stored.Reason)
	assert.Nil(t, stored.AllocatedAt)

	payload := dispatcher.jobs[0].Payload.(dto.OutcomeJob)
	assert.Equal(t, models.NotificationTypeQueueFail, payload.Type)
}

func TestRecordOutcomeToleratesDispatchFailure(t *testing.T) {
	statuses := &statusRepoStub{}
	dispatcher := &dispatcherStub{err: assert.AnError}
	service := NewNotificationService(statuses, &notificationRepoStub{}, dispatcher, nil, nil)

	err := service.RecordOutcome(context.Background(), dto.StatusChange{
		StudentID: "student-1",
		Status:    models.AllocationStatusFailed,
	})
	require.NoError(t, err)
	assert.Len(t, statuses.upserted, 1)
}

func TestProcessOutcomeStoresNotification(t *testing.T) {
	notifications := &notificationRepoStub{}
	service := NewNotificationService(&statusRepoStub{}, notifications, nil, nil, nil)

	err := service.ProcessOutcome(context.Background(), jobs.Job{
		ID:   "job-1",
		Type: OutcomeJobType,
		Payload: dto.OutcomeJob{
			StudentID: "student-1",
			BookingID: "booking-1",
			Type:      models.NotificationTypeBookingConfirmed,
		},
	})
	require.NoError(t, err)

	require.Len(t, notifications.stored, 1)
	stored := notifications.stored[0]
	assert.Equal(t, "Booking confirmed", stored.Title)
	assert.Equal(t, "Your GymMate booking has been confirmed.", stored.Message)
}

func TestProcessOutcomeRejectsUnexpectedPayload(t *testing.T) {
	service := NewNotificationService(&statusRepoStub{}, &notificationRepoStub{}, nil, nil, nil)

	err := service.ProcessOutcome(context.Background(), jobs.Job{ID: "job-1", Payload: "garbage"})
	require.Error(t, err)
}

func TestNotifyDerivesOutcomeFromStoredStatus(t *testing.T) {
	statuses := &statusRepoStub{current: &models.AllocationStatus{
		StudentID: "student-1",
		BookingID: "booking-1",
		Status:    models.AllocationStatusAllocated,
	}}
	notifications := &notificationRepoStub{}
	service := NewNotificationService(statuses, notifications, nil, nil, nil)

	result, err := service.Notify(context.Background(), dto.NotifyRequest{
		StudentID: "5f3c3e4e-9b1a-4d7c-8f2e-1a2b3c4d5e6f",
	})
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, "delivered", result.Status)

	// The stored status decides the notification, not the caller.
	stored := notifications.stored[0]
	assert.Equal(t, models.NotificationTypeBookingConfirmed, stored.Type)
	assert.Equal(t, "booking-1", stored.BookingID)
	assert.Equal(t, "Booking confirmed", stored.Title)
}

func TestNotifyFailedStatusCarriesStoredReason(t *testing.T) {
	reason := "Slot closed for maintenance"
	statuses := &statusRepoStub{current: &models.AllocationStatus{
		StudentID: "student-1",
		Status:    models.AllocationStatusFailed,
		Reason:    &reason,
	}}
	notifications := &notificationRepoStub{}
	service := NewNotificationService(statuses, notifications, nil, nil, nil)

	_, err := service.Notify(context.Background(), dto.NotifyRequest{
		StudentID: "5f3c3e4e-9b1a-4d7c-8f2e-1a2b3c4d5e6f",
	})
	require.NoError(t, err)

	stored := notifications.stored[0]
	assert.Equal(t, models.NotificationTypeQueueFail, stored.Type)
	assert.Equal(t, "Allocation update", stored.Title)
	assert.Equal(t, reason, stored.Message)
}

func TestNotifyDefaultsFailureReason(t *testing.T) {
	statuses := &statusRepoStub{current: &models.AllocationStatus{
		StudentID: "student-1",
		Status:    models.AllocationStatusFailed,
	}}
	notifications := &notificationRepoStub{}
	service := NewNotificationService(statuses, notifications, nil, nil, nil)

	result, err := service.Notify(context.Background(), dto.NotifyRequest{
		StudentID: "5f3c3e4e-9b1a-4d7c-8f2e-1a2b3c4d5e6f",
	})
	require.NoError(t, err)
	assert.True(t, result.Created)

	stored := notifications.stored[0]
	assert.Equal(t, "Allocation update", stored.Title)
	assert.Equal(t, models.ReasonNoSlots, stored.Message)
}

func TestNotifyReplayReturnsStoredNotification(t *testing.T) {
	statuses := &statusRepoStub{current: &models.AllocationStatus{
		StudentID: "student-1",
		BookingID: "booking-1",
		Status:    models.AllocationStatusAllocated,
	}}
	notifications := &notificationRepoStub{existing: &models.Notification{ID: "notif-1"}}
	service := NewNotificationService(statuses, notifications, nil, nil, nil)

	result, err := service.Notify(context.Background(), dto.NotifyRequest{
		StudentID: "5f3c3e4e-9b1a-4d7c-8f2e-1a2b3c4d5e6f",
	})
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, "already delivered", result.Status)
	assert.Equal(t, "notif-1", result.NotificationID)
}

func TestNotifyReportsPendingWhileWaiting(t *testing.T) {
	statuses := &statusRepoStub{current: &models.AllocationStatus{
		StudentID: "student-1",
		Status:    models.AllocationStatusWaiting,
	}}
	notifications := &notificationRepoStub{}
	service := NewNotificationService(statuses, notifications, nil, nil, nil)

	result, err := service.Notify(context.Background(), dto.NotifyRequest{
		StudentID: "5f3c3e4e-9b1a-4d7c-8f2e-1a2b3c4d5e6f",
	})
	require.NoError(t, err)
	assert.Equal(t, "still pending", result.Status)
	assert.False(t, result.Created)
	assert.Empty(t, notifications.stored)
}

func TestNotifyWithoutStoredStatus(t *testing.T) {
	service := NewNotificationService(&statusRepoStub{}, &notificationRepoStub{}, nil, nil, nil)

	_, err := service.Notify(context.Background(), dto.NotifyRequest{
		StudentID: "5f3c3e4e-9b1a-4d7c-8f2e-1a2b3c4d5e6f",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestNotifyValidatesPayload(t *testing.T) {
	service := NewNotificationService(&statusRepoStub{}, &notificationRepoStub{}, nil, nil, nil)

	_, err := service.Notify(context.Background(), dto.NotifyRequest{StudentID: "not-a-uuid"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCurrentStatusMissingRecord(t *testing.T) {
	service := NewNotificationService(&statusRepoStub{}, &notificationRepoStub{}, nil, nil, nil)

	_, err := service.CurrentStatus(context.Background(), "student-1", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

// --- Fixtures ---

type statusRepoStub struct {
	upserted []models.AllocationStatus
	current  *models.AllocationStatus
}

func (s *statusRepoStub) Upsert(ctx context.Context, status *models.AllocationStatus) error {
	s.upserted = append(s.upserted, *status)
	return nil
}

func (s *statusRepoStub) FindCurrent(ctx context.Context, studentID string) (*models.AllocationStatus, error) {
	if s.current == nil {
		return nil, sql.ErrNoRows
	}
	return s.current, nil
}

func (s *statusRepoStub) FindByBooking(ctx context.Context, studentID, bookingID string) (*models.AllocationStatus, error) {
	if s.current == nil {
		return nil, sql.ErrNoRows
	}
	return s.current, nil
}

func (s *statusRepoStub) ListByStudent(ctx context.Context, studentID string) ([]models.AllocationStatus, error) {
	return s.upserted, nil
}

type notificationRepoStub struct {
	existing *models.Notification
	stored   []models.Notification
}

func (s *notificationRepoStub) FindOrCreate(ctx context.Context, notification *models.Notification) (*models.Notification, bool, error) {
	if s.existing != nil {
		return s.existing, false, nil
	}
	notification.ID = "notif-new"
	s.stored = append(s.stored, *notification)
	return notification, true, nil
}

func (s *notificationRepoStub) ListByStudent(ctx context.Context, studentID string, unreadOnly bool) ([]models.Notification, error) {
	return s.stored, nil
}

func (s *notificationRepoStub) MarkRead(ctx context.Context, id string) error {
	return nil
}

type dispatcherStub struct {
	jobs []jobs.Job
	err  error
}

func (s *dispatcherStub) Enqueue(job jobs.Job) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job)
	return nil
}
