package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elitheslime01/gymmate-2024/internal/dto"
	"github.com/elitheslime01/gymmate-2024/internal/models"
	appErrors "github.com/elitheslime01/gymmate-2024/pkg/errors"
)

const (
	testStudentID = "5f3c3e4e-9b1a-4d7c-8f2e-1a2b3c4d5e6f"
	testReceiptID = "0b1c2d3e-4f5a-4b6c-8d7e-9f0a1b2c3d4e"
)

func TestEnqueueSnapshotsPriorityScore(t *testing.T) {
	fixture := newQueueFixture(t)
	fixture.students.items[testStudentID] = &models.Student{
		ID:                   testStudentID,
		AttendedSlots:        3,
		UnsuccessfulAttempts: 2,
		NoShows:              2,
	}

	result, err := fixture.service.Enqueue(context.Background(), validEnqueueRequest())
	require.NoError(t, err)
	assert.Equal(t, "queue-1", result.QueueID)
	assert.Equal(t, models.QueueStatusWaiting, result.Status)
	// 3 attended + 2 unsuccessful - 2/2 no-shows - 3/3 decay.
	assert.Equal(t, 3, result.PriorityScore)

	require.Len(t, fixture.queues.inserted, 1)
	entry := fixture.queues.inserted[0]
	assert.Equal(t, "slot-1", entry.TimeSlotID)
	assert.Equal(t, "schedule-1", entry.ScheduleID)
	assert.Equal(t, 3, entry.PriorityScore)

	assert.Equal(t, []string{testStudentID}, fixture.statuses.waiting)
}

func TestEnqueueRejectsUnknownStudent(t *testing.T) {
	fixture := newQueueFixture(t)

	_, err := fixture.service.Enqueue(context.Background(), validEnqueueRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnqueueRejectsForeignReceipt(t *testing.T) {
	fixture := newQueueFixture(t)
	fixture.students.items[testStudentID] = &models.Student{ID: testStudentID}
	fixture.receipts.owner = "someone-else"

	_, err := fixture.service.Enqueue(context.Background(), validEnqueueRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestEnqueueRejectsExistingBooking(t *testing.T) {
	fixture := newQueueFixture(t)
	fixture.students.items[testStudentID] = &models.Student{ID: testStudentID}
	fixture.bookings.booked = true

	_, err := fixture.service.Enqueue(context.Background(), validEnqueueRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, fixture.queues.inserted)
}

func TestEnqueueRejectsDoubleQueueing(t *testing.T) {
	fixture := newQueueFixture(t)
	fixture.students.items[testStudentID] = &models.Student{ID: testStudentID}
	fixture.queues.hasEntry = true

	_, err := fixture.service.Enqueue(context.Background(), validEnqueueRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErrors.FromError(err).Code)
	// Both duplicate shapes answer 409.
	assert.Equal(t, http.StatusConflict, appErrors.FromError(err).Status)
	assert.Empty(t, fixture.queues.inserted)
}

func TestEnqueueRejectsMissingSlot(t *testing.T) {
	fixture := newQueueFixture(t)
	fixture.students.items[testStudentID] = &models.Student{ID: testStudentID}

	req := validEnqueueRequest()
	req.StartTime = "22:00"
	req.EndTime = "23:00"

	_, err := fixture.service.Enqueue(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnqueueValidatesPayload(t *testing.T) {
	fixture := newQueueFixture(t)

	_, err := fixture.service.Enqueue(context.Background(), dto.EnqueueRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

// --- Fixtures ---

func validEnqueueRequest() dto.EnqueueRequest {
	return dto.EnqueueRequest{
		StudentID: testStudentID,
		ReceiptID: testReceiptID,
		Date:      "2024-11-04",
		StartTime: "08:00",
		EndTime:   "09:00",
	}
}

type queueFixture struct {
	service  *QueueService
	queues   *queueEntryStub
	students *allocationStudentStubReader
	receipts *receiptReaderStub
	bookings *bookingReaderStub
	statuses *waitingRecorderStub
}

func newQueueFixture(t *testing.T) *queueFixture {
	t.Helper()
	queues := &queueEntryStub{}
	students := &allocationStudentStubReader{items: map[string]*models.Student{}}
	receipts := &receiptReaderStub{owner: testStudentID}
	schedules := &scheduleReaderStub{}
	bookings := &bookingReaderStub{}
	statuses := &waitingRecorderStub{}

	service := NewQueueService(queues, students, receipts, schedules, bookings, statuses, DefaultPriorityPolicy(), nil, nil)
	return &queueFixture{
		service:  service,
		queues:   queues,
		students: students,
		receipts: receipts,
		bookings: bookings,
		statuses: statuses,
	}
}

type queueEntryStub struct {
	hasEntry bool
	inserted []models.QueueEntry
}

func (s *queueEntryStub) FindOrCreate(ctx context.Context, date time.Time, startTime, endTime string) (*models.Queue, error) {
	return &models.Queue{ID: "queue-1", Date: date, StartTime: startTime, EndTime: endTime}, nil
}

func (s *queueEntryStub) HasEntry(ctx context.Context, queueID, studentID string) (bool, error) {
	return s.hasEntry, nil
}

func (s *queueEntryStub) InsertEntry(ctx context.Context, entry *models.QueueEntry) error {
	entry.ID = "entry-1"
	s.inserted = append(s.inserted, *entry)
	return nil
}

type allocationStudentStubReader struct {
	items map[string]*models.Student
}

func (s *allocationStudentStubReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	student, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return student, nil
}

type receiptReaderStub struct {
	owner string
}

func (s *receiptReaderStub) FindByID(ctx context.Context, id string) (*models.Receipt, error) {
	return &models.Receipt{ID: id, Code: "RCPT-1", StudentID: s.owner}, nil
}

type scheduleReaderStub struct{}

func (s *scheduleReaderStub) FindByDate(ctx context.Context, date time.Time) (*models.ScheduleDetail, error) {
	return &models.ScheduleDetail{
		Schedule: models.Schedule{ID: "schedule-1", Date: date},
		Slots: []models.TimeSlot{
			{ID: "slot-1", ScheduleID: "schedule-1", StartTime: "08:00", EndTime: "09:00", AvailableSlots: 10, Status: models.TimeSlotStatusAvailable},
		},
	}, nil
}

type bookingReaderStub struct {
	booked bool
}

func (s *bookingReaderStub) HasStudentForDate(ctx context.Context, studentID string, date time.Time, startTime, endTime string) (bool, error) {
	return s.booked, nil
}

type waitingRecorderStub struct {
	waiting []string
}

func (s *waitingRecorderStub) RecordWaiting(ctx context.Context, studentID string) error {
	s.waiting = append(s.waiting, studentID)
	return nil
}
