package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elitheslime01/gymmate-2024/internal/dto"
	"github.com/elitheslime01/gymmate-2024/internal/models"
	"github.com/elitheslime01/gymmate-2024/internal/service"
)

type queueRepoMock struct{}

func (m *queueRepoMock) FindOrCreate(ctx context.Context, date time.Time, startTime, endTime string) (*models.Queue, error) {
	return &models.Queue{ID: "queue-1", Date: date, StartTime: startTime, EndTime: endTime}, nil
}

func (m *queueRepoMock) HasEntry(ctx context.Context, queueID, studentID string) (bool, error) {
	return false, nil
}

func (m *queueRepoMock) InsertEntry(ctx context.Context, entry *models.QueueEntry) error {
	entry.ID = "entry-1"
	return nil
}

type studentReaderMock struct{}

func (m *studentReaderMock) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return &models.Student{ID: id}, nil
}

type receiptReaderMock struct{}

func (m *receiptReaderMock) FindByID(ctx context.Context, id string) (*models.Receipt, error) {
	return &models.Receipt{ID: id, StudentID: "3b8f0c9a-1d2e-4f5a-9b6c-7d8e9f0a1b2c"}, nil
}

type scheduleReaderMock struct{}

func (m *scheduleReaderMock) FindByDate(ctx context.Context, date time.Time) (*models.ScheduleDetail, error) {
	return &models.ScheduleDetail{
		Schedule: models.Schedule{ID: "schedule-1", Date: date},
		Slots: []models.TimeSlot{
			{ID: "slot-1", ScheduleID: "schedule-1", StartTime: "08:00", EndTime: "09:00", AvailableSlots: 5, Status: models.TimeSlotStatusAvailable},
		},
	}, nil
}

type bookingReaderMock struct{}

func (m *bookingReaderMock) HasStudentForDate(ctx context.Context, studentID string, date time.Time, startTime, endTime string) (bool, error) {
	return false, nil
}

func newQueueTestHandler() *QueueHandler {
	svc := service.NewQueueService(
		&queueRepoMock{},
		&studentReaderMock{},
		&receiptReaderMock{},
		&scheduleReaderMock{},
		&bookingReaderMock{},
		nil,
		service.DefaultPriorityPolicy(),
		nil,
		nil,
	)
	return NewQueueHandler(svc)
}

func TestQueueHandlerEnqueue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newQueueTestHandler()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.EnqueueRequest{
		StudentID: "3b8f0c9a-1d2e-4f5a-9b6c-7d8e9f0a1b2c",
		ReceiptID: "0b1c2d3e-4f5a-4b6c-8d7e-9f0a1b2c3d4e",
		Date:      "2024-11-04",
		StartTime: "08:00",
		EndTime:   "09:00",
	})
	req, _ := http.NewRequest(http.MethodPost, "/queues", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Enqueue(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data dto.EnqueueResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "queue-1", envelope.Data.QueueID)
	assert.Equal(t, models.QueueStatusWaiting, envelope.Data.Status)
}

func TestQueueHandlerEnqueueInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newQueueTestHandler()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/queues", bytes.NewReader([]byte(`invalid`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Enqueue(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueueHandlerEnqueueConflictOnExistingBooking(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := service.NewQueueService(
		&queueRepoMock{},
		&studentReaderMock{},
		&receiptReaderMock{},
		&scheduleReaderMock{},
		&bookedReaderMock{},
		nil,
		service.DefaultPriorityPolicy(),
		nil,
		nil,
	)
	handler := NewQueueHandler(svc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.EnqueueRequest{
		StudentID: "3b8f0c9a-1d2e-4f5a-9b6c-7d8e9f0a1b2c",
		ReceiptID: "0b1c2d3e-4f5a-4b6c-8d7e-9f0a1b2c3d4e",
		Date:      "2024-11-04",
		StartTime: "08:00",
		EndTime:   "09:00",
	})
	req, _ := http.NewRequest(http.MethodPost, "/queues", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Enqueue(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

type bookedReaderMock struct{}

func (m *bookedReaderMock) HasStudentForDate(ctx context.Context, studentID string, date time.Time, startTime, endTime string) (bool, error) {
	return true, nil
}
