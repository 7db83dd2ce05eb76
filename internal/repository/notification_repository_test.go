package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elitheslime01/gymmate-2024/internal/models"
)

func newNotificationMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestNotificationRepositoryFindOrCreateStoresNew(t *testing.T) {
	db, mock, cleanup := newNotificationMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(sqlmock.AnyArg(), "student-1", "booking-1", models.NotificationTypeBookingConfirmed, "Booking confirmed", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	notification, created, err := repo.FindOrCreate(context.Background(), &models.Notification{
		StudentID: "student-1",
		BookingID: "booking-1",
		Type:      models.NotificationTypeBookingConfirmed,
		Title:     "Booking confirmed",
		Message:   "Your GymMate booking has been confirmed.",
		Metadata:  []byte(`{}`),
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, notification.ID)
	assert.False(t, notification.SentAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryFindOrCreateReturnsExisting(t *testing.T) {
	db, mock, cleanup := newNotificationMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(0, 0))

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "student_id", "booking_id", "type", "title", "message", "metadata", "sent_at", "read", "created_at"}).
		AddRow("notif-1", "student-1", "booking-1", models.NotificationTypeBookingConfirmed, "Booking confirmed", "Your GymMate booking has been confirmed.", []byte(`{}`), now, false, now)
	mock.ExpectQuery("SELECT (.+) FROM notifications WHERE student_id").
		WithArgs("student-1", "booking-1", models.NotificationTypeBookingConfirmed).
		WillReturnRows(rows)

	notification, created, err := repo.FindOrCreate(context.Background(), &models.Notification{
		StudentID: "student-1",
		BookingID: "booking-1",
		Type:      models.NotificationTypeBookingConfirmed,
		Metadata:  []byte(`{}`),
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "notif-1", notification.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryListByStudentUnreadOnly(t *testing.T) {
	db, mock, cleanup := newNotificationMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "student_id", "booking_id", "type", "title", "message", "metadata", "sent_at", "read", "created_at"}).
		AddRow("notif-1", "student-1", "", models.NotificationTypeQueueFail, "Allocation update", models.ReasonNoSlots, []byte(`{}`), now, false, now)
	mock.ExpectQuery("SELECT (.+) FROM notifications WHERE student_id = \\$1 AND read = FALSE").
		WithArgs("student-1").
		WillReturnRows(rows)

	notifications, err := repo.ListByStudent(context.Background(), "student-1", true)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.False(t, notifications[0].Read)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryMarkReadMissingRow(t *testing.T) {
	db, mock, cleanup := newNotificationMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec("UPDATE notifications SET read = TRUE").
		WithArgs("notif-missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkRead(context.Background(), "notif-missing")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
