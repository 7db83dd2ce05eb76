package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/elitheslime01/gymmate-2024/internal/models"
)

// NotificationRepository provides persistence for outcome notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// FindOrCreate stores the notification unless one already exists for the
// (student, booking, type) key. The returned flag reports whether this call
// created the row, so callers can tell first delivery from a replay.
func (r *NotificationRepository) FindOrCreate(ctx context.Context, notification *models.Notification) (*models.Notification, bool, error) {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if notification.SentAt.IsZero() {
		notification.SentAt = now
	}
	notification.CreatedAt = now

	const insert = `INSERT INTO notifications (id, student_id, booking_id, type, title, message, metadata, sent_at, read, created_at)
		VALUES (:id, :student_id, :booking_id, :type, :title, :message, :metadata, :sent_at, :read, :created_at)
		ON CONFLICT (student_id, booking_id, type) DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, insert, notification)
	if err != nil {
		return nil, false, fmt.Errorf("insert notification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("insert notification rows: %w", err)
	}
	if affected > 0 {
		return notification, true, nil
	}

	const query = `SELECT id, student_id, booking_id, type, title, message, metadata, sent_at, read, created_at FROM notifications WHERE student_id = $1 AND booking_id = $2 AND type = $3`
	var existing models.Notification
	if err := r.db.GetContext(ctx, &existing, query, notification.StudentID, notification.BookingID, notification.Type); err != nil {
		return nil, false, fmt.Errorf("load notification: %w", err)
	}
	return &existing, false, nil
}

// ListByStudent returns a student's notifications, newest first.
func (r *NotificationRepository) ListByStudent(ctx context.Context, studentID string, unreadOnly bool) ([]models.Notification, error) {
	query := `SELECT id, student_id, booking_id, type, title, message, metadata, sent_at, read, created_at FROM notifications WHERE student_id = $1`
	if unreadOnly {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY sent_at DESC`

	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, studentID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead flags one notification as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	const query = `UPDATE notifications SET read = TRUE WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("notification %s: no rows updated", id)
	}
	return nil
}
