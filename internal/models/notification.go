package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Notification types emitted by the allocation pipeline.
const (
	NotificationTypeBookingConfirmed = "BOOKING_CONFIRMED"
	NotificationTypeQueueFail        = "QUEUE_FAIL"
)

// Notification is a persisted outcome record for a student. The unique key
// (student, booking, type) makes emission idempotent; delivery is someone
// else's problem.
type Notification struct {
	ID        string         `db:"id" json:"id"`
	StudentID string         `db:"student_id" json:"student_id"`
	BookingID string         `db:"booking_id" json:"booking_id,omitempty"`
	Type      string         `db:"type" json:"type"`
	Title     string         `db:"title" json:"title"`
	Message   string         `db:"message" json:"message"`
	Metadata  types.JSONText `db:"metadata" json:"metadata,omitempty"`
	SentAt    time.Time      `db:"sent_at" json:"sent_at"`
	Read      bool           `db:"read" json:"read"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
