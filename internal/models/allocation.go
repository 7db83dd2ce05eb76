package models

import "time"

// Allocation outcome states.
const (
	AllocationStatusWaiting   = "WAITING"
	AllocationStatusAllocated = "ALLOCATED"
	AllocationStatusFailed    = "FAILED"
)

// ReasonNoSlots is recorded when capacity ran out before a student's turn.
const ReasonNoSlots = "No slots available"

// AllocationStatus is the current outcome of a student's allocation attempt,
// optionally scoped to a booking. Rows are upserted, never appended, so the
// pair (student, booking) has exactly one live record.
type AllocationStatus struct {
	ID          string     `db:"id" json:"id"`
	StudentID   string     `db:"student_id" json:"student_id"`
	BookingID   string     `db:"booking_id" json:"booking_id,omitempty"`
	Status      string     `db:"status" json:"status"`
	Reason      *string    `db:"reason" json:"reason,omitempty"`
	AllocatedAt *time.Time `db:"allocated_at" json:"allocated_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
