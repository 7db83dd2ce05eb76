package models

import "time"

// Queue entry lifecycle labels.
const (
	QueueStatusWaiting      = "Waiting for allocation"
	QueueStatusNotAllocated = "Not allocated"
)

// Queue groups students waiting for one (date, time window) pair.
type Queue struct {
	ID        string    `db:"id" json:"id"`
	Date      time.Time `db:"date" json:"date"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// QueueEntry is one student's place in a queue. PriorityScore is a snapshot
// taken at enqueue time; QueuedAt breaks ties between equal scores.
type QueueEntry struct {
	ID            string    `db:"id" json:"id"`
	QueueID       string    `db:"queue_id" json:"queue_id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	ScheduleID    string    `db:"schedule_id" json:"schedule_id"`
	TimeSlotID    string    `db:"time_slot_id" json:"time_slot_id"`
	ReceiptID     string    `db:"receipt_id" json:"receipt_id"`
	PriorityScore int       `db:"priority_score" json:"priority_score"`
	Status        string    `db:"status" json:"status"`
	QueuedAt      time.Time `db:"queued_at" json:"queued_at"`
}
