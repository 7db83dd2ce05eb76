package models

import "time"

// Receipt is an acknowledgement receipt a student must hold before queueing
// for a slot.
type Receipt struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	StudentID string    `db:"student_id" json:"student_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
