package models

import "time"

// Time slot availability labels.
const (
	TimeSlotStatusAvailable   = "Available"
	TimeSlotStatusFullyBooked = "Fully Booked"
)

// Schedule is one gym day. Its bookable windows live in TimeSlot rows.
type Schedule struct {
	ID        string    `db:"id" json:"id"`
	Date      time.Time `db:"date" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TimeSlot is a bookable window within a schedule. AvailableSlots is the
// remaining seat count and never goes below zero.
type TimeSlot struct {
	ID             string    `db:"id" json:"id"`
	ScheduleID     string    `db:"schedule_id" json:"schedule_id"`
	StartTime      string    `db:"start_time" json:"start_time"`
	EndTime        string    `db:"end_time" json:"end_time"`
	AvailableSlots int       `db:"available_slots" json:"available_slots"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ScheduleDetail bundles a schedule with its time slots.
type ScheduleDetail struct {
	Schedule
	Slots []TimeSlot `json:"slots"`
}
