package models

import "time"

// Booking entry lifecycle labels.
const (
	BookingStatusAwaitingArrival = "Awaiting Arrival"
	BookingStatusAttended        = "Attended"
	BookingStatusNoShow          = "No Show"
)

// Booking holds the committed students for one (date, time window) pair.
type Booking struct {
	ID        string    `db:"id" json:"id"`
	Date      time.Time `db:"date" json:"date"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BookingEntry is one committed student in a booking. A student appears at
// most once per booking.
type BookingEntry struct {
	ID            string     `db:"id" json:"id"`
	BookingID     string     `db:"booking_id" json:"booking_id"`
	StudentID     string     `db:"student_id" json:"student_id"`
	ScheduleID    string     `db:"schedule_id" json:"schedule_id"`
	TimeSlotID    string     `db:"time_slot_id" json:"time_slot_id"`
	ReceiptID     string     `db:"receipt_id" json:"receipt_id"`
	PriorityScore int        `db:"priority_score" json:"priority_score"`
	Status        string     `db:"status" json:"status"`
	TimeIn        *time.Time `db:"time_in" json:"time_in,omitempty"`
	TimeOut       *time.Time `db:"time_out" json:"time_out,omitempty"`
}

// BookingDetail bundles a booking with its entries.
type BookingDetail struct {
	Booking
	Entries []BookingEntry `json:"entries"`
}
