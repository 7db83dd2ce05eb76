package models

import "time"

// Student represents a gym member together with the allocation history
// counters that feed the priority policy.
type Student struct {
	ID                   string    `db:"id" json:"id"`
	Email                string    `db:"email" json:"email"`
	FullName             string    `db:"full_name" json:"full_name"`
	UnsuccessfulAttempts int       `db:"unsuccessful_attempts" json:"unsuccessful_attempts"`
	NoShows              int       `db:"no_shows" json:"no_shows"`
	AttendedSlots        int       `db:"attended_slots" json:"attended_slots"`
	PriorityScore        int       `db:"priority_score" json:"priority_score"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
