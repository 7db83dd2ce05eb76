package dto

import "time"

// QueueAllocationResult summarises one queue's allocation pass.
type QueueAllocationResult struct {
	QueueID     string `json:"queue_id"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Allocated   int    `json:"allocated"`
	Unallocated int    `json:"unallocated"`
}

// StatusChange records a single student outcome produced by a run.
type StatusChange struct {
	StudentID string `json:"student_id"`
	BookingID string `json:"booking_id,omitempty"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

// AllocationRunSummary aggregates an entire allocation pass.
type AllocationRunSummary struct {
	PerQueue         []QueueAllocationResult `json:"per_queue"`
	TotalAllocated   int                     `json:"total_allocated"`
	TotalUnallocated int                     `json:"total_unallocated"`
	StatusChanges    []StatusChange          `json:"status_changes"`
	SkippedQueues    int                     `json:"skipped_queues"`
	RanAt            time.Time               `json:"ran_at"`
}

// NotifyResult reports the outcome of a re-delivery check.
type NotifyResult struct {
	Status         string `json:"status"`
	NotificationID string `json:"notification_id,omitempty"`
	Created        bool   `json:"created"`
}

// OutcomeJob is the payload handed to the notification worker queue.
type OutcomeJob struct {
	StudentID string `json:"student_id"`
	BookingID string `json:"booking_id,omitempty"`
	Type      string `json:"type"`
	Reason    string `json:"reason,omitempty"`
}
