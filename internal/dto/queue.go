package dto

// EnqueueRequest asks to place a student in the waiting queue for a slot.
type EnqueueRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid4"`
	ReceiptID string `json:"receipt_id" validate:"required,uuid4"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// EnqueueResult confirms the queued entry and its score snapshot.
type EnqueueResult struct {
	QueueID       string `json:"queue_id"`
	EntryID       string `json:"entry_id"`
	PriorityScore int    `json:"priority_score"`
	Status        string `json:"status"`
}
