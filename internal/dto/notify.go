package dto

// NotifyRequest asks for delivery of an allocation outcome notification.
// The outcome itself comes from the student's stored allocation status;
// replays return the stored record instead of creating a duplicate.
type NotifyRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid4"`
	BookingID string `json:"booking_id" validate:"omitempty,uuid4"`
}

// MarkNotificationReadRequest flags one notification as read.
type MarkNotificationReadRequest struct {
	NotificationID string `json:"notification_id" validate:"required,uuid4"`
}
