package dto

// TimeSlotInput describes one bookable window in a schedule request.
type TimeSlotInput struct {
	StartTime      string `json:"start_time" validate:"required"`
	EndTime        string `json:"end_time" validate:"required"`
	AvailableSlots int    `json:"available_slots" validate:"required,min=1"`
}

// CreateScheduleRequest creates a gym day with its time slots.
type CreateScheduleRequest struct {
	Date  string          `json:"date" validate:"required,datetime=2006-01-02"`
	Slots []TimeSlotInput `json:"slots" validate:"required,min=1,dive"`
}

// UpdateTimeSlotRequest adjusts a slot's capacity and availability label.
type UpdateTimeSlotRequest struct {
	AvailableSlots int    `json:"available_slots" validate:"min=0"`
	Status         string `json:"status" validate:"required,oneof='Available' 'Fully Booked'"`
}
