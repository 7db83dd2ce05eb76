package dto

// UpdateBookingEntryRequest transitions a committed student's lifecycle
// state for their booked slot.
type UpdateBookingEntryRequest struct {
	Status string `json:"status" validate:"required,oneof='Awaiting Arrival' 'Attended' 'No Show'"`
}
