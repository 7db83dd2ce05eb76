package dto

// Student history events accepted by the tracking endpoint.
const (
	StudentEventUnsuccessful = "unsuccessful"
	StudentEventNoShow       = "no_show"
	StudentEventAttended     = "attended"
)

// CreateStudentRequest registers a new gym member.
type CreateStudentRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required,min=2"`
}

// UpdateStudentRequest changes a member's profile fields.
type UpdateStudentRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	FullName string `json:"full_name" validate:"omitempty,min=2"`
}

// StudentEventRequest records a history event against a member.
type StudentEventRequest struct {
	Event string `json:"event" validate:"required,oneof=unsuccessful no_show attended"`
}
