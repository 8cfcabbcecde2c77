package dto

// FacultyAssignmentRequest nominates or removes faculty members.
type FacultyAssignmentRequest struct {
	UserIDs []string `json:"userIds" validate:"required,min=1,dive,required"`
}

// RSVPRequest records a faculty member's answer to a nomination.
type RSVPRequest struct {
	Accept *bool `json:"accept" validate:"required"`
}

// JobAcceptedResponse is returned when work was queued in the background.
type JobAcceptedResponse struct {
	RunID string `json:"runId"`
}
