package dto

import "time"

// ActivityRef is the activity summary carried by notification payloads.
type ActivityRef struct {
	ID           string     `json:"id" validate:"required"`
	Title        string     `json:"title" validate:"required"`
	DateStarting *time.Time `json:"date_starting,omitempty"`
	DateEnding   *time.Time `json:"date_ending,omitempty"`
}

// NotificationPerson identifies someone mentioned in a notice.
type NotificationPerson struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// RunNotificationRequest triggers a job gated notice. Either activity or
// event must be present; they are interchangeable.
type RunNotificationRequest struct {
	RunID    string       `json:"runId" validate:"required"`
	Activity *ActivityRef `json:"activity,omitempty" validate:"omitempty"`
	Event    *ActivityRef `json:"event,omitempty" validate:"omitempty"`
	Emails   []string     `json:"emails" validate:"required,min=1,dive,email"`
}

// Target returns the referenced activity, preferring the activity field.
func (r RunNotificationRequest) Target() *ActivityRef {
	if r.Activity != nil {
		return r.Activity
	}
	return r.Event
}

// AssignmentNoticeRequest informs staff that a faculty member accepted.
type AssignmentNoticeRequest struct {
	Activity ActivityRef        `json:"activity" validate:"required"`
	Faculty  NotificationPerson `json:"faculty" validate:"required"`
}

// RejectionNoticeRequest informs the referrer that a faculty member declined.
type RejectionNoticeRequest struct {
	Activity ActivityRef        `json:"activity" validate:"required"`
	Faculty  NotificationPerson `json:"faculty" validate:"required"`
	Referrer NotificationPerson `json:"referrer" validate:"required"`
}

// DispatchResult reports how many messages were accepted by the provider.
type DispatchResult struct {
	Sent int `json:"sent"`
}
