package dto

import (
	"time"

	"github.com/noah-isme/proceso-api/internal/models"
)

// ActivityRequest is the payload for creating or replacing an activity.
type ActivityRequest struct {
	Title        string                `json:"title" validate:"required,max=255"`
	Description  string                `json:"description"`
	DateStarting time.Time             `json:"date_starting" validate:"required"`
	DateEnding   time.Time             `json:"date_ending" validate:"required"`
	Visibility   models.Visibility     `json:"visibility" validate:"required,oneof=Everyone Internal Faculty"`
	Series       *string               `json:"series,omitempty"`
	Status       models.ActivityStatus `json:"status,omitempty" validate:"omitempty,oneof=scheduled ongoing completed cancelled"`
}

// ActivityCreatedResponse returns the stored activity and the run id of the
// announcement job, when one was queued.
type ActivityCreatedResponse struct {
	Activity *models.Activity `json:"activity"`
	RunID    string           `json:"runId,omitempty"`
}
