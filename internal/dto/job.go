package dto

import "time"

// JobRunResponse exposes the state of a background job run.
type JobRunResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	IsExecuting bool      `json:"isExecuting"`
	Attempt     int       `json:"attempt"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
