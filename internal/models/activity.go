package models

import "time"

// Visibility controls which roles may read an activity.
type Visibility string

const (
	VisibilityEveryone Visibility = "Everyone"
	VisibilityInternal Visibility = "Internal"
	VisibilityFaculty  Visibility = "Faculty"
)

// Valid reports whether v is a known visibility value.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityEveryone, VisibilityInternal, VisibilityFaculty:
		return true
	default:
		return false
	}
}

// ActivityStatus tracks the lifecycle of an activity.
type ActivityStatus string

const (
	ActivityScheduled ActivityStatus = "scheduled"
	ActivityOngoing   ActivityStatus = "ongoing"
	ActivityCompleted ActivityStatus = "completed"
	ActivityCancelled ActivityStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s ActivityStatus) Valid() bool {
	switch s {
	case ActivityScheduled, ActivityOngoing, ActivityCompleted, ActivityCancelled:
		return true
	default:
		return false
	}
}

// ActivitySource selects the table a record lives in. Legacy events share
// the activity shape.
type ActivitySource string

const (
	SourceActivities ActivitySource = "activities"
	SourceEvents     ActivitySource = "events"
)

// Activity is an outreach activity or legacy event.
type Activity struct {
	ID           string         `db:"id" json:"id"`
	Title        string         `db:"title" json:"title"`
	Description  string         `db:"description" json:"description"`
	DateStarting time.Time      `db:"date_starting" json:"date_starting"`
	DateEnding   time.Time      `db:"date_ending" json:"date_ending"`
	Visibility   Visibility     `db:"visibility" json:"visibility"`
	SeriesID     *string        `db:"series" json:"series,omitempty"`
	SeriesColor  *string        `db:"series_color" json:"series_color,omitempty"`
	Status       ActivityStatus `db:"status" json:"status"`
	CreatedBy    *string        `db:"created_by" json:"created_by,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}
