package models

import "time"

// FacultyAssignment links a faculty member to an activity. RSVP stays nil
// until the faculty member responds.
type FacultyAssignment struct {
	ActivityID string    `db:"activity_id" json:"activity_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	ReferrerID *string   `db:"referrer_id" json:"referrer_id,omitempty"`
	RSVP       *bool     `db:"rsvp" json:"rsvp"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// AssignedFaculty is an assignment joined with the faculty member's profile.
type AssignedFaculty struct {
	FacultyAssignment
	Email string `db:"email" json:"email"`
	Name  string `db:"name" json:"name"`
}
