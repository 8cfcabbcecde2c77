package models

import "time"

// Certificate records an issued certificate of participation. Hash is the
// public verification key; ID never leaves the service.
type Certificate struct {
	ID             string    `db:"id" json:"-"`
	ActivityID     string    `db:"activity_id" json:"activity_id"`
	RecipientName  string    `db:"name" json:"name"`
	RecipientEmail string    `db:"email" json:"email"`
	URL            string    `db:"url" json:"url"`
	Path           string    `db:"path" json:"-"`
	Hash           string    `db:"hash" json:"hash"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// CertificateLookup is a certificate joined with its activity, as shown on
// the public verification surface.
type CertificateLookup struct {
	RecipientName  string    `db:"name"`
	RecipientEmail string    `db:"email"`
	ActivityTitle  string    `db:"activity_title"`
	ActivityDate   time.Time `db:"activity_date"`
	Hash           string    `db:"hash"`
	IssuedAt       time.Time `db:"created_at"`
}
