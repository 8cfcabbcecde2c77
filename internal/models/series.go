package models

import "time"

// DefaultSeriesColor is used for activities without a coloured series.
const DefaultSeriesColor = "#2e2e2e"

// Series groups related activities under a title and colour.
type Series struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Color     string    `db:"color" json:"color"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
