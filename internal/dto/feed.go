package dto

import (
	"time"

	"github.com/noah-isme/proceso-api/internal/models"
)

// FeedQuery captures the feed endpoint query string. A nil bound is open.
type FeedQuery struct {
	Source models.ActivitySource
	Start  *time.Time
	End    *time.Time
	Role   *models.UserRole
}

// FeedItem is the calendar-library projection of an activity.
type FeedItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Color       string `json:"color"`
	Description string `json:"description"`
	URL         string `json:"url"`
	AllDay      bool   `json:"allDay"`
}
