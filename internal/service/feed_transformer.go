package service

import (
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/noah-isme/proceso-api/internal/dto"
	"github.com/noah-isme/proceso-api/internal/models"
)

// FeedTimeLayout is the local timestamp format calendar widgets expect.
const FeedTimeLayout = "2006-01-02T15:04:05"

const midnightSuffix = "T00:00:00"

var descriptionPolicy = bluemonday.StrictPolicy()

// TransformFeedItem projects a stored record onto the calendar feed shape.
// Timestamps are rendered in the location they were read with.
func TransformFeedItem(activity models.Activity, linkBase string) dto.FeedItem {
	start := activity.DateStarting.Format(FeedTimeLayout)
	end := activity.DateEnding.Format(FeedTimeLayout)

	color := models.DefaultSeriesColor
	if activity.SeriesColor != nil && strings.TrimSpace(*activity.SeriesColor) != "" {
		color = *activity.SeriesColor
	}

	return dto.FeedItem{
		ID:          activity.ID,
		Title:       activity.Title,
		Start:       start,
		End:         end,
		Color:       color,
		Description: PlainText(activity.Description),
		URL:         strings.TrimRight(linkBase, "/") + "/" + activity.ID,
		AllDay:      isAllDay(start, end),
	}
}

// PlainText strips every HTML tag from s, decodes entities and collapses
// whitespace.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(html.UnescapeString(descriptionPolicy.Sanitize(s))), " ")
}

// isAllDay treats a record as all-day when both rendered timestamps sit at
// midnight. Single-day events that really start at midnight are misreported.
func isAllDay(start, end string) bool {
	return strings.HasSuffix(start, midnightSuffix) && strings.HasSuffix(end, midnightSuffix)
}

// ParseFeedTime accepts RFC3339, a local timestamp or a bare date. An empty
// string yields nil.
func ParseFeedTime(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var lastErr error
	for _, layout := range []string{time.RFC3339, FeedTimeLayout, "2006-01-02"} {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return &t, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
