package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/proceso-api/internal/dto"
	"github.com/noah-isme/proceso-api/internal/middleware"
	"github.com/noah-isme/proceso-api/internal/models"
	"github.com/noah-isme/proceso-api/internal/service"
	appErrors "github.com/noah-isme/proceso-api/pkg/errors"
	"github.com/noah-isme/proceso-api/pkg/response"
)

type feedService interface {
	Feed(ctx context.Context, query dto.FeedQuery) ([]dto.FeedItem, bool, error)
}

// FeedHandler serves the calendar feeds.
type FeedHandler struct {
	service feedService
}

// NewFeedHandler constructs the handler.
func NewFeedHandler(service feedService) *FeedHandler {
	return &FeedHandler{service: service}
}

// Activities godoc
// @Summary Activity calendar feed
// @Tags Feed
// @Produce json
// @Param start query string false "Window start (RFC3339 or YYYY-MM-DD)"
// @Param end query string false "Window end (RFC3339 or YYYY-MM-DD)"
// @Success 200 {array} dto.FeedItem
// @Failure 400 {object} response.Envelope
// @Router /activities/feed [get]
func (h *FeedHandler) Activities(c *gin.Context) {
	h.serve(c, models.SourceActivities)
}

// Events godoc
// @Summary Legacy event calendar feed
// @Tags Feed
// @Produce json
// @Param start query string false "Window start (RFC3339 or YYYY-MM-DD)"
// @Param end query string false "Window end (RFC3339 or YYYY-MM-DD)"
// @Success 200 {array} dto.FeedItem
// @Failure 400 {object} response.Envelope
// @Router /events/feed [get]
func (h *FeedHandler) Events(c *gin.Context) {
	h.serve(c, models.SourceEvents)
}

func (h *FeedHandler) serve(c *gin.Context, source models.ActivitySource) {
	start, err := service.ParseFeedTime(c.Query("start"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid start"))
		return
	}
	end, err := service.ParseFeedTime(c.Query("end"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid end"))
		return
	}

	role := roleFromContext(c)
	items, hit, err := h.service.Feed(c.Request.Context(), dto.FeedQuery{
		Source: source,
		Start:  start,
		End:    end,
		Role:   role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	c.Header("Vary", "Authorization")
	if role != nil {
		response.Public(c, items, response.PrivateCacheControl)
		return
	}
	response.Public(c, items, response.FeedCacheControl)
}
