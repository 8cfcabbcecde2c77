package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/proceso-api/internal/dto"
	"github.com/noah-isme/proceso-api/internal/models"
	appErrors "github.com/noah-isme/proceso-api/pkg/errors"
)

type feedRepository interface {
	ListInRange(ctx context.Context, start, end *time.Time) ([]models.Activity, error)
}

// FeedService serves the calendar feeds of activities and legacy events.
type FeedService struct {
	repos    map[models.ActivitySource]feedRepository
	cache    *CacheService
	baseURL  string
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewFeedService wires the activity and event feeds. baseURL is the public
// web origin deep links point at.
func NewFeedService(activities, events feedRepository, cache *CacheService, baseURL string, cacheTTL time.Duration, logger *zap.Logger) *FeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedService{
		repos: map[models.ActivitySource]feedRepository{
			models.SourceActivities: activities,
			models.SourceEvents:     events,
		},
		cache:    cache,
		baseURL:  baseURL,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Feed returns the feed items overlapping the query window that the caller
// may see, and whether the records came from cache. At least one bound is
// required; a single bound leaves the other side open.
func (s *FeedService) Feed(ctx context.Context, query dto.FeedQuery) ([]dto.FeedItem, bool, error) {
	if query.Start == nil && query.End == nil {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "start or end is required")
	}
	repo, ok := s.repos[query.Source]
	if !ok || repo == nil {
		return nil, false, appErrors.Clone(appErrors.ErrBadRequest, fmt.Sprintf("unknown feed %q", query.Source))
	}

	records, hit, err := s.records(ctx, repo, query)
	if err != nil {
		return nil, false, err
	}

	linkBase := s.baseURL + "/" + string(query.Source)
	items := make([]dto.FeedItem, 0, len(records))
	for _, record := range records {
		if !models.CanAccessEvent(record.Visibility, query.Role) {
			continue
		}
		items = append(items, TransformFeedItem(record, linkBase))
	}
	return items, hit, nil
}

// Invalidate drops cached windows of a feed after its records change.
func (s *FeedService) Invalidate(ctx context.Context, source models.ActivitySource) {
	s.cache.Invalidate(ctx, fmt.Sprintf("feed:%s:*", source))
}

func (s *FeedService) records(ctx context.Context, repo feedRepository, query dto.FeedQuery) ([]models.Activity, bool, error) {
	key := feedCacheKey(query)
	var cached []models.Activity
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	records, err := repo.ListInRange(ctx, query.Start, query.End)
	if err != nil {
		s.logger.Sugar().Errorw("feed query failed", "source", query.Source, "error", err)
		return nil, false, appErrors.WrapAs(err, appErrors.ErrQueryFailed, fmt.Sprintf("failed to query %s", query.Source))
	}
	s.cache.Set(ctx, key, records, s.cacheTTL)
	return records, false, nil
}

func feedCacheKey(query dto.FeedQuery) string {
	bound := func(t *time.Time) string {
		if t == nil {
			return "open"
		}
		return t.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("feed:%s:%s:%s", query.Source, bound(query.Start), bound(query.End))
}
