package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/proceso-api/internal/dto"
	"github.com/noah-isme/proceso-api/internal/models"
	appErrors "github.com/noah-isme/proceso-api/pkg/errors"
)

type stubFeedRepo struct {
	records []models.Activity
	err     error
	calls   int
	start   *time.Time
	end     *time.Time
}

func (s *stubFeedRepo) ListInRange(ctx context.Context, start, end *time.Time) ([]models.Activity, error) {
	s.calls++
	s.start, s.end = start, end
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

type memoryCacheRepo struct {
	entries map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func ts(value string) time.Time {
	t, err := time.Parse(FeedTimeLayout, value)
	if err != nil {
		panic(err)
	}
	return t
}

func bloodDrive() models.Activity {
	return models.Activity{
		ID:           "e1",
		Title:        "Blood Drive",
		Description:  "<p>Donate at the <b>gym</b> &amp; lobby</p><script>alert(1)</script>",
		DateStarting: ts("2024-01-10T00:00:00"),
		DateEnding:   ts("2024-01-10T00:00:00"),
		Visibility:   models.VisibilityEveryone,
	}
}

func TestTransformFeedItemAllDayExamples(t *testing.T) {
	item := TransformFeedItem(bloodDrive(), "https://proceso.example.edu/events")
	assert.True(t, item.AllDay)
	assert.Equal(t, "2024-01-10T00:00:00", item.Start)
	assert.Equal(t, "https://proceso.example.edu/events/e1", item.URL)
	assert.Equal(t, models.DefaultSeriesColor, item.Color)

	afternoon := bloodDrive()
	afternoon.DateStarting = ts("2024-01-10T14:00:00")
	afternoon.DateEnding = ts("2024-01-10T16:00:00")
	assert.False(t, TransformFeedItem(afternoon, "").AllDay)
}

func TestTransformFeedItemStripsTagsDeterministically(t *testing.T) {
	record := bloodDrive()
	color := "#1e88e5"
	record.SeriesColor = &color

	first := TransformFeedItem(record, "https://proceso.example.edu/events/")
	second := TransformFeedItem(record, "https://proceso.example.edu/events/")

	assert.Equal(t, first, second)
	assert.Equal(t, "Donate at the gym & lobby", first.Description)
	assert.NotContains(t, first.Description, "<")
	assert.Equal(t, "#1e88e5", first.Color)
	assert.Equal(t, "https://proceso.example.edu/events/e1", first.URL)
}

func TestParseFeedTime(t *testing.T) {
	for _, raw := range []string{"2024-01-01", "2024-01-01T08:30:00", "2024-01-01T08:30:00+08:00"} {
		parsed, err := ParseFeedTime(raw)
		require.NoError(t, err, raw)
		require.NotNil(t, parsed, raw)
	}

	parsed, err := ParseFeedTime("  ")
	require.NoError(t, err)
	assert.Nil(t, parsed)

	_, err = ParseFeedTime("next tuesday")
	assert.Error(t, err)
}

func TestFeedRequiresABound(t *testing.T) {
	repo := &stubFeedRepo{}
	svc := NewFeedService(repo, repo, nil, "https://proceso.example.edu", 0, nil)

	_, _, err := svc.Feed(context.Background(), dto.FeedQuery{Source: models.SourceEvents})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
	assert.Zero(t, repo.calls)
}

// A single bound is accepted and leaves the other side open. This mirrors
// the existing gate, which only rejects a query missing both bounds.
func TestFeedWithSingleBoundProceeds(t *testing.T) {
	repo := &stubFeedRepo{records: []models.Activity{bloodDrive()}}
	svc := NewFeedService(repo, repo, nil, "https://proceso.example.edu", 0, nil)

	start := ts("2024-01-01T00:00:00")
	items, _, err := svc.Feed(context.Background(), dto.FeedQuery{Source: models.SourceEvents, Start: &start})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Nil(t, repo.end)
}

func TestFeedFiltersByVisibility(t *testing.T) {
	internal := bloodDrive()
	internal.ID = "e2"
	internal.Visibility = models.VisibilityInternal
	faculty := bloodDrive()
	faculty.ID = "e3"
	faculty.Visibility = models.VisibilityFaculty
	repo := &stubFeedRepo{records: []models.Activity{bloodDrive(), internal, faculty}}
	svc := NewFeedService(repo, repo, nil, "", 0, nil)

	start, end := ts("2024-01-01T00:00:00"), ts("2024-01-31T00:00:00")
	anonymous, _, err := svc.Feed(context.Background(), dto.FeedQuery{Source: models.SourceActivities, Start: &start, End: &end})
	require.NoError(t, err)
	assert.Len(t, anonymous, 1)

	role := models.RoleFaculty
	forFaculty, _, err := svc.Feed(context.Background(), dto.FeedQuery{Source: models.SourceActivities, Start: &start, End: &end, Role: &role})
	require.NoError(t, err)
	assert.Len(t, forFaculty, 2)

	admin := models.RoleAdmin
	forAdmin, _, err := svc.Feed(context.Background(), dto.FeedQuery{Source: models.SourceActivities, Start: &start, End: &end, Role: &admin})
	require.NoError(t, err)
	assert.Len(t, forAdmin, 3)
}

func TestFeedQueryFailureIsTyped(t *testing.T) {
	repo := &stubFeedRepo{err: errors.New("relation \"events\" does not exist")}
	svc := NewFeedService(repo, repo, nil, "", 0, nil)

	start := ts("2024-01-01T00:00:00")
	_, _, err := svc.Feed(context.Background(), dto.FeedQuery{Source: models.SourceEvents, Start: &start})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrQueryFailed)
	assert.Equal(t, 500, appErrors.FromError(err).Status)
}

func TestFeedEmptyResultIsNotAnError(t *testing.T) {
	repo := &stubFeedRepo{records: []models.Activity{}}
	svc := NewFeedService(repo, repo, nil, "", 0, nil)

	start := ts("2024-01-01T00:00:00")
	items, _, err := svc.Feed(context.Background(), dto.FeedQuery{Source: models.SourceEvents, Start: &start})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestFeedUsesCacheUntilInvalidated(t *testing.T) {
	repo := &stubFeedRepo{records: []models.Activity{bloodDrive()}}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	svc := NewFeedService(repo, repo, cache, "", time.Minute, nil)

	start, end := ts("2024-01-01T00:00:00"), ts("2024-01-31T00:00:00")
	query := dto.FeedQuery{Source: models.SourceEvents, Start: &start, End: &end}

	first, hit, err := svc.Feed(context.Background(), query)
	require.NoError(t, err)
	assert.False(t, hit)
	second, hit, err := svc.Feed(context.Background(), query)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.calls)

	svc.Invalidate(context.Background(), models.SourceEvents)
	_, _, err = svc.Feed(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}
