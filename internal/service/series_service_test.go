package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/proceso-api/internal/dto"
	"github.com/noah-isme/proceso-api/internal/models"
	appErrors "github.com/noah-isme/proceso-api/pkg/errors"
)

type stubSeriesRepo struct {
	created    *models.Series
	activeOnly bool
	err        error
}

func (s *stubSeriesRepo) List(ctx context.Context, activeOnly bool) ([]models.Series, error) {
	s.activeOnly = activeOnly
	return []models.Series{{ID: "s-1", Title: "Green Week", Color: "#2f9e44", Active: true}}, s.err
}

func (s *stubSeriesRepo) Create(ctx context.Context, series *models.Series) error {
	s.created = series
	return s.err
}

func TestSeriesServiceCreateDefaultsColor(t *testing.T) {
	repo := &stubSeriesRepo{}
	svc := NewSeriesService(repo, nil, nil)

	series, err := svc.Create(context.Background(), dto.CreateSeriesRequest{Title: "Outreach Month"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSeriesColor, series.Color)
	assert.True(t, series.Active)

	series, err = svc.Create(context.Background(), dto.CreateSeriesRequest{Title: "Green Week", Color: "#2F9E44"})
	require.NoError(t, err)
	assert.Equal(t, "#2f9e44", series.Color)

	_, err = svc.Create(context.Background(), dto.CreateSeriesRequest{Title: "Bad", Color: "green"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestSeriesServiceList(t *testing.T) {
	repo := &stubSeriesRepo{}
	svc := NewSeriesService(repo, nil, nil)

	series, err := svc.List(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, series, 1)
	assert.True(t, repo.activeOnly)

	repo.err = fmt.Errorf("boom")
	_, err = svc.List(context.Background(), false)
	assert.True(t, errors.Is(err, appErrors.ErrQueryFailed))
}
