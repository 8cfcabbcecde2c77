package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/proceso-api/internal/dto"
	"github.com/noah-isme/proceso-api/internal/models"
	appErrors "github.com/noah-isme/proceso-api/pkg/errors"
)

type seriesRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Series, error)
	Create(ctx context.Context, series *models.Series) error
}

// SeriesService manages activity series.
type SeriesService struct {
	repo      seriesRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSeriesService constructs a series service.
func NewSeriesService(repo seriesRepository, validate *validator.Validate, logger *zap.Logger) *SeriesService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeriesService{repo: repo, validator: validate, logger: logger}
}

// List returns series, optionally only active ones.
func (s *SeriesService) List(ctx context.Context, activeOnly bool) ([]models.Series, error) {
	series, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrQueryFailed, "failed to list series")
	}
	return series, nil
}

// Create stores a new active series.
func (s *SeriesService) Create(ctx context.Context, req dto.CreateSeriesRequest) (*models.Series, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid series payload")
	}
	color := strings.ToLower(req.Color)
	if color == "" {
		color = models.DefaultSeriesColor
	}
	series := &models.Series{Title: strings.TrimSpace(req.Title), Color: color, Active: true}
	if err := s.repo.Create(ctx, series); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrQueryFailed, "failed to create series")
	}
	return series, nil
}
