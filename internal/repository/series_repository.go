package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/proceso-api/internal/models"
)

// SeriesRepository persists activity series.
type SeriesRepository struct {
	db *sqlx.DB
}

// NewSeriesRepository constructs a series repository.
func NewSeriesRepository(db *sqlx.DB) *SeriesRepository {
	return &SeriesRepository{db: db}
}

// List returns series ordered by title.
func (r *SeriesRepository) List(ctx context.Context, activeOnly bool) ([]models.Series, error) {
	query := `SELECT id, title, color, active, created_at FROM series`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY title ASC`
	series := make([]models.Series, 0)
	if err := r.db.SelectContext(ctx, &series, query); err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	return series, nil
}

// Create inserts a series.
func (r *SeriesRepository) Create(ctx context.Context, series *models.Series) error {
	if series.ID == "" {
		series.ID = uuid.NewString()
	}
	if series.CreatedAt.IsZero() {
		series.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO series (id, title, color, active, created_at) VALUES (:id, :title, :color, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, series); err != nil {
		return fmt.Errorf("create series: %w", err)
	}
	return nil
}
