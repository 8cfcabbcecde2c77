package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/proceso-api/internal/models"
)

const activityColumns = `a.id, a.title, a.description, a.date_starting, a.date_ending, a.visibility, a.series, s.color AS series_color, a.status, a.created_by, a.created_at, a.updated_at`

// ActivityRepository persists activities and legacy events. Both tables
// share the same columns.
type ActivityRepository struct {
	db    *sqlx.DB
	table string
}

// NewActivityRepository constructs a repository bound to the source table.
// Unknown sources fall back to the activities table.
func NewActivityRepository(db *sqlx.DB, source models.ActivitySource) *ActivityRepository {
	table := string(models.SourceActivities)
	if source == models.SourceEvents {
		table = string(models.SourceEvents)
	}
	return &ActivityRepository{db: db, table: table}
}

// ListInRange returns records overlapping [start, end). A nil bound is open.
func (r *ActivityRepository) ListInRange(ctx context.Context, start, end *time.Time) ([]models.Activity, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if start != nil {
		where = append(where, fmt.Sprintf("a.date_ending >= $%d", len(args)+1))
		args = append(args, *start)
	}
	if end != nil {
		where = append(where, fmt.Sprintf("a.date_starting < $%d", len(args)+1))
		args = append(args, *end)
	}
	query := fmt.Sprintf(`SELECT %s FROM %s a LEFT JOIN series s ON s.id = a.series WHERE %s ORDER BY a.date_starting ASC`,
		activityColumns, r.table, strings.Join(where, " AND "))

	activities := make([]models.Activity, 0)
	if err := r.db.SelectContext(ctx, &activities, query, args...); err != nil {
		return nil, fmt.Errorf("list %s in range: %w", r.table, err)
	}
	return activities, nil
}

// GetByID fetches a single record. sql.ErrNoRows is returned unwrapped.
func (r *ActivityRepository) GetByID(ctx context.Context, id string) (*models.Activity, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s a LEFT JOIN series s ON s.id = a.series WHERE a.id = $1`, activityColumns, r.table)
	var activity models.Activity
	if err := r.db.GetContext(ctx, &activity, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get %s by id: %w", r.table, err)
	}
	return &activity, nil
}

// Create inserts a record.
func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = now
	}
	activity.UpdatedAt = now
	query := fmt.Sprintf(`INSERT INTO %s (id, title, description, date_starting, date_ending, visibility, series, status, created_by, created_at, updated_at)
VALUES (:id, :title, :description, :date_starting, :date_ending, :visibility, :series, :status, :created_by, :created_at, :updated_at)`, r.table)
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("create %s: %w", r.table, err)
	}
	return nil
}

// Update replaces the mutable fields of a record.
func (r *ActivityRepository) Update(ctx context.Context, activity *models.Activity) error {
	activity.UpdatedAt = time.Now().UTC()
	query := fmt.Sprintf(`UPDATE %s SET title = :title, description = :description, date_starting = :date_starting, date_ending = :date_ending,
visibility = :visibility, series = :series, status = :status, updated_at = :updated_at WHERE id = :id`, r.table)
	res, err := r.db.NamedExecContext(ctx, query, activity)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.table, err)
	}
	return requireAffected(res)
}

// Delete removes a record.
func (r *ActivityRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.table), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.table, err)
	}
	return requireAffected(res)
}

// requireAffected maps a zero-row write to sql.ErrNoRows.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
