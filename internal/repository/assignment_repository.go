package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/proceso-api/internal/models"
)

// AssignmentRepository persists faculty assignments to activities.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Assign nominates users for an activity within a transaction. Existing
// assignments are left untouched.
func (r *AssignmentRepository) Assign(ctx context.Context, activityID string, userIDs []string, referrerID *string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assign faculty: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for _, userID := range userIDs {
		payload := models.FacultyAssignment{
			ActivityID: activityID,
			UserID:     userID,
			ReferrerID: referrerID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if _, err = tx.NamedExecContext(ctx, `INSERT INTO activity_faculties (activity_id, user_id, referrer_id, rsvp, created_at, updated_at) VALUES (:activity_id, :user_id, :referrer_id, :rsvp, :created_at, :updated_at) ON CONFLICT (activity_id, user_id) DO NOTHING`, &payload); err != nil {
			return fmt.Errorf("insert faculty assignment: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit assign faculty: %w", err)
	}
	return nil
}

// SetRSVP stores a faculty member's answer and returns the updated row.
func (r *AssignmentRepository) SetRSVP(ctx context.Context, activityID, userID string, accept bool) (*models.FacultyAssignment, error) {
	const query = `UPDATE activity_faculties SET rsvp = $3, updated_at = $4 WHERE activity_id = $1 AND user_id = $2
RETURNING activity_id, user_id, referrer_id, rsvp, created_at, updated_at`
	var assignment models.FacultyAssignment
	if err := r.db.GetContext(ctx, &assignment, query, activityID, userID, accept, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("set rsvp: %w", err)
	}
	return &assignment, nil
}

// Remove deletes the assignments of userIDs and reports how many existed.
func (r *AssignmentRepository) Remove(ctx context.Context, activityID string, userIDs []string) (int64, error) {
	const query = `DELETE FROM activity_faculties WHERE activity_id = $1 AND user_id = ANY($2)`
	res, err := r.db.ExecContext(ctx, query, activityID, pq.Array(userIDs))
	if err != nil {
		return 0, fmt.Errorf("remove faculty assignments: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// ListByActivity returns assignments joined with the faculty profile.
func (r *AssignmentRepository) ListByActivity(ctx context.Context, activityID string) ([]models.AssignedFaculty, error) {
	const query = `SELECT af.activity_id, af.user_id, af.referrer_id, af.rsvp, af.created_at, af.updated_at, u.email, u.name
FROM activity_faculties af JOIN users u ON u.id = af.user_id WHERE af.activity_id = $1 ORDER BY u.name ASC`
	rows := make([]models.AssignedFaculty, 0)
	if err := r.db.SelectContext(ctx, &rows, query, activityID); err != nil {
		return nil, fmt.Errorf("list faculty assignments: %w", err)
	}
	return rows, nil
}
