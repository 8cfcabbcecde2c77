package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/proceso-api/internal/models"
)

const userColumns = `id, email, name, role, department, other_roles, active, created_at, updated_at`

// UserRepository provides read access to user accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// ListByIDs returns the users matching ids, in name order.
func (r *UserRepository) ListByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	users := make([]models.User, 0, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1) ORDER BY name ASC`
	if err := r.db.SelectContext(ctx, &users, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list users by ids: %w", err)
	}
	return users, nil
}

// EmailsByRoles returns the emails of active users holding any of roles.
func (r *UserRepository) EmailsByRoles(ctx context.Context, roles []models.UserRole) ([]string, error) {
	emails := make([]string, 0)
	if len(roles) == 0 {
		return emails, nil
	}
	values := make([]string, len(roles))
	for i, role := range roles {
		values[i] = string(role)
	}
	const query = `SELECT email FROM users WHERE active = TRUE AND role = ANY($1) ORDER BY email ASC`
	if err := r.db.SelectContext(ctx, &emails, query, pq.Array(values)); err != nil {
		return nil, fmt.Errorf("list emails by roles: %w", err)
	}
	return emails, nil
}

// SearchFaculty finds active faculty whose name or email contains term.
func (r *UserRepository) SearchFaculty(ctx context.Context, term string, limit int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	where := []string{"active = TRUE", "role = $1"}
	args := []interface{}{string(models.RoleFaculty)}
	if term = strings.TrimSpace(term); term != "" {
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+term+"%")
	}
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY name ASC LIMIT %d`, userColumns, strings.Join(where, " AND "), limit)

	users := make([]models.User, 0)
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("search faculty: %w", err)
	}
	return users, nil
}
