package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/proceso-api/internal/models"
)

// CertificateRepository persists issued certificates.
type CertificateRepository struct {
	db *sqlx.DB
}

// NewCertificateRepository constructs a certificate repository.
func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// Create inserts a certificate row. The hash column carries a unique index.
func (r *CertificateRepository) Create(ctx context.Context, cert *models.Certificate) error {
	if cert.ID == "" {
		cert.ID = uuid.NewString()
	}
	if cert.CreatedAt.IsZero() {
		cert.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO certificates (id, activity_id, name, email, url, path, hash, created_at) VALUES (:id, :activity_id, :name, :email, :url, :path, :hash, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cert); err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}
	return nil
}

// FindByID returns a certificate by its internal id.
func (r *CertificateRepository) FindByID(ctx context.Context, id string) (*models.Certificate, error) {
	const query = `SELECT id, activity_id, name, email, url, path, hash, created_at FROM certificates WHERE id = $1`
	var cert models.Certificate
	if err := r.db.GetContext(ctx, &cert, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find certificate: %w", err)
	}
	return &cert, nil
}

// GetByHash returns the public view of a certificate.
func (r *CertificateRepository) GetByHash(ctx context.Context, hash string) (*models.CertificateLookup, error) {
	const query = `SELECT c.name, c.email, a.title AS activity_title, a.date_starting AS activity_date, c.hash, c.created_at
FROM certificates c JOIN activities a ON a.id = c.activity_id WHERE c.hash = $1`
	var lookup models.CertificateLookup
	if err := r.db.GetContext(ctx, &lookup, query, hash); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get certificate by hash: %w", err)
	}
	return &lookup, nil
}

// ListByActivity returns certificates issued for an activity.
func (r *CertificateRepository) ListByActivity(ctx context.Context, activityID string) ([]models.Certificate, error) {
	const query = `SELECT id, activity_id, name, email, url, path, hash, created_at FROM certificates WHERE activity_id = $1 ORDER BY name ASC`
	certs := make([]models.Certificate, 0)
	if err := r.db.SelectContext(ctx, &certs, query, activityID); err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return certs, nil
}
