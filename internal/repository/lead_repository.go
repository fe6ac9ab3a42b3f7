package repository

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/leadflow/automation/internal/model"
)

// LeadRepositoryInterface defines the read-only lead access the engine needs
type LeadRepositoryInterface interface {
	GetByID(id int) (*model.Lead, error)
	ListCreatedSince(since time.Time) ([]model.Lead, error)
}

// LeadRepository is the concrete implementation
type LeadRepository struct {
	DB *sql.DB
}

// GetByID fetches a lead by ID
func (r *LeadRepository) GetByID(id int) (*model.Lead, error) {
	query := `
        SELECT id, contact_name, email, phone, pipeline, company, created_at
        FROM leads
        WHERE id = $1
    `
	row := r.DB.QueryRow(query, id)

	var l model.Lead
	if err := row.Scan(&l.ID, &l.ContactName, &l.Email, &l.Phone, &l.Pipeline, &l.Company, &l.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, errors.Wrap(err, "get lead")
	}
	return &l, nil
}

// ListCreatedSince fetches leads created at or after the given cutoff.
// The enrollment pass uses this as its recency window.
func (r *LeadRepository) ListCreatedSince(since time.Time) ([]model.Lead, error) {
	query := `
        SELECT id, contact_name, email, phone, pipeline, company, created_at
        FROM leads
        WHERE created_at >= $1
        ORDER BY created_at ASC
    `
	rows, err := r.DB.Query(query, since)
	if err != nil {
		return nil, errors.Wrap(err, "list recent leads")
	}
	defer rows.Close()

	leads := []model.Lead{}
	for rows.Next() {
		var l model.Lead
		if err := rows.Scan(&l.ID, &l.ContactName, &l.Email, &l.Phone, &l.Pipeline, &l.Company, &l.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan lead")
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

var _ LeadRepositoryInterface = (*LeadRepository)(nil)
