package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	appErrors "github.com/leadflow/automation/internal/errors"
	"github.com/leadflow/automation/internal/model"
)

const pqUniqueViolation = "23505"

type ExecutionRepositoryInterface interface {
	Insert(e *model.StepExecution) error
	ExistsForPair(leadID, campaignID int) (bool, error)
	ExistsForStep(leadID, stepID int) (bool, error)
	ListDue(now time.Time, limit int) ([]*model.StepExecution, error)
	MarkSent(id int, sentAt time.Time) error
	MarkFailed(id int, lastError string) error
	GetByID(id int) (*model.StepExecution, error)
	StatsForCampaign(campaignID int) (map[string]int, error)
}

// ExecutionRepository is the access layer for the execution ledger.
type ExecutionRepository struct {
	DB *sql.DB
}

// Insert writes a new pending execution. The ledger carries a unique
// index on (lead_id, campaign_id, step_id); a conflict comes back as
// ErrDuplicateExecution so callers can treat it as "already enrolled"
// rather than a failure. The Exists* pre-checks are a fast path only.
func (r *ExecutionRepository) Insert(e *model.StepExecution) error {
	now := time.Now()
	e.Status = model.StatusPending
	e.CreatedAt = now
	e.UpdatedAt = now

	query := `
        INSERT INTO step_executions
        (lead_id, campaign_id, step_id, status, scheduled_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	err := r.DB.QueryRow(query,
		e.LeadID, e.CampaignID, e.StepID, e.Status, e.ScheduledAt, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pqUniqueViolation {
			return appErrors.NewDuplicateExecution(e.LeadID, e.CampaignID, e.StepID)
		}
		return errors.Wrap(err, "insert execution")
	}
	return nil
}

// ExistsForPair reports whether any execution row exists for the
// (lead, campaign) pair, regardless of status. One row means the lead
// is already enrolled in the campaign.
func (r *ExecutionRepository) ExistsForPair(leadID, campaignID int) (bool, error) {
	query := `
        SELECT 1 FROM step_executions
        WHERE lead_id = $1 AND campaign_id = $2
        LIMIT 1
    `
	var tmp int
	err := r.DB.QueryRow(query, leadID, campaignID).Scan(&tmp)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, errors.Wrap(err, "exists for pair")
	}
	return true, nil
}

// ExistsForStep reports whether the lead has any execution for one step.
func (r *ExecutionRepository) ExistsForStep(leadID, stepID int) (bool, error) {
	query := `
        SELECT 1 FROM step_executions
        WHERE lead_id = $1 AND step_id = $2
        LIMIT 1
    `
	var tmp int
	err := r.DB.QueryRow(query, leadID, stepID).Scan(&tmp)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, errors.Wrap(err, "exists for step")
	}
	return true, nil
}

// ListDue returns pending executions whose fire time has passed, oldest
// first, capped at limit. Terminal rows are filtered out here, which is
// what keeps a dispatched execution from ever being re-selected.
func (r *ExecutionRepository) ListDue(now time.Time, limit int) ([]*model.StepExecution, error) {
	query := `
        SELECT id, lead_id, campaign_id, step_id, status, scheduled_at, sent_at, last_error, created_at, updated_at
        FROM step_executions
        WHERE status = 'pending' AND scheduled_at <= $1
        ORDER BY scheduled_at ASC
        LIMIT $2
    `
	rows, err := r.DB.Query(query, now, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list due executions")
	}
	defer rows.Close()

	execs := []*model.StepExecution{}
	for rows.Next() {
		e := &model.StepExecution{}
		if err := rows.Scan(
			&e.ID, &e.LeadID, &e.CampaignID, &e.StepID, &e.Status,
			&e.ScheduledAt, &e.SentAt, &e.LastError, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan execution")
		}
		execs = append(execs, e)
	}
	return execs, rows.Err()
}

func (r *ExecutionRepository) MarkSent(id int, sentAt time.Time) error {
	query := `UPDATE step_executions SET status='sent', sent_at=$1, last_error='', updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, sentAt, id)
	return err
}

func (r *ExecutionRepository) MarkFailed(id int, lastError string) error {
	query := `UPDATE step_executions SET status='failed', last_error=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, lastError, id)
	return err
}

func (r *ExecutionRepository) GetByID(id int) (*model.StepExecution, error) {
	query := `
        SELECT id, lead_id, campaign_id, step_id, status, scheduled_at, sent_at, last_error, created_at, updated_at
        FROM step_executions
        WHERE id=$1
    `
	e := &model.StepExecution{}
	err := r.DB.QueryRow(query, id).Scan(
		&e.ID, &e.LeadID, &e.CampaignID, &e.StepID, &e.Status,
		&e.ScheduledAt, &e.SentAt, &e.LastError, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

func (r *ExecutionRepository) StatsForCampaign(campaignID int) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM step_executions WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{"pending": 0, "sent": 0, "failed": 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

var _ ExecutionRepositoryInterface = (*ExecutionRepository)(nil)
