package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	appErrors "github.com/leadflow/automation/internal/errors"
	"github.com/leadflow/automation/internal/model"
)

type CampaignRepositoryInterface interface {
	// Campaign CRUD
	ListCampaigns(offset, limit int, active *bool) ([]*model.Campaign, int, error)
	ListActiveByTrigger(triggerType string) ([]*model.Campaign, error)
	GetByID(id int) (*model.Campaign, error)
	Create(c *model.Campaign) error
	SetActive(campaignID int, active bool) error

	// Steps
	CreateStep(s *model.CampaignStep) error
	GetStepByID(id int) (*model.CampaignStep, error)
	ListActiveSteps(campaignID int) ([]*model.CampaignStep, error)
	ListConditionalSteps(conditionStepID int) ([]*model.CampaignStep, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.TriggerType == "" {
		c.TriggerType = model.TriggerLeadCreated
	}
	query := `
        INSERT INTO campaigns (name, active, trigger_type, target_pipeline, activated_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	return r.DB.QueryRow(query, c.Name, c.Active, c.TriggerType, c.TargetPipeline, c.ActivatedAt, c.CreatedAt).Scan(&c.ID)
}

func (r *CampaignRepository) SetActive(campaignID int, active bool) error {
	query := `UPDATE campaigns SET active=$1, updated_at=$2 WHERE id=$3`
	_, err := r.DB.Exec(query, active, time.Now(), campaignID)
	return err
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	query := `
        SELECT id, name, active, trigger_type, target_pipeline, activated_at, created_at, updated_at
        FROM campaigns WHERE id=$1
    `
	var c model.Campaign
	err := r.DB.QueryRow(query, id).Scan(&c.ID, &c.Name, &c.Active, &c.TriggerType, &c.TargetPipeline, &c.ActivatedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return &c, nil
}

// ListActiveByTrigger returns the active campaigns for one trigger type.
// The enrollment pass matches leads against this set.
func (r *CampaignRepository) ListActiveByTrigger(triggerType string) ([]*model.Campaign, error) {
	query := `
        SELECT id, name, active, trigger_type, target_pipeline, activated_at, created_at, updated_at
        FROM campaigns
        WHERE active = TRUE AND trigger_type = $1
    `
	rows, err := r.DB.Query(query, triggerType)
	if err != nil {
		return nil, errors.Wrap(err, "list active campaigns")
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c := &model.Campaign{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Active, &c.TriggerType, &c.TargetPipeline, &c.ActivatedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan campaign")
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (r *CampaignRepository) ListCampaigns(offset, limit int, active *bool) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT id, name, active, trigger_type, target_pipeline, activated_at, created_at, updated_at FROM campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if active != nil {
		query += fmt.Sprintf(" AND active=$%d", argPos)
		args = append(args, *active)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c := &model.Campaign{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Active, &c.TriggerType, &c.TargetPipeline, &c.ActivatedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}

	// Count total
	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	argsCount := []interface{}{}
	if active != nil {
		countQuery += " AND active=$1"
		argsCount = append(argsCount, *active)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

// ====================== Steps ======================

func (r *CampaignRepository) CreateStep(s *model.CampaignStep) error {
	s.CreatedAt = time.Now()
	if s.Kind == "" {
		s.Kind = model.StepKindDelay
	}
	query := `
        INSERT INTO campaign_steps
        (campaign_id, position, kind, delay_days, delay_hours, delay_minutes,
         channel, subject, body, template_name, template_params,
         condition_step_id, condition_value, active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		s.CampaignID, s.Position, s.Kind, s.DelayDays, s.DelayHours, s.DelayMinutes,
		s.Channel, s.Subject, s.Body, s.TemplateName, pq.Array(s.TemplateParams),
		s.ConditionStepID, s.ConditionValue, s.Active, s.CreatedAt,
	).Scan(&s.ID)
}

func (r *CampaignRepository) GetStepByID(id int) (*model.CampaignStep, error) {
	query := `
        SELECT id, campaign_id, position, kind, delay_days, delay_hours, delay_minutes,
               channel, subject, body, template_name, template_params,
               condition_step_id, condition_value, active, created_at
        FROM campaign_steps WHERE id=$1
    `
	s := &model.CampaignStep{}
	err := r.DB.QueryRow(query, id).Scan(
		&s.ID, &s.CampaignID, &s.Position, &s.Kind, &s.DelayDays, &s.DelayHours, &s.DelayMinutes,
		&s.Channel, &s.Subject, &s.Body, &s.TemplateName, pq.Array(&s.TemplateParams),
		&s.ConditionStepID, &s.ConditionValue, &s.Active, &s.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewStepNotFound(id)
		}
		return nil, err
	}
	return s, nil
}

// ListActiveSteps returns a campaign's active steps ordered by position.
func (r *CampaignRepository) ListActiveSteps(campaignID int) ([]*model.CampaignStep, error) {
	query := `
        SELECT id, campaign_id, position, kind, delay_days, delay_hours, delay_minutes,
               channel, subject, body, template_name, template_params,
               condition_step_id, condition_value, active, created_at
        FROM campaign_steps
        WHERE campaign_id = $1 AND active = TRUE
        ORDER BY position ASC
    `
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, errors.Wrap(err, "list steps")
	}
	defer rows.Close()

	steps := []*model.CampaignStep{}
	for rows.Next() {
		s := &model.CampaignStep{}
		if err := rows.Scan(
			&s.ID, &s.CampaignID, &s.Position, &s.Kind, &s.DelayDays, &s.DelayHours, &s.DelayMinutes,
			&s.Channel, &s.Subject, &s.Body, &s.TemplateName, pq.Array(&s.TemplateParams),
			&s.ConditionStepID, &s.ConditionValue, &s.Active, &s.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan step")
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

// ListConditionalSteps returns the active conditional steps gated on the
// given prior step.
func (r *CampaignRepository) ListConditionalSteps(conditionStepID int) ([]*model.CampaignStep, error) {
	query := `
        SELECT id, campaign_id, position, kind, delay_days, delay_hours, delay_minutes,
               channel, subject, body, template_name, template_params,
               condition_step_id, condition_value, active, created_at
        FROM campaign_steps
        WHERE kind = 'conditional' AND condition_step_id = $1 AND active = TRUE
        ORDER BY position ASC
    `
	rows, err := r.DB.Query(query, conditionStepID)
	if err != nil {
		return nil, errors.Wrap(err, "list conditional steps")
	}
	defer rows.Close()

	steps := []*model.CampaignStep{}
	for rows.Next() {
		s := &model.CampaignStep{}
		if err := rows.Scan(
			&s.ID, &s.CampaignID, &s.Position, &s.Kind, &s.DelayDays, &s.DelayHours, &s.DelayMinutes,
			&s.Channel, &s.Subject, &s.Body, &s.TemplateName, pq.Array(&s.TemplateParams),
			&s.ConditionStepID, &s.ConditionValue, &s.Active, &s.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan step")
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
