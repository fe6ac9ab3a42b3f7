// internal/service/campaign_service.go
package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/leadflow/automation/internal/model"
	"github.com/leadflow/automation/internal/repository"
)

// CampaignService backs the campaign HTTP surface.
type CampaignService struct {
	CampaignRepo  repository.CampaignRepositoryInterface
	LeadRepo      repository.LeadRepositoryInterface
	ExecutionRepo repository.ExecutionRepositoryInterface
}

type CampaignDetails struct {
	ID             int                   `json:"id"`
	Name           string                `json:"name"`
	Active         bool                  `json:"active"`
	TriggerType    string                `json:"trigger_type"`
	TargetPipeline *string               `json:"target_pipeline,omitempty"`
	ActivatedAt    *time.Time            `json:"activated_at,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      *time.Time            `json:"updated_at"`
	Steps          []*model.CampaignStep `json:"steps"`
	Stats          map[string]int        `json:"stats"`
}

// StepInput is one step of a create-campaign request.
type StepInput struct {
	Position        int      `json:"position"`
	Kind            string   `json:"kind"`
	DelayDays       int      `json:"delay_days"`
	DelayHours      int      `json:"delay_hours"`
	DelayMinutes    int      `json:"delay_minutes"`
	Channel         string   `json:"channel"`
	Subject         string   `json:"subject"`
	Body            string   `json:"body"`
	TemplateName    string   `json:"template_name"`
	TemplateParams  []string `json:"template_params"`
	ConditionStepID *int     `json:"condition_step_id,omitempty"`
	ConditionValue  *string  `json:"condition_value,omitempty"`
}

func (s *CampaignService) CreateCampaign(name string, targetPipeline *string, activatedAt *string, steps []StepInput) (*model.Campaign, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("campaign name cannot be empty")
	}

	c := &model.Campaign{
		Name:           name,
		Active:         true,
		TriggerType:    model.TriggerLeadCreated,
		TargetPipeline: targetPipeline,
	}

	if activatedAt != nil {
		t, err := time.Parse(time.RFC3339, *activatedAt)
		if err != nil {
			return nil, err
		}
		c.ActivatedAt = &t
	}

	if err := s.CampaignRepo.Create(c); err != nil {
		return nil, err
	}

	for _, in := range steps {
		step := &model.CampaignStep{
			CampaignID:      c.ID,
			Position:        in.Position,
			Kind:            in.Kind,
			DelayDays:       in.DelayDays,
			DelayHours:      in.DelayHours,
			DelayMinutes:    in.DelayMinutes,
			Channel:         in.Channel,
			Subject:         in.Subject,
			Body:            in.Body,
			TemplateName:    in.TemplateName,
			TemplateParams:  in.TemplateParams,
			ConditionStepID: in.ConditionStepID,
			ConditionValue:  in.ConditionValue,
			Active:          true,
		}
		if err := s.CampaignRepo.CreateStep(step); err != nil {
			return nil, fmt.Errorf("failed to create step at position %d: %v", in.Position, err)
		}
	}

	return c, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(page, pageSize int, active *bool) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(offset, pageSize, active)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// GetCampaignDetails returns a campaign with its steps and execution stats.
func (s *CampaignService) GetCampaignDetails(campaignID int) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}

	steps, err := s.CampaignRepo.ListActiveSteps(campaignID)
	if err != nil {
		return nil, err
	}

	stats, err := s.ExecutionRepo.StatsForCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range stats {
		total += n
	}
	stats["total"] = total

	return &CampaignDetails{
		ID:             campaign.ID,
		Name:           campaign.Name,
		Active:         campaign.Active,
		TriggerType:    campaign.TriggerType,
		TargetPipeline: campaign.TargetPipeline,
		ActivatedAt:    campaign.ActivatedAt,
		CreatedAt:      campaign.CreatedAt,
		UpdatedAt:      campaign.UpdatedAt,
		Steps:          steps,
		Stats:          stats,
	}, nil
}

// DeactivateCampaign flips the active flag off. Executions already on the
// ledger are untouched: deactivation stops future enrollment only.
func (s *CampaignService) DeactivateCampaign(campaignID int) error {
	if _, err := s.CampaignRepo.GetByID(campaignID); err != nil {
		return err
	}
	return s.CampaignRepo.SetActive(campaignID, false)
}

// RenderStepPreview renders a step's content against a real lead, with an
// optional override body, without touching the ledger.
func (s *CampaignService) RenderStepPreview(stepID, leadID int, overrideBody *string) (string, error) {
	step, err := s.CampaignRepo.GetStepByID(stepID)
	if err != nil {
		return "", err
	}

	lead, err := s.LeadRepo.GetByID(leadID)
	if err != nil {
		return "", err
	}
	if lead == nil {
		return "", fmt.Errorf("lead not found")
	}

	body := step.Body
	if overrideBody != nil && strings.TrimSpace(*overrideBody) != "" {
		body = *overrideBody
	}
	if strings.TrimSpace(body) == "" {
		return "", fmt.Errorf("template cannot be empty")
	}

	return RenderTemplate(body, LeadFields(lead)), nil
}
