// internal/service/enrollment.go
package service

import (
	"time"

	appErrors "github.com/leadflow/automation/internal/errors"
	"github.com/leadflow/automation/internal/log"
	"github.com/leadflow/automation/internal/model"
	"github.com/leadflow/automation/internal/repository"
)

// EnrollmentService runs the enrollment pass: recent leads are matched
// against active lead_created campaigns and, for each new (lead, campaign)
// pair, every active delay step gets a pending execution scheduled at
// lead.created_at + step delay.
type EnrollmentService struct {
	LeadRepo      repository.LeadRepositoryInterface
	CampaignRepo  repository.CampaignRepositoryInterface
	ExecutionRepo repository.ExecutionRepositoryInterface

	// Lookback bounds the recency window of the pass.
	Lookback time.Duration
	// Clock is swappable in tests; defaults to time.Now.
	Clock func() time.Time
}

// EnrollmentResult is the aggregate outcome of one pass.
type EnrollmentResult struct {
	LeadsScanned  int `json:"leads_scanned"`
	PairsEnrolled int `json:"pairs_enrolled"`
	Created       int `json:"executions_created"`
	Skipped       int `json:"skipped"`
	Errors        int `json:"errors"`
}

func (s *EnrollmentService) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// Run executes one enrollment pass. Only the initial batch reads can fail
// the pass; every per-pair and per-step error is logged, counted, and
// skipped over.
func (s *EnrollmentService) Run() (*EnrollmentResult, error) {
	logger := log.GetLogger()

	lookback := s.Lookback
	if lookback <= 0 {
		lookback = 24 * time.Hour
	}
	since := s.now().Add(-lookback)

	leads, err := s.LeadRepo.ListCreatedSince(since)
	if err != nil {
		return nil, err
	}

	campaigns, err := s.CampaignRepo.ListActiveByTrigger(model.TriggerLeadCreated)
	if err != nil {
		return nil, err
	}

	result := &EnrollmentResult{LeadsScanned: len(leads)}

	for i := range leads {
		lead := &leads[i]
		for _, campaign := range campaigns {
			if !Matches(lead, campaign) {
				continue
			}

			enrolled, err := s.ExecutionRepo.ExistsForPair(lead.ID, campaign.ID)
			if err != nil {
				logger.Warnf("enrollment check failed for lead %d campaign %d: %v", lead.ID, campaign.ID, err)
				result.Errors++
				continue
			}
			if enrolled {
				result.Skipped++
				continue
			}

			created, errs := s.scheduleSteps(lead, campaign)
			result.Created += created
			result.Errors += errs
			if created > 0 {
				result.PairsEnrolled++
			}
		}
	}

	logger.Infof("enrollment pass: %d leads, %d pairs enrolled, %d executions, %d skipped, %d errors",
		result.LeadsScanned, result.PairsEnrolled, result.Created, result.Skipped, result.Errors)
	return result, nil
}

// scheduleSteps inserts a pending execution for each active delay step of
// the campaign. Conditional steps wait for their reply event. A failed
// insert never blocks the sibling steps, and a unique-index conflict
// counts as a skip: another pass got there first.
func (s *EnrollmentService) scheduleSteps(lead *model.Lead, campaign *model.Campaign) (created, errs int) {
	logger := log.GetLogger()

	steps, err := s.CampaignRepo.ListActiveSteps(campaign.ID)
	if err != nil {
		logger.Warnf("failed to list steps for campaign %d: %v", campaign.ID, err)
		return 0, 1
	}

	for _, step := range steps {
		if step.Kind == model.StepKindConditional {
			continue
		}

		exec := &model.StepExecution{
			LeadID:      lead.ID,
			CampaignID:  campaign.ID,
			StepID:      step.ID,
			ScheduledAt: lead.CreatedAt.Add(step.Delay()),
		}
		if err := s.ExecutionRepo.Insert(exec); err != nil {
			if _, ok := err.(*appErrors.ErrDuplicateExecution); ok {
				continue
			}
			logger.Warnf("failed to schedule step %d for lead %d: %v", step.ID, lead.ID, err)
			errs++
			continue
		}
		created++
	}
	return created, errs
}
