package service_test

import (
	"fmt"
	"sort"
	"time"

	appErrors "github.com/leadflow/automation/internal/errors"
	"github.com/leadflow/automation/internal/model"
)

// In-memory fakes for the repository interfaces, shared by the engine
// tests in this package.

type fakeLeadRepo struct {
	leads []model.Lead
}

func (f *fakeLeadRepo) GetByID(id int) (*model.Lead, error) {
	for i := range f.leads {
		if f.leads[i].ID == id {
			l := f.leads[i]
			return &l, nil
		}
	}
	return nil, nil
}

func (f *fakeLeadRepo) ListCreatedSince(since time.Time) ([]model.Lead, error) {
	out := []model.Lead{}
	for _, l := range f.leads {
		if !l.CreatedAt.Before(since) {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeCampaignRepo struct {
	campaigns []*model.Campaign
	steps     []*model.CampaignStep
}

func (f *fakeCampaignRepo) ListCampaigns(offset, limit int, active *bool) ([]*model.Campaign, int, error) {
	return f.campaigns, len(f.campaigns), nil
}

func (f *fakeCampaignRepo) ListActiveByTrigger(triggerType string) ([]*model.Campaign, error) {
	out := []*model.Campaign{}
	for _, c := range f.campaigns {
		if c.Active && c.TriggerType == triggerType {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	for _, c := range f.campaigns {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, appErrors.NewCampaignNotFound(id)
}

func (f *fakeCampaignRepo) Create(c *model.Campaign) error {
	c.ID = len(f.campaigns) + 1
	f.campaigns = append(f.campaigns, c)
	return nil
}

func (f *fakeCampaignRepo) SetActive(campaignID int, active bool) error {
	for _, c := range f.campaigns {
		if c.ID == campaignID {
			c.Active = active
			return nil
		}
	}
	return appErrors.NewCampaignNotFound(campaignID)
}

func (f *fakeCampaignRepo) CreateStep(s *model.CampaignStep) error {
	s.ID = len(f.steps) + 1
	f.steps = append(f.steps, s)
	return nil
}

func (f *fakeCampaignRepo) GetStepByID(id int) (*model.CampaignStep, error) {
	for _, s := range f.steps {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, appErrors.NewStepNotFound(id)
}

func (f *fakeCampaignRepo) ListActiveSteps(campaignID int) ([]*model.CampaignStep, error) {
	out := []*model.CampaignStep{}
	for _, s := range f.steps {
		if s.CampaignID == campaignID && s.Active {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeCampaignRepo) ListConditionalSteps(conditionStepID int) ([]*model.CampaignStep, error) {
	out := []*model.CampaignStep{}
	for _, s := range f.steps {
		if s.Kind == model.StepKindConditional && s.Active &&
			s.ConditionStepID != nil && *s.ConditionStepID == conditionStepID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeExecutionRepo struct {
	execs  []*model.StepExecution
	nextID int

	// failInsertStepIDs forces Insert to error for the given step ids.
	failInsertStepIDs map[int]bool
	// failMarkSentIDs forces MarkSent to error for the given execution ids.
	failMarkSentIDs map[int]bool
}

func (f *fakeExecutionRepo) Insert(e *model.StepExecution) error {
	if f.failInsertStepIDs[e.StepID] {
		return fmt.Errorf("forced insert failure for step %d", e.StepID)
	}
	for _, ex := range f.execs {
		if ex.LeadID == e.LeadID && ex.CampaignID == e.CampaignID && ex.StepID == e.StepID {
			return appErrors.NewDuplicateExecution(e.LeadID, e.CampaignID, e.StepID)
		}
	}
	f.nextID++
	e.ID = f.nextID
	e.Status = model.StatusPending
	stored := *e
	f.execs = append(f.execs, &stored)
	return nil
}

func (f *fakeExecutionRepo) ExistsForPair(leadID, campaignID int) (bool, error) {
	for _, e := range f.execs {
		if e.LeadID == leadID && e.CampaignID == campaignID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeExecutionRepo) ExistsForStep(leadID, stepID int) (bool, error) {
	for _, e := range f.execs {
		if e.LeadID == leadID && e.StepID == stepID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeExecutionRepo) ListDue(now time.Time, limit int) ([]*model.StepExecution, error) {
	due := []*model.StepExecution{}
	for _, e := range f.execs {
		if e.Status == model.StatusPending && !e.ScheduledAt.After(now) {
			due = append(due, e)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledAt.Before(due[j].ScheduledAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (f *fakeExecutionRepo) MarkSent(id int, sentAt time.Time) error {
	if f.failMarkSentIDs[id] {
		return fmt.Errorf("forced mark-sent failure for execution %d", id)
	}
	for _, e := range f.execs {
		if e.ID == id {
			e.Status = model.StatusSent
			e.SentAt = &sentAt
			e.LastError = ""
			return nil
		}
	}
	return fmt.Errorf("execution %d not found", id)
}

func (f *fakeExecutionRepo) MarkFailed(id int, lastError string) error {
	for _, e := range f.execs {
		if e.ID == id {
			e.Status = model.StatusFailed
			e.LastError = lastError
			return nil
		}
	}
	return fmt.Errorf("execution %d not found", id)
}

func (f *fakeExecutionRepo) GetByID(id int) (*model.StepExecution, error) {
	for _, e := range f.execs {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeExecutionRepo) StatsForCampaign(campaignID int) (map[string]int, error) {
	stats := map[string]int{"pending": 0, "sent": 0, "failed": 0}
	for _, e := range f.execs {
		if e.CampaignID == campaignID {
			stats[e.Status]++
		}
	}
	return stats, nil
}

func strPtr(s string) *string { return &s }
