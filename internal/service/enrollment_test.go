package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/automation/internal/model"
	"github.com/leadflow/automation/internal/service"
)

func newEnrollment(leads *fakeLeadRepo, campaigns *fakeCampaignRepo, execs *fakeExecutionRepo, now time.Time) *service.EnrollmentService {
	return &service.EnrollmentService{
		LeadRepo:      leads,
		CampaignRepo:  campaigns,
		ExecutionRepo: execs,
		Lookback:      24 * time.Hour,
		Clock:         func() time.Time { return now },
	}
}

func TestEnrollmentSchedulesDelaySteps(t *testing.T) {
	createdAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := createdAt.Add(time.Hour)

	leads := &fakeLeadRepo{leads: []model.Lead{
		{ID: 1, ContactName: "Alice Smith", Email: "alice@example.com", Pipeline: "ZAPPER", CreatedAt: createdAt},
	}}
	campaigns := &fakeCampaignRepo{
		campaigns: []*model.Campaign{
			{ID: 1, Active: true, TriggerType: model.TriggerLeadCreated},
		},
		steps: []*model.CampaignStep{
			{ID: 1, CampaignID: 1, Position: 1, Kind: model.StepKindDelay, DelayDays: 1, DelayHours: 2, Channel: model.ChannelEmail, Active: true},
			{ID: 2, CampaignID: 1, Position: 2, Kind: model.StepKindDelay, Channel: model.ChannelEmail, Active: true},
		},
	}
	execs := &fakeExecutionRepo{}

	result, err := newEnrollment(leads, campaigns, execs, now).Run()
	require.NoError(t, err)

	assert.Equal(t, 1, result.PairsEnrolled)
	assert.Equal(t, 2, result.Created)
	require.Len(t, execs.execs, 2)

	// scheduled_at is lead creation + delay, independent of "now"
	assert.Equal(t, time.Date(2024, 1, 2, 2, 0, 0, 0, time.UTC), execs.execs[0].ScheduledAt)
	// zero-delay step is due immediately at creation time
	assert.Equal(t, createdAt, execs.execs[1].ScheduledAt)
	for _, e := range execs.execs {
		assert.Equal(t, model.StatusPending, e.Status)
	}
}

func TestEnrollmentIsIdempotent(t *testing.T) {
	createdAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	leads := &fakeLeadRepo{leads: []model.Lead{
		{ID: 1, CreatedAt: createdAt},
	}}
	campaigns := &fakeCampaignRepo{
		campaigns: []*model.Campaign{{ID: 1, Active: true, TriggerType: model.TriggerLeadCreated}},
		steps: []*model.CampaignStep{
			{ID: 1, CampaignID: 1, Kind: model.StepKindDelay, Channel: model.ChannelEmail, Active: true},
		},
	}
	execs := &fakeExecutionRepo{}
	svc := newEnrollment(leads, campaigns, execs, createdAt.Add(time.Hour))

	first, err := svc.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	second, err := svc.Run()
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created, "re-running enrollment must not create more executions")
	assert.Equal(t, 1, second.Skipped)
	assert.Len(t, execs.execs, 1)
}

func TestEnrollmentSegmentScenario(t *testing.T) {
	// Two active campaigns: one open to all segments, one targeting
	// Vesuviano. A ZAPPER lead enrolls only in the first.
	createdAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	leads := &fakeLeadRepo{leads: []model.Lead{
		{ID: 1, Pipeline: "ZAPPER", CreatedAt: createdAt},
	}}
	campaigns := &fakeCampaignRepo{
		campaigns: []*model.Campaign{
			{ID: 1, Active: true, TriggerType: model.TriggerLeadCreated},
			{ID: 2, Active: true, TriggerType: model.TriggerLeadCreated, TargetPipeline: strPtr("Vesuviano")},
		},
		steps: []*model.CampaignStep{
			{ID: 1, CampaignID: 1, Kind: model.StepKindDelay, Channel: model.ChannelEmail, Active: true},
			{ID: 2, CampaignID: 2, Kind: model.StepKindDelay, Channel: model.ChannelEmail, Active: true},
		},
	}
	execs := &fakeExecutionRepo{}

	result, err := newEnrollment(leads, campaigns, execs, createdAt.Add(time.Minute)).Run()
	require.NoError(t, err)

	assert.Equal(t, 1, result.PairsEnrolled)
	require.Len(t, execs.execs, 1)
	assert.Equal(t, 1, execs.execs[0].CampaignID)
}

func TestEnrollmentSkipsConditionalSteps(t *testing.T) {
	createdAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	leads := &fakeLeadRepo{leads: []model.Lead{{ID: 1, CreatedAt: createdAt}}}
	condStep := 1
	campaigns := &fakeCampaignRepo{
		campaigns: []*model.Campaign{{ID: 1, Active: true, TriggerType: model.TriggerLeadCreated}},
		steps: []*model.CampaignStep{
			{ID: 1, CampaignID: 1, Position: 1, Kind: model.StepKindDelay, Channel: model.ChannelWhatsApp, Active: true},
			{ID: 2, CampaignID: 1, Position: 2, Kind: model.StepKindConditional, ConditionStepID: &condStep, Channel: model.ChannelWhatsApp, Active: true},
		},
	}
	execs := &fakeExecutionRepo{}

	result, err := newEnrollment(leads, campaigns, execs, createdAt.Add(time.Hour)).Run()
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created, "conditional steps wait for their reply event")
	require.Len(t, execs.execs, 1)
	assert.Equal(t, 1, execs.execs[0].StepID)
}

func TestEnrollmentStepInsertFailureDoesNotBlockSiblings(t *testing.T) {
	createdAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	leads := &fakeLeadRepo{leads: []model.Lead{{ID: 1, CreatedAt: createdAt}}}
	campaigns := &fakeCampaignRepo{
		campaigns: []*model.Campaign{{ID: 1, Active: true, TriggerType: model.TriggerLeadCreated}},
		steps: []*model.CampaignStep{
			{ID: 1, CampaignID: 1, Position: 1, Kind: model.StepKindDelay, Channel: model.ChannelEmail, Active: true},
			{ID: 2, CampaignID: 1, Position: 2, Kind: model.StepKindDelay, Channel: model.ChannelEmail, Active: true},
			{ID: 3, CampaignID: 1, Position: 3, Kind: model.StepKindDelay, Channel: model.ChannelEmail, Active: true},
		},
	}
	execs := &fakeExecutionRepo{failInsertStepIDs: map[int]bool{2: true}}

	result, err := newEnrollment(leads, campaigns, execs, createdAt.Add(time.Hour)).Run()
	require.NoError(t, err)

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Errors)
	assert.Len(t, execs.execs, 2, "steps 1 and 3 still scheduled despite step 2 failing")
}

func TestEnrollmentLookbackWindow(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	leads := &fakeLeadRepo{leads: []model.Lead{
		{ID: 1, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: 2, CreatedAt: now.Add(-30 * time.Hour)}, // outside the 24h window
	}}
	campaigns := &fakeCampaignRepo{
		campaigns: []*model.Campaign{{ID: 1, Active: true, TriggerType: model.TriggerLeadCreated}},
		steps: []*model.CampaignStep{
			{ID: 1, CampaignID: 1, Kind: model.StepKindDelay, Channel: model.ChannelEmail, Active: true},
		},
	}
	execs := &fakeExecutionRepo{}

	result, err := newEnrollment(leads, campaigns, execs, now).Run()
	require.NoError(t, err)

	assert.Equal(t, 1, result.LeadsScanned)
	require.Len(t, execs.execs, 1)
	assert.Equal(t, 1, execs.execs[0].LeadID)
}
