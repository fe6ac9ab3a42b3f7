package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/leadflow/automation/internal/model"
	"github.com/leadflow/automation/internal/service"
)

func TestMatchesSegment(t *testing.T) {
	lead := &model.Lead{ID: 1, Pipeline: "ZAPPER", CreatedAt: time.Now()}

	allSegments := &model.Campaign{ID: 1, Active: true, TriggerType: model.TriggerLeadCreated}
	assert.True(t, service.Matches(lead, allSegments), "unset target pipeline should match any segment")

	other := &model.Campaign{ID: 2, Active: true, TargetPipeline: strPtr("Vesuviano")}
	assert.False(t, service.Matches(lead, other))

	sameDifferentCase := &model.Campaign{ID: 3, Active: true, TargetPipeline: strPtr("zapper")}
	assert.True(t, service.Matches(lead, sameDifferentCase), "segment match is case-insensitive")
}

func TestMatchesInactiveCampaign(t *testing.T) {
	lead := &model.Lead{ID: 1, Pipeline: "ZAPPER", CreatedAt: time.Now()}
	inactive := &model.Campaign{ID: 1, Active: false}
	assert.False(t, service.Matches(lead, inactive))
}

func TestMatchesActivationCutoff(t *testing.T) {
	activatedAt := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	campaign := &model.Campaign{ID: 1, Active: true, ActivatedAt: &activatedAt}

	before := &model.Lead{ID: 1, CreatedAt: activatedAt.Add(-time.Minute)}
	assert.False(t, service.Matches(before, campaign), "lead created before activation must not match")

	exactly := &model.Lead{ID: 2, CreatedAt: activatedAt}
	assert.True(t, service.Matches(exactly, campaign), "lead created at activation time matches")

	after := &model.Lead{ID: 3, CreatedAt: activatedAt.Add(time.Hour)}
	assert.True(t, service.Matches(after, campaign))
}
