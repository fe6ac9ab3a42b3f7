// internal/service/activator.go
package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/leadflow/automation/internal/errors"
	"github.com/leadflow/automation/internal/log"
	"github.com/leadflow/automation/internal/model"
	"github.com/leadflow/automation/internal/repository"
)

// ReplyEvent is an inbound reply to a previously dispatched step, e.g. a
// WhatsApp button press. StepID references the step that was replied to.
type ReplyEvent struct {
	ID         uuid.UUID `json:"id"`
	LeadID     int       `json:"lead_id"`
	StepID     int       `json:"step_id"`
	Payload    string    `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Fingerprint keys reply events for dedup: the same lead pressing the
// same button on the same step is one activation, however often the
// provider delivers it.
func (e ReplyEvent) Fingerprint() string {
	return fmt.Sprintf("%d:%d:%s", e.LeadID, e.StepID, e.Payload)
}

// ConditionalActivator creates executions for conditional steps once
// their triggering reply is observed. It runs outside the delay-based
// scheduling pass.
type ConditionalActivator struct {
	CampaignRepo  repository.CampaignRepositoryInterface
	ExecutionRepo repository.ExecutionRepositoryInterface
}

// HandleReply activates every conditional step gated on the replied-to
// step whose condition value matches the payload. The prior step must
// have an execution for the lead, but that execution does not have to be
// in status sent: a reply can race the sent_at write, so eligibility is
// deliberately not gated on the terminal state.
func (a *ConditionalActivator) HandleReply(ev ReplyEvent) (int, error) {
	logger := log.GetLogger()

	steps, err := a.CampaignRepo.ListConditionalSteps(ev.StepID)
	if err != nil {
		return 0, err
	}
	if len(steps) == 0 {
		return 0, nil
	}

	priorExists, err := a.ExecutionRepo.ExistsForStep(ev.LeadID, ev.StepID)
	if err != nil {
		return 0, err
	}
	if !priorExists {
		logger.Warnf("reply %s references step %d with no execution for lead %d, ignoring",
			ev.ID, ev.StepID, ev.LeadID)
		return 0, nil
	}

	created := 0
	for _, step := range steps {
		if step.ConditionValue != nil && *step.ConditionValue != "" && *step.ConditionValue != ev.Payload {
			continue
		}

		exec := &model.StepExecution{
			LeadID:      ev.LeadID,
			CampaignID:  step.CampaignID,
			StepID:      step.ID,
			ScheduledAt: ev.OccurredAt.Add(step.Delay()),
		}
		if err := a.ExecutionRepo.Insert(exec); err != nil {
			if _, ok := err.(*appErrors.ErrDuplicateExecution); ok {
				continue
			}
			logger.Warnf("failed to activate conditional step %d for lead %d: %v", step.ID, ev.LeadID, err)
			continue
		}
		created++
	}

	if created > 0 {
		logger.Infof("reply %s activated %d conditional step(s) for lead %d", ev.ID, created, ev.LeadID)
	}
	return created, nil
}
