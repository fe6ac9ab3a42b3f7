// internal/service/dispatcher.go
package service

import (
	"fmt"
	"time"

	appErrors "github.com/leadflow/automation/internal/errors"
	"github.com/leadflow/automation/internal/log"
	"github.com/leadflow/automation/internal/model"
	"github.com/leadflow/automation/internal/repository"
	"github.com/leadflow/automation/internal/transport"
)

const DefaultBatchSize = 50

// Dispatcher runs the dispatch pass: due pending executions are resolved,
// rendered, sent through their channel, and moved to a terminal state.
// Terminal states are final; nothing here ever re-queues a failed row.
type Dispatcher struct {
	LeadRepo      repository.LeadRepositoryInterface
	CampaignRepo  repository.CampaignRepositoryInterface
	ExecutionRepo repository.ExecutionRepositoryInterface
	Email         transport.EmailSender
	WhatsApp      transport.WhatsAppSender

	BatchSize int
	// Clock is swappable in tests; defaults to time.Now.
	Clock func() time.Time
}

// DispatchResult is the aggregate outcome of one pass.
type DispatchResult struct {
	Selected int `json:"selected"`
	Sent     int `json:"sent"`
	Failed   int `json:"failed"`
}

func (d *Dispatcher) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now()
}

// Run executes one dispatch pass. Only the due-batch read can fail the
// pass; each execution resolves independently and records its own
// outcome on the ledger.
func (d *Dispatcher) Run() (*DispatchResult, error) {
	logger := log.GetLogger()

	batch := d.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	due, err := d.ExecutionRepo.ListDue(d.now(), batch)
	if err != nil {
		return nil, err
	}

	result := &DispatchResult{Selected: len(due)}
	for _, exec := range due {
		if err := d.dispatch(exec); err != nil {
			if markErr := d.ExecutionRepo.MarkFailed(exec.ID, err.Error()); markErr != nil {
				logger.Errorf("failed to mark execution %d failed: %v", exec.ID, markErr)
			}
			result.Failed++
			continue
		}
		result.Sent++
	}

	logger.Infof("dispatch pass: %d due, %d sent, %d failed", result.Selected, result.Sent, result.Failed)
	return result, nil
}

// dispatch resolves, renders, and sends one execution, then marks it
// sent. Any returned error is terminal for the execution.
func (d *Dispatcher) dispatch(exec *model.StepExecution) error {
	step, err := d.CampaignRepo.GetStepByID(exec.StepID)
	if err != nil {
		return fmt.Errorf("resolve step: %v", err)
	}

	lead, err := d.LeadRepo.GetByID(exec.LeadID)
	if err != nil {
		return fmt.Errorf("resolve lead: %v", err)
	}
	if lead == nil {
		return appErrors.NewLeadNotFound(exec.LeadID)
	}

	if _, err := d.CampaignRepo.GetByID(exec.CampaignID); err != nil {
		return fmt.Errorf("resolve campaign: %v", err)
	}

	fields := LeadFields(lead)

	switch step.Channel {
	case model.ChannelEmail:
		if lead.Email == "" {
			return appErrors.NewNoRecipient(lead.ID, model.ChannelEmail)
		}
		subject := RenderTemplate(step.Subject, fields)
		body := RenderTemplate(step.Body, fields)
		if _, err := d.Email.Send(lead.Email, subject, body); err != nil {
			return err
		}

	case model.ChannelWhatsApp:
		if lead.Phone == "" {
			return appErrors.NewNoRecipient(lead.ID, model.ChannelWhatsApp)
		}
		if step.TemplateName != "" {
			params := make([]string, len(step.TemplateParams))
			for i, p := range step.TemplateParams {
				params[i] = RenderTemplate(p, fields)
			}
			if _, err := d.WhatsApp.SendTemplate(lead.Phone, step.TemplateName, params); err != nil {
				return err
			}
		} else {
			if _, err := d.WhatsApp.SendText(lead.Phone, RenderTemplate(step.Body, fields)); err != nil {
				return err
			}
		}

	default:
		return fmt.Errorf("unknown channel %q on step %d", step.Channel, step.ID)
	}

	// The message is delivered at this point. A ledger-write failure must
	// not flip the row to failed, so it is logged rather than returned.
	if err := d.ExecutionRepo.MarkSent(exec.ID, d.now()); err != nil {
		log.GetLogger().Errorf("execution %d delivered but could not be marked sent: %v", exec.ID, err)
	}
	return nil
}
