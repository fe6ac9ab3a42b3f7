package appErrors

import "fmt"

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

type ErrLeadNotFound struct {
	LeadID int
}

func (e *ErrLeadNotFound) Error() string {
	return fmt.Sprintf("lead with ID %d not found", e.LeadID)
}

func NewLeadNotFound(id int) error {
	return &ErrLeadNotFound{LeadID: id}
}

type ErrStepNotFound struct {
	StepID int
}

func (e *ErrStepNotFound) Error() string {
	return fmt.Sprintf("step with ID %d not found", e.StepID)
}

func NewStepNotFound(id int) error {
	return &ErrStepNotFound{StepID: id}
}

// ErrNoRecipient means the lead is missing the contact field the
// step's channel needs (email address or phone number).
type ErrNoRecipient struct {
	LeadID  int
	Channel string
}

func (e *ErrNoRecipient) Error() string {
	return fmt.Sprintf("no recipient: lead %d has no %s contact", e.LeadID, e.Channel)
}

func NewNoRecipient(leadID int, channel string) error {
	return &ErrNoRecipient{LeadID: leadID, Channel: channel}
}

// ErrDuplicateExecution is returned when the ledger's unique index on
// (lead_id, campaign_id, step_id) rejects an insert. Callers treat it
// as the authoritative "already enrolled" signal, not as a failure.
type ErrDuplicateExecution struct {
	LeadID     int
	CampaignID int
	StepID     int
}

func (e *ErrDuplicateExecution) Error() string {
	return fmt.Sprintf("execution already exists for lead %d, campaign %d, step %d",
		e.LeadID, e.CampaignID, e.StepID)
}

func NewDuplicateExecution(leadID, campaignID, stepID int) error {
	return &ErrDuplicateExecution{LeadID: leadID, CampaignID: campaignID, StepID: stepID}
}
