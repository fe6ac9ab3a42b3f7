// internal/model/step.go
package model

import "time"

const (
	StepKindDelay       = "delay"
	StepKindConditional = "conditional"

	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
)

// CampaignStep is one unit of content + timing within a campaign.
// Delay steps fire at a fixed offset from lead creation; conditional
// steps fire only once a matching reply to a prior step is observed.
type CampaignStep struct {
	ID              int       `db:"id" json:"id"`
	CampaignID      int       `db:"campaign_id" json:"campaign_id"`
	Position        int       `db:"position" json:"position"`
	Kind            string    `db:"kind" json:"kind"`
	DelayDays       int       `db:"delay_days" json:"delay_days"`
	DelayHours      int       `db:"delay_hours" json:"delay_hours"`
	DelayMinutes    int       `db:"delay_minutes" json:"delay_minutes"`
	Channel         string    `db:"channel" json:"channel"`
	Subject         string    `db:"subject" json:"subject"`
	Body            string    `db:"body" json:"body"`
	TemplateName    string    `db:"template_name" json:"template_name"`
	TemplateParams  []string  `db:"template_params" json:"template_params"`
	ConditionStepID *int      `db:"condition_step_id" json:"condition_step_id,omitempty"`
	ConditionValue  *string   `db:"condition_value" json:"condition_value,omitempty"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Delay is the step's configured offset from its origin time.
func (s *CampaignStep) Delay() time.Duration {
	return time.Duration(s.DelayDays)*24*time.Hour +
		time.Duration(s.DelayHours)*time.Hour +
		time.Duration(s.DelayMinutes)*time.Minute
}
