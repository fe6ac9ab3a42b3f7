// internal/model/step_execution.go
package model

import "time"

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// StepExecution is one row of the execution ledger: a single step to be
// dispatched to a single lead. Rows are never deleted and the status
// moves out of pending at most once.
type StepExecution struct {
	ID          int        `db:"id" json:"id"`
	LeadID      int        `db:"lead_id" json:"lead_id"`
	CampaignID  int        `db:"campaign_id" json:"campaign_id"`
	StepID      int        `db:"step_id" json:"step_id"`
	Status      string     `db:"status" json:"status"`
	ScheduledAt time.Time  `db:"scheduled_at" json:"scheduled_at"`
	SentAt      *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	LastError   string     `db:"last_error,omitempty" json:"last_error,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
