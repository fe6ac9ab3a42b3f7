// internal/model/campaign.go
package model

import "time"

const TriggerLeadCreated = "lead_created"

type Campaign struct {
	ID             int        `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Active         bool       `db:"active" json:"active"`
	TriggerType    string     `db:"trigger_type" json:"trigger_type"`
	TargetPipeline *string    `db:"target_pipeline" json:"target_pipeline,omitempty"`
	ActivatedAt    *time.Time `db:"activated_at" json:"activated_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
