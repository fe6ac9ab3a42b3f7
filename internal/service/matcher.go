// internal/service/matcher.go
package service

import (
	"strings"

	"github.com/leadflow/automation/internal/model"
)

// Matches reports whether a lead qualifies for a campaign. All conditions
// must hold: the campaign is active, its target pipeline is unset or equals
// the lead's pipeline case-insensitively, and, when an activation time is
// set, the lead was created at or after it.
func Matches(lead *model.Lead, campaign *model.Campaign) bool {
	if !campaign.Active {
		return false
	}
	if campaign.TargetPipeline != nil && *campaign.TargetPipeline != "" {
		if !strings.EqualFold(*campaign.TargetPipeline, lead.Pipeline) {
			return false
		}
	}
	if campaign.ActivatedAt != nil && lead.CreatedAt.Before(*campaign.ActivatedAt) {
		return false
	}
	return true
}
