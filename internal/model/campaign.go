// internal/model/campaign.go
package model

import (
	"encoding/json"
	"time"
)

const (
	CampaignStatusDraft    = "draft"
	CampaignStatusActive   = "active"
	CampaignStatusPaused   = "paused"
	CampaignStatusArchived = "archived"

	CampaignDirectionOutbound = "outbound"
	CampaignDirectionInbound  = "inbound"
)

type Campaign struct {
	ID              int             `db:"id" json:"id"`
	OrganizationID  int             `db:"organization_id" json:"organization_id"`
	Name            string          `db:"name" json:"name"`
	Direction       string          `db:"direction" json:"direction"`
	Status          string          `db:"status" json:"status"`
	AgentID         string          `db:"agent_id" json:"agent_id,omitempty"` // provider-side agent
	TemplateID      *int            `db:"template_id" json:"template_id,omitempty"`
	PromptVariables json.RawMessage `db:"prompt_variables" json:"prompt_variables,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       *time.Time      `db:"updated_at" json:"updated_at,omitempty"`
}
