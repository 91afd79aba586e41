// internal/model/campaign_template.go
package model

import "time"

type CampaignTemplate struct {
	ID             int        `db:"id" json:"id"`
	OrganizationID int        `db:"organization_id" json:"organization_id"`
	Name           string     `db:"name" json:"name"`
	Specialty      string     `db:"specialty" json:"specialty,omitempty"`
	BasePrompt     string     `db:"base_prompt" json:"base_prompt"`
	FirstMessage   string     `db:"first_message" json:"first_message,omitempty"`
	Variables      []string   `db:"-" json:"variables,omitempty"` // stored as comma-separated text
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
